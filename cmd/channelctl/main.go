package main

import (
	"fmt"
	"os"

	"github.com/danmuck/densecode/internal/auth"
	"github.com/danmuck/densecode/internal/channel/server"
	"github.com/danmuck/densecode/internal/config"
	"github.com/danmuck/densecode/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "channelctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)
	cmd := &cobra.Command{
		Use:          "channelctl",
		Short:        "Serve a simulated channel over HTTP",
		Version:      server.Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			observability.InitLogger("channel")
			cfg := config.DefaultChannelServerConfig()
			if configPath != "" {
				var err error
				if cfg, err = config.LoadChannelServerConfig(configPath); err != nil {
					return err
				}
				log.Info().Str("path", configPath).Msg("loaded channel config")
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			srv, err := newServer(cfg)
			if err != nil {
				return err
			}
			log.Info().
				Str("id", srv.ID).
				Str("addr", srv.Addr).
				Str("kind", cfg.Kind).
				Bool("auth", cfg.Token != "").
				Bool("tls", cfg.Security.TLSEnabled).
				Msg("channel started")
			return srv.Serve()
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "cmd/channelctl/config.toml", "channel server config (TOML)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides the config")
	return cmd
}

func newServer(cfg config.ChannelServerConfig) (*server.Server, error) {
	adapter, err := cfg.Adapter()
	if err != nil {
		return nil, err
	}
	return server.New(cfg.ID, cfg.Addr, adapter, cfg.CorsOrigins,
		server.WithValidator(auth.FromToken(cfg.Token)),
		server.WithLimits(cfg.Limits()),
		server.WithTransport(cfg.Transport()),
	), nil
}
