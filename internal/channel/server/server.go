// Package server exposes a channel adapter over HTTP.
package server

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/densecode/internal/auth"
	"github.com/danmuck/densecode/internal/channel"
	"github.com/danmuck/densecode/internal/observability"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/frame"
	"github.com/danmuck/densecode/internal/protocol/session"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const Version = "0.1.0"

// Server answers transmit frames with readouts from Backend.
type Server struct {
	ID        string
	Addr      string
	Backend   channel.Adapter
	Validator auth.Validator
	Limits    frame.Limits
	Transport session.Config
	Started   time.Time

	router *gin.Engine
}

type Option func(*Server)

func WithValidator(v auth.Validator) Option {
	return func(s *Server) { s.Validator = v }
}

func WithLimits(l frame.Limits) Option {
	return func(s *Server) { s.Limits = l }
}

// WithTransport sets the security mode and TLS material Serve listens with.
func WithTransport(cfg session.Config) Option {
	return func(s *Server) { s.Transport = cfg }
}

func New(id, addr string, backend channel.Adapter, corsOrigins []string, opts ...Option) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", observability.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		ID:        id,
		Addr:      addr,
		Backend:   backend,
		Validator: auth.Open{},
		Limits:    frame.DefaultLimits(),
		Transport: session.DefaultConfig(),
		Started:   time.Now(),
		router:    r,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on Addr, over TLS when the transport enables it.
func (s *Server) Serve() error {
	httpSrv, err := s.HTTPServer()
	if err != nil {
		return err
	}
	log.Info().
		Str("channel", s.ID).
		Str("addr", s.Addr).
		Int("max_symbols", s.Backend.MaxSymbols()).
		Bool("tls", httpSrv.TLSConfig != nil).
		Msg("channel server listening")
	if httpSrv.TLSConfig != nil {
		return httpSrv.ListenAndServeTLS("", "")
	}
	return httpSrv.ListenAndServe()
}

// HTTPServer checks the transport policy and builds the listener Serve runs.
func (s *Server) HTTPServer() (*http.Server, error) {
	tlsCfg, err := s.Transport.ServerTLSConfig()
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		TLSConfig:         tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"uptime":      time.Since(s.Started).String(),
			"channel":     s.ID,
			"max_symbols": s.Backend.MaxSymbols(),
			"version":     Version,
		})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.POST(channel.TransmitPath, s.handleTransmit)
}

func (s *Server) handleTransmit(c *gin.Context) {
	in, err := frame.ReadFrame(c.Request.Body, s.Limits)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if in.Header.MessageType != frame.TypeTransmit {
		s.replyError(c, in.Header.MessageID, http.StatusBadRequest, protocol.ErrInvalidPacket)
		return
	}
	if err := s.Validator.Validate(string(in.Auth)); err != nil {
		s.replyError(c, in.Header.MessageID, http.StatusUnauthorized, err)
		return
	}
	req, err := channel.DecodeRequest(in.Payload)
	if err != nil {
		s.replyError(c, in.Header.MessageID, http.StatusBadRequest, err)
		return
	}
	if err := req.Validate(s.Backend.MaxSymbols()); err != nil {
		s.replyError(c, in.Header.MessageID, statusFor(err), err)
		return
	}

	readouts, err := s.Backend.Transmit(c.Request.Context(), req)
	if err != nil {
		log.Warn().
			Str("channel", s.ID).
			Int("symbols", len(req.Symbols)).
			Int("trials", req.Trials).
			Err(err).
			Msg("channel transmit failed")
		s.replyError(c, in.Header.MessageID, statusFor(err), err)
		return
	}

	out := frame.New(in.Header.MessageID, frame.TypeReadout, channel.EncodeReadouts(readouts))
	out.Header.Flags |= frame.FlagIsResponse
	s.reply(c, http.StatusOK, out)
}

func (s *Server) replyError(c *gin.Context, id uint64, status int, err error) {
	out := frame.New(id, frame.TypeError, channel.EncodeError(err))
	out.Header.Flags |= frame.FlagIsResponse | frame.FlagIsError
	s.reply(c, status, out)
}

func (s *Server) reply(c *gin.Context, status int, f frame.Frame) {
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, f, s.Limits); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(status, channel.ContentType, buf.Bytes())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, protocol.ErrChannelCapacityExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, protocol.ErrInvalidPacket), errors.Is(err, protocol.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, protocol.ErrChannelTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusServiceUnavailable
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
