package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/densecode/internal/orchestrator"
	"github.com/danmuck/densecode/internal/protocol"
	"github.com/danmuck/densecode/internal/protocol/session"
)

func TestLoadExperimentConfigDefaultsAndOverrides(t *testing.T) {
	cfg, err := loadExperimentConfig("ex.config.toml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Channel != "noisy" {
		t.Fatalf("unexpected channel: %q", cfg.Channel)
	}
	if cfg.Params.Capacity != 24 || cfg.Params.Trials != 16 || cfg.Params.Workers != 2 {
		t.Fatalf("unexpected params: %+v", cfg.Params)
	}
	if cfg.Params.State != 50 {
		t.Fatalf("unexpected state: %v", cfg.Params.State)
	}
	if cfg.Params.Mapping.String() != "X,I,ZX,Z" {
		t.Fatalf("unexpected mapping: %s", cfg.Params.Mapping)
	}
	if cfg.Params.Codes.String() != "bitflip:2+repetition:3" {
		t.Fatalf("unexpected codes: %s", cfg.Params.Codes)
	}
	if cfg.Params.Timeout != 10*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Params.Timeout)
	}
	if cfg.Params.Fidelity != orchestrator.FidelityExactMatch {
		t.Fatalf("unexpected fidelity: %q", cfg.Params.Fidelity)
	}
	if cfg.Seed != 42 {
		t.Fatalf("unexpected seed: %d", cfg.Seed)
	}
	if cfg.Noise.BaseError != 0.02 || cfg.Noise.Latency != time.Millisecond {
		t.Fatalf("unexpected noise: %+v", cfg.Noise)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Noise.MaxSymbols != 14 || cfg.Precision != 8 || cfg.Compress {
		t.Fatalf("defaults lost: noise=%+v precision=%d compress=%v", cfg.Noise, cfg.Precision, cfg.Compress)
	}
}

func TestLoadExperimentConfigRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"mapping":  "mapping = \"I,I,Z,ZX\"\n",
		"codes":    "codes = [\"repetition:2\"]\n",
		"timeout":  "timeout = \"soon\"\n",
		"fidelity": "fidelity = \"mean\"\n",
		"latency":  "[noise]\nlatency = \"x\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := loadExperimentConfig(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestLoadExperimentConfigRemoteTLS(t *testing.T) {
	body := "remote = \"https://127.0.0.1:9400\"\n[remote_tls]\nmode = \"production\"\nenabled = true\n" +
		"mutual = true\nca_file = \"ca.pem\"\ncert_file = \"link.pem\"\nkey_file = \"link.key\"\nserver_name = \"channel\"\n"
	path := filepath.Join(t.TempDir(), "tls.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := loadExperimentConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	want := session.TLSConfig{
		Enabled:    true,
		Mutual:     true,
		CAFile:     "ca.pem",
		CertFile:   "link.pem",
		KeyFile:    "link.key",
		ServerName: "channel",
	}
	if cfg.Transport.SecurityMode != session.SecurityModeProduction || cfg.Transport.TLS != want {
		t.Fatalf("unexpected transport: %+v", cfg.Transport)
	}
	if cfg.Transport.DialTimeout != session.DefaultConfig().DialTimeout {
		t.Fatalf("session defaults lost: %+v", cfg.Transport)
	}
}

func TestRegistryRejectsPlainRemoteInProduction(t *testing.T) {
	cfg := defaultExperimentConfig()
	cfg.Remote = "http://127.0.0.1:9400"
	cfg.Transport.SecurityMode = session.SecurityModeProduction
	if _, err := cfg.registry(); !errors.Is(err, session.ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSendIdealJSON(t *testing.T) {
	out, err := runCmd(t, "send", "1100", "--capacity", "4", "-o", "json")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var s orchestrator.Summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if s.Reconstructed != "1100" || s.Fidelity != 1 || s.Channel != "ideal" {
		t.Fatalf("unexpected summary: %+v", s)
	}
}

func TestSendFlagsOverrideConfig(t *testing.T) {
	out, err := runCmd(t, "send", "101101", "-c", "ex.config.toml", "--channel", "ideal", "--trials", "2", "-o", "json")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	var s orchestrator.Summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if s.Parameters.Trials != 2 || s.Parameters.Capacity != 24 || s.Method != "exact_match" {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Reconstructed != "101101" {
		t.Fatalf("ideal channel corrupted payload: %q", s.Reconstructed)
	}
}

func TestSendRejectsCapacityOverMax(t *testing.T) {
	_, err := runCmd(t, "send", "1100", "--capacity", "30")
	if err == nil {
		t.Fatalf("expected capacity error")
	}
	if !errors.Is(err, protocol.ErrInvalidCapacity) {
		t.Fatalf("expected ErrInvalidCapacity, got %v", err)
	}
}

func TestChannelsListsBuiltins(t *testing.T) {
	out, err := runCmd(t, "channels", "-o", "yaml")
	if err != nil {
		t.Fatalf("channels: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("id: ideal")) || !bytes.Contains([]byte(out), []byte("id: noisy")) {
		t.Fatalf("unexpected channel list: %s", out)
	}
}

func TestSweepWritesPlot(t *testing.T) {
	plot := filepath.Join(t.TempDir(), "sweep.svg")
	if _, err := runCmd(t, "sweep", "10110100", "--channel", "noisy", "--trials", "4", "--states", "0,100", "--plot", plot); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if info, err := os.Stat(plot); err != nil || info.Size() == 0 {
		t.Fatalf("plot not written: %v", err)
	}
}
