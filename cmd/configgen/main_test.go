package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteThenValidateChannelConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channel.toml")

	write := newRootCmd()
	var out strings.Builder
	write.SetOut(&out)
	write.SetArgs([]string{"--kind", "channel", "--output", path})
	if err := write.Execute(); err != nil {
		t.Fatalf("write: %v", err)
	}

	check := newRootCmd()
	check.SetOut(&out)
	check.SetArgs([]string{"--validate", "--input", path})
	if err := check.Execute(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out.String(), "Validated channel config") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestUnknownKind(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--kind", "relay"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
