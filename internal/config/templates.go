package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "channel":
		return channelTemplate, nil
	case "experiment":
		return experimentTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const channelTemplate = `id = "channel"
addr = ":9400"
kind = "noisy"
token = "temp-channel-token"
seed = 1
cors_origins = ["http://localhost:3000"]

[noise]
base_error = 0.01
state_rate = 0.0005
symbol_penalty = 0.005
max_symbols = 14
latency_ms = 0

[security]
mode = "development"
tls_enabled = false
tls_mutual = false
cert_file = ""
key_file = ""
ca_file = ""
`

const experimentTemplate = `channel = "noisy"
remote = ""
token = ""
capacity = 28
trials = 8
state = 0.0
mapping = "I,X,Z,ZX"
codes = ["repetition:3"]
workers = 4
timeout = "30s"
fidelity = "per_bit"
precision = 8
compress = false
seed = 1

[remote_tls]
mode = "development"
enabled = false
mutual = false
ca_file = ""
cert_file = ""
key_file = ""
server_name = ""
insecure_skip_verify = false
`
