package config

import (
	"fmt"
	"os"
)

func Template() string {
	return configTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(configTemplate), 0o600)
}

const configTemplate = `# bitcoind publish endpoint, e.g. -zmqpubhashblock=tcp://127.0.0.1:28332
endpoint = "tcp://127.0.0.1:28332"

# Topic prefixes to subscribe to. Empty list subscribes to everything.
topics = ["hashblock", "hashtx", "rawblock", "rawtx"]

# Payload rendering: hex | raw | utf8
render = "hex"

# Warn on per-topic sequence discontinuities.
track_gaps = true

# Serve Prometheus metrics when set, e.g. "127.0.0.1:9325".
metrics_addr = ""

log_level = "info"
`
