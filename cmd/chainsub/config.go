package main

import (
	"flag"
	"strings"

	"github.com/danmuck/chainsub/internal/config"
	"github.com/danmuck/chainsub/internal/notify"
)

type topicList []string

func (t *topicList) String() string { return strings.Join(*t, ",") }

func (t *topicList) Set(v string) error {
	*t = append(*t, v)
	return nil
}

// loadConfig resolves the runtime configuration: defaults, then the
// config file when given, then flag overrides.
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("chainsub", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to chainsub.toml")
	endpoint := fs.String("endpoint", "", "ZMQ publish endpoint")
	render := fs.String("render", "", "payload rendering: hex|raw|utf8")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	var topics topicList
	fs.Var(&topics, "topic", "topic prefix to subscribe to (repeatable)")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if len(topics) > 0 {
		cfg.Topics = topics
	}
	if *render != "" {
		mode, err := notify.ParseMode(*render)
		if err != nil {
			return config.Config{}, err
		}
		cfg.RenderMode = mode
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
