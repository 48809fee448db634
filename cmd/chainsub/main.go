package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/chainsub/internal/dispatch"
	"github.com/danmuck/chainsub/internal/notify"
	"github.com/danmuck/chainsub/internal/observability"
	"github.com/danmuck/chainsub/internal/zmqfeed"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chainsub: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	observability.InitLogger("chainsub")
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		observability.RegisterMetrics()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listener started")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	feed, err := zmqfeed.Dial(ctx, cfg.Endpoint, cfg.Topics...)
	if err != nil {
		return err
	}
	defer feed.Close()

	mode := cfg.RenderMode
	d, err := dispatch.New(feed, dispatch.Hooks{
		OnRecord: func(rec notify.Record) {
			fmt.Printf("%s seq=%d %s\n", rec.Topic, rec.Sequence, renderView(rec, mode))
		},
	}, dispatch.Config{
		Limits:    cfg.Limits(),
		TrackGaps: cfg.TrackGaps,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("dispatcher", d.ID()).
		Str("endpoint", cfg.Endpoint).
		Msg("listening for notifications")
	return d.Run(ctx)
}

// renderView picks the display form for one record. Hash topics get
// explorer-style reversed hex; everything else follows the configured
// mode.
func renderView(rec notify.Record, mode notify.Mode) string {
	if mode == notify.ModeHex && notify.HashTopic(rec.Topic) {
		return notify.RenderHash(rec)
	}
	return notify.RenderPayload(rec, mode)
}
