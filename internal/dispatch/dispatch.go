package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/chainsub/internal/notify"
	"github.com/danmuck/chainsub/internal/observability"
)

// Transport yields ordered multipart messages from one subscriber
// connection. A Transport is owned by exactly one Dispatcher; nothing
// else may call Receive concurrently.
type Transport interface {
	// Receive blocks until the next multipart message arrives, the
	// context is cancelled, or the connection fails.
	Receive(ctx context.Context) (notify.RawMessage, error)
	Close() error
}

// Gap reports a per-topic sequence discontinuity. Not an error: the
// upstream feed is best-effort and drops are expected under load.
type Gap struct {
	Topic    string
	Expected uint32
	Actual   uint32
}

// Hooks are the consumer-facing delivery points. OnRecord is required
// and is invoked once per classified message, in receipt order, on the
// loop goroutine. OnDecodeError and OnGap are optional.
type Hooks struct {
	OnRecord      func(notify.Record)
	OnDecodeError func(topicHint string, err error)
	OnGap         func(Gap)
}

// Config tunes one Dispatcher.
type Config struct {
	Limits notify.Limits
	// TrackGaps enables per-topic sequence continuity checks. Tracker
	// state lives for one Run call, so a new Run starts fresh.
	TrackGaps bool
}

// Dispatcher mediates between one Transport and one consumer.
type Dispatcher struct {
	id    string
	tr    Transport
	hooks Hooks
	cfg   Config
}

func New(tr Transport, hooks Hooks, cfg Config) (*Dispatcher, error) {
	if tr == nil {
		return nil, errors.New("dispatch: nil transport")
	}
	if hooks.OnRecord == nil {
		return nil, errors.New("dispatch: OnRecord hook is required")
	}
	return &Dispatcher{
		id:    uuid.NewString(),
		tr:    tr,
		hooks: hooks,
		cfg:   cfg,
	}, nil
}

// ID identifies this dispatcher instance in logs and diagnostics.
func (d *Dispatcher) ID() string { return d.id }

// Run drives the receive loop until the context is cancelled or the
// transport fails. Cancellation returns nil; a transport failure
// returns the wrapped cause. Exactly one message is in flight at a
// time: a record is fully delivered before the next receive starts.
func (d *Dispatcher) Run(ctx context.Context) error {
	lastSeq := make(map[string]uint32)

	log.Debug().Str("dispatcher", d.id).Msg("dispatch loop started")
	for {
		if err := ctx.Err(); err != nil {
			log.Debug().Str("dispatcher", d.id).Msg("dispatch loop stopped")
			return nil
		}

		raw, err := d.tr.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Debug().Str("dispatcher", d.id).Msg("dispatch loop stopped")
				return nil
			}
			observability.RecordTransportError()
			log.Error().Str("dispatcher", d.id).Err(err).Msg("transport failure")
			return fmt.Errorf("dispatch: receive: %w", err)
		}

		rec, err := notify.Classify(raw, d.cfg.Limits)
		if err != nil {
			hint := notify.TopicHint(raw)
			observability.RecordDecodeError(notify.DecodeReason(err))
			log.Warn().
				Str("dispatcher", d.id).
				Str("topic_hint", hint).
				Int("frames", len(raw)).
				Err(err).
				Msg("dropped malformed message")
			if d.hooks.OnDecodeError != nil {
				d.hooks.OnDecodeError(hint, err)
			}
			continue
		}

		if d.cfg.TrackGaps {
			d.checkGap(lastSeq, rec)
		}
		lastSeq[rec.Topic] = rec.Sequence

		observability.RecordNotification(rec.Topic)
		d.hooks.OnRecord(rec)
	}
}

func (d *Dispatcher) checkGap(lastSeq map[string]uint32, rec notify.Record) {
	last, seen := lastSeq[rec.Topic]
	if !seen {
		return
	}
	expected := last + 1 // wraps at 2^32 on purpose
	if rec.Sequence == expected {
		return
	}
	observability.RecordSequenceGap(rec.Topic)
	log.Warn().
		Str("dispatcher", d.id).
		Str("topic", rec.Topic).
		Uint32("expected", expected).
		Uint32("actual", rec.Sequence).
		Msg("sequence gap")
	if d.hooks.OnGap != nil {
		d.hooks.OnGap(Gap{Topic: rec.Topic, Expected: expected, Actual: rec.Sequence})
	}
}
