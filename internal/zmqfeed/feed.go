package zmqfeed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/chainsub/internal/notify"
)

var (
	ErrConnect = errors.New("zmqfeed: connect failed")
	ErrClosed  = errors.New("zmqfeed: feed closed")
)

// Feed is one SUB connection to a publish endpoint. It is owned by a
// single dispatcher; Receive must not be called concurrently.
type Feed struct {
	sock     zmq4.Socket
	endpoint string
	topics   []string

	closeOnce sync.Once
	closeErr  error
	closed    bool
}

// Dial opens a SUB socket to endpoint and subscribes to the given
// topic prefixes. An empty topic list subscribes to every topic. The
// context governs the socket's lifetime: cancelling it unblocks any
// pending Receive.
func Dial(ctx context.Context, endpoint string, topics ...string) (*Feed, error) {
	sock := zmq4.NewSub(ctx)

	if err := sock.Dial(endpoint); err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: dial %q: %v", ErrConnect, endpoint, err)
	}

	if len(topics) == 0 {
		topics = []string{""}
	}
	for _, topic := range topics {
		if err := sock.SetOption(zmq4.OptionSubscribe, topic); err != nil {
			sock.Close()
			return nil, fmt.Errorf("%w: subscribe %q: %v", ErrConnect, topic, err)
		}
	}

	log.Info().
		Str("endpoint", endpoint).
		Strs("topics", topics).
		Msg("zmq subscriber connected")

	return &Feed{sock: sock, endpoint: endpoint, topics: topics}, nil
}

// Endpoint reports the dialed endpoint.
func (f *Feed) Endpoint() string { return f.endpoint }

// Topics reports the subscribed topic prefixes.
func (f *Feed) Topics() []string {
	return append([]string(nil), f.topics...)
}

// Receive blocks until the next multipart message arrives. The frames
// are only valid until the next Receive call; the dispatcher copies
// what it keeps during classification.
func (f *Feed) Receive(ctx context.Context) (notify.RawMessage, error) {
	if f.closed {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := f.sock.Recv()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("zmqfeed: recv from %q: %w", f.endpoint, err)
	}
	return notify.RawMessage(msg.Frames), nil
}

// Close releases the socket. Safe to call more than once.
func (f *Feed) Close() error {
	f.closeOnce.Do(func() {
		f.closed = true
		f.closeErr = f.sock.Close()
	})
	return f.closeErr
}
