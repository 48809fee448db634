package dispatch

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/chainsub/internal/notify"
	"github.com/danmuck/chainsub/internal/testutil/testlog"
)

var errLinkDown = errors.New("link down")

type step struct {
	msg notify.RawMessage
	err error
}

// scriptedTransport plays back a fixed sequence of receive results.
// Once the script is exhausted it signals drained and blocks until the
// context ends.
type scriptedTransport struct {
	steps    []step
	idx      int
	drained  chan struct{}
	drainOne sync.Once
	closed   bool
}

func newScript(steps ...step) *scriptedTransport {
	return &scriptedTransport{steps: steps, drained: make(chan struct{})}
}

func (s *scriptedTransport) Receive(ctx context.Context) (notify.RawMessage, error) {
	if s.idx >= len(s.steps) {
		s.drainOne.Do(func() { close(s.drained) })
		<-ctx.Done()
		return nil, ctx.Err()
	}
	st := s.steps[s.idx]
	s.idx++
	return st.msg, st.err
}

func (s *scriptedTransport) Close() error {
	s.closed = true
	return nil
}

func msg(topic string, seq uint32) notify.RawMessage {
	var sb [4]byte
	binary.LittleEndian.PutUint32(sb[:], seq)
	return notify.RawMessage{[]byte(topic), {0xaa}, sb[:]}
}

// runScript runs the dispatcher until the transport script is drained,
// then cancels and returns Run's result.
func runScript(t *testing.T, d *Dispatcher, tr *scriptedTransport) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case <-tr.drained:
	case <-time.After(5 * time.Second):
		t.Fatalf("transport script was not drained")
	}
	cancel()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("dispatcher did not stop after cancellation")
		return nil
	}
}

func TestNewValidatesArguments(t *testing.T) {
	testlog.Start(t)

	if _, err := New(nil, Hooks{OnRecord: func(notify.Record) {}}, Config{}); err == nil {
		t.Fatalf("expected error for nil transport")
	}
	if _, err := New(newScript(), Hooks{}, Config{}); err == nil {
		t.Fatalf("expected error for missing OnRecord")
	}
	d, err := New(newScript(), Hooks{OnRecord: func(notify.Record) {}}, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if d.ID() == "" {
		t.Fatalf("dispatcher id empty")
	}
}

func TestRunDeliversRecordsInOrder(t *testing.T) {
	testlog.Start(t)

	tr := newScript(
		step{msg: msg(notify.TopicHashBlock, 1)},
		step{msg: msg(notify.TopicHashBlock, 2)},
		step{msg: msg(notify.TopicHashTx, 7)},
	)

	var got []notify.Record
	d, err := New(tr, Hooks{OnRecord: func(r notify.Record) { got = append(got, r) }}, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := runScript(t, d, tr); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("records = %d, want 3", len(got))
	}
	if got[0].Sequence != 1 || got[1].Sequence != 2 || got[2].Topic != notify.TopicHashTx {
		t.Fatalf("unexpected delivery order: %+v", got)
	}
}

func TestRunSurvivesMalformedMessage(t *testing.T) {
	testlog.Start(t)

	tr := newScript(
		step{msg: msg(notify.TopicRawTx, 1)},
		step{msg: notify.RawMessage{[]byte(notify.TopicRawTx), {0xaa}}}, // two frames
		step{msg: msg(notify.TopicRawTx, 2)},
	)

	var records int
	var decodeErrs []error
	var hints []string
	d, err := New(tr, Hooks{
		OnRecord:      func(notify.Record) { records++ },
		OnDecodeError: func(hint string, err error) { hints = append(hints, hint); decodeErrs = append(decodeErrs, err) },
	}, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := runScript(t, d, tr); err != nil {
		t.Fatalf("run: %v", err)
	}

	if records != 2 {
		t.Fatalf("records = %d, want 2", records)
	}
	if len(decodeErrs) != 1 {
		t.Fatalf("decode errors = %d, want 1", len(decodeErrs))
	}
	if !errors.Is(decodeErrs[0], notify.ErrFrameCount) {
		t.Fatalf("expected ErrFrameCount, got %v", decodeErrs[0])
	}
	if hints[0] != notify.TopicRawTx {
		t.Fatalf("topic hint = %q", hints[0])
	}
}

func TestRunReturnsTransportError(t *testing.T) {
	testlog.Start(t)

	tr := newScript(
		step{msg: msg(notify.TopicHashBlock, 1)},
		step{err: errLinkDown},
	)

	var records int
	d, err := New(tr, Hooks{OnRecord: func(notify.Record) { records++ }}, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	runErr := d.Run(context.Background())
	if !errors.Is(runErr, errLinkDown) {
		t.Fatalf("expected wrapped transport error, got %v", runErr)
	}
	if records != 1 {
		t.Fatalf("records = %d, want 1", records)
	}
}

func TestRunReturnsNilOnCancellation(t *testing.T) {
	testlog.Start(t)

	tr := newScript()
	d, err := New(tr, Hooks{OnRecord: func(notify.Record) {}}, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := runScript(t, d, tr); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
}

func TestGapDetection(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name string
		seqs []uint32
		want []Gap
	}{
		{"contiguous", []uint32{5, 6, 7}, nil},
		{"single gap", []uint32{5, 6, 8}, []Gap{{Topic: notify.TopicRawTx, Expected: 7, Actual: 8}}},
		{"wraparound is contiguous", []uint32{4294967294, 4294967295, 0, 1}, nil},
		{"duplicate counts as gap", []uint32{3, 3}, []Gap{{Topic: notify.TopicRawTx, Expected: 4, Actual: 3}}},
	}

	for _, tc := range cases {
		var steps []step
		for _, s := range tc.seqs {
			steps = append(steps, step{msg: msg(notify.TopicRawTx, s)})
		}
		tr := newScript(steps...)

		var gaps []Gap
		d, err := New(tr, Hooks{
			OnRecord: func(notify.Record) {},
			OnGap:    func(g Gap) { gaps = append(gaps, g) },
		}, Config{TrackGaps: true})
		if err != nil {
			t.Fatalf("%s: new: %v", tc.name, err)
		}
		if err := runScript(t, d, tr); err != nil {
			t.Fatalf("%s: run: %v", tc.name, err)
		}

		if len(gaps) != len(tc.want) {
			t.Fatalf("%s: gaps = %+v, want %+v", tc.name, gaps, tc.want)
		}
		for i := range gaps {
			if gaps[i] != tc.want[i] {
				t.Fatalf("%s: gap %d = %+v, want %+v", tc.name, i, gaps[i], tc.want[i])
			}
		}
	}
}

func TestGapTrackingIsPerTopic(t *testing.T) {
	testlog.Start(t)

	tr := newScript(
		step{msg: msg(notify.TopicHashTx, 10)},
		step{msg: msg(notify.TopicHashBlock, 3)},
		step{msg: msg(notify.TopicHashTx, 11)},
		step{msg: msg(notify.TopicHashBlock, 4)},
	)

	var gaps []Gap
	d, err := New(tr, Hooks{
		OnRecord: func(notify.Record) {},
		OnGap:    func(g Gap) { gaps = append(gaps, g) },
	}, Config{TrackGaps: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := runScript(t, d, tr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("interleaved topics produced false gaps: %+v", gaps)
	}
}

func TestGapTrackingDisabledByDefault(t *testing.T) {
	testlog.Start(t)

	tr := newScript(
		step{msg: msg(notify.TopicRawTx, 5)},
		step{msg: msg(notify.TopicRawTx, 9)},
	)

	var gaps []Gap
	d, err := New(tr, Hooks{
		OnRecord: func(notify.Record) {},
		OnGap:    func(g Gap) { gaps = append(gaps, g) },
	}, Config{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := runScript(t, d, tr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(gaps) != 0 {
		t.Fatalf("gap hook fired with tracking disabled: %+v", gaps)
	}
}
