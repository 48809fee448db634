package notify

import (
	"encoding/binary"
)

// Topics published by bitcoind-family daemons. Classification is not
// restricted to these; any syntactically valid topic passes.
const (
	TopicHashTx    = "hashtx"
	TopicHashBlock = "hashblock"
	TopicRawTx     = "rawtx"
	TopicRawBlock  = "rawblock"
	TopicSequence  = "sequence"
)

const sequenceFrameLen = 4

// RawMessage is one multipart message as delivered by the transport,
// frames in wire order. It is only valid for the duration of a single
// receive cycle; Classify copies what it keeps.
type RawMessage [][]byte

// Record is one decoded notification. Immutable after construction and
// owned by whichever consumer it is handed to.
type Record struct {
	Topic    string
	Payload  []byte
	Sequence uint32
}

// Limits bounds classification memory use.
type Limits struct {
	MaxTopicBytes   int
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxTopicBytes:   32,
		MaxPayloadBytes: 4 * 1024 * 1024,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxTopicBytes <= 0 {
		l.MaxTopicBytes = def.MaxTopicBytes
	}
	if l.MaxPayloadBytes <= 0 {
		l.MaxPayloadBytes = def.MaxPayloadBytes
	}
	return l
}

// Classify converts one raw multipart message into a Record, enforcing
// the fixed [topic, payload, 4-byte LE sequence] wire layout. It is
// all-or-nothing: on any failure no partial Record is returned.
func Classify(raw RawMessage, limits Limits) (Record, error) {
	limits = limits.withDefaults()

	if len(raw) != 3 {
		return Record{}, ErrFrameCount
	}

	topic := raw[0]
	if len(topic) == 0 {
		return Record{}, ErrEmptyTopic
	}
	if len(topic) > limits.MaxTopicBytes {
		return Record{}, ErrTopicTooLong
	}
	for _, b := range topic {
		if b < 0x21 || b > 0x7e {
			return Record{}, ErrTopicNotPrintable
		}
	}

	if len(raw[2]) != sequenceFrameLen {
		return Record{}, ErrSequenceLength
	}
	if len(raw[1]) > limits.MaxPayloadBytes {
		return Record{}, ErrPayloadTooLarge
	}

	// The record must not alias transport-owned frame buffers.
	payload := make([]byte, len(raw[1]))
	copy(payload, raw[1])

	return Record{
		Topic:    string(topic),
		Payload:  payload,
		Sequence: binary.LittleEndian.Uint32(raw[2]),
	}, nil
}

// TopicHint extracts a best-effort topic label from a message that may
// have failed classification, for error reporting. Empty when frame 0
// is absent or not printable.
func TopicHint(raw RawMessage) string {
	if len(raw) == 0 || len(raw[0]) == 0 || len(raw[0]) > DefaultLimits().MaxTopicBytes {
		return ""
	}
	for _, b := range raw[0] {
		if b < 0x21 || b > 0x7e {
			return ""
		}
	}
	return string(raw[0])
}
