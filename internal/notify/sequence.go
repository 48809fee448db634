package notify

import (
	"encoding/binary"
	"fmt"
)

// SequenceEvent is the decoded payload of a "sequence" topic message:
// a 32-byte hash, a one-byte event label, and for mempool events an
// 8-byte little-endian mempool sequence number.
type SequenceEvent struct {
	Hash       []byte
	Label      byte
	MempoolSeq uint64
	HasMempool bool
}

// Sequence topic event labels.
const (
	SeqBlockConnect    byte = 'C'
	SeqBlockDisconnect byte = 'D'
	SeqTxRemoved       byte = 'R'
	SeqTxAdded         byte = 'A'
)

var ErrSequencePayload = fmt.Errorf("%w: bad sequence topic payload", ErrDecode)

const (
	seqPayloadHashLen  = 32
	seqPayloadBlockLen = seqPayloadHashLen + 1
	seqPayloadTxLen    = seqPayloadHashLen + 1 + 8
)

// ParseSequencePayload decodes the payload of a TopicSequence record.
func ParseSequencePayload(payload []byte) (SequenceEvent, error) {
	if len(payload) != seqPayloadBlockLen && len(payload) != seqPayloadTxLen {
		return SequenceEvent{}, ErrSequencePayload
	}

	ev := SequenceEvent{
		Hash:  append([]byte(nil), payload[:seqPayloadHashLen]...),
		Label: payload[seqPayloadHashLen],
	}

	switch ev.Label {
	case SeqBlockConnect, SeqBlockDisconnect:
		if len(payload) != seqPayloadBlockLen {
			return SequenceEvent{}, ErrSequencePayload
		}
	case SeqTxRemoved, SeqTxAdded:
		if len(payload) != seqPayloadTxLen {
			return SequenceEvent{}, ErrSequencePayload
		}
		ev.MempoolSeq = binary.LittleEndian.Uint64(payload[seqPayloadHashLen+1:])
		ev.HasMempool = true
	default:
		return SequenceEvent{}, ErrSequencePayload
	}

	return ev, nil
}
