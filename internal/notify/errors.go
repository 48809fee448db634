package notify

import (
	"errors"
	"fmt"
)

// ErrDecode is the root of the message-level failure family. Every
// sentinel below wraps it, so callers that only care about "this
// message is malformed" can match the whole set with one errors.Is.
var ErrDecode = errors.New("notify: malformed message")

var (
	ErrFrameCount        = fmt.Errorf("%w: frame count != 3", ErrDecode)
	ErrEmptyTopic        = fmt.Errorf("%w: empty topic frame", ErrDecode)
	ErrTopicTooLong      = fmt.Errorf("%w: topic frame too long", ErrDecode)
	ErrTopicNotPrintable = fmt.Errorf("%w: topic frame not printable", ErrDecode)
	ErrSequenceLength    = fmt.Errorf("%w: sequence frame length != 4", ErrDecode)
	ErrPayloadTooLarge   = fmt.Errorf("%w: payload frame too large", ErrDecode)
)

// DecodeReason maps a decode failure to a short stable label, used as
// a metrics dimension. Unknown errors map to "other".
func DecodeReason(err error) string {
	switch {
	case errors.Is(err, ErrFrameCount):
		return "frame_count"
	case errors.Is(err, ErrEmptyTopic), errors.Is(err, ErrTopicTooLong), errors.Is(err, ErrTopicNotPrintable):
		return "topic"
	case errors.Is(err, ErrSequenceLength):
		return "sequence_length"
	case errors.Is(err, ErrPayloadTooLarge):
		return "payload"
	default:
		return "other"
	}
}
