package notify

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode selects how a payload is rendered for display.
type Mode int

const (
	// ModeHex renders the payload as lowercase hex, byte order as on
	// the wire.
	ModeHex Mode = iota
	// ModeRaw passes the payload bytes through unchanged.
	ModeRaw
	// ModeUTF8 renders printable UTF-8 payloads as text and falls back
	// to hex for everything else.
	ModeUTF8
)

func (m Mode) String() string {
	switch m {
	case ModeHex:
		return "hex"
	case ModeRaw:
		return "raw"
	case ModeUTF8:
		return "utf8"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex", "":
		return ModeHex, nil
	case "raw":
		return ModeRaw, nil
	case "utf8":
		return ModeUTF8, nil
	default:
		return ModeHex, fmt.Errorf("notify: unknown render mode %q", s)
	}
}

// RenderPayload produces the display form of a record's payload. It is
// pure: the record is never mutated and any byte sequence is
// representable in every mode.
func RenderPayload(rec Record, mode Mode) string {
	switch mode {
	case ModeRaw:
		return string(rec.Payload)
	case ModeUTF8:
		if printableText(rec.Payload) {
			return string(rec.Payload)
		}
		return hex.EncodeToString(rec.Payload)
	default:
		return hex.EncodeToString(rec.Payload)
	}
}

// RenderHash renders a hash payload in display order. bitcoind
// publishes hashes in internal (reversed) byte order; block explorers
// and RPC display the reverse.
func RenderHash(rec Record) string {
	n := len(rec.Payload)
	reversed := make([]byte, n)
	for i, b := range rec.Payload {
		reversed[n-1-i] = b
	}
	return hex.EncodeToString(reversed)
}

// HashTopic reports whether a topic's payload is a fixed 32-byte hash.
func HashTopic(topic string) bool {
	return topic == TopicHashTx || topic == TopicHashBlock
}

func printableText(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			continue
		}
		return false
	}
	return true
}
