// Package dispatch owns the notification receive loop.
//
// One Dispatcher drives one Transport: receive a multipart message,
// classify it, check per-topic sequence continuity, hand the record to
// the consumer, repeat. Malformed messages are dropped and surfaced
// through a hook; transport failures end the loop and propagate.
package dispatch
