// Package notify owns the multipart notification codec.
//
// Ownership boundary:
// - raw multipart message shape and limits
// - classification into typed records
// - payload rendering helpers
//
// The package is pure: no sockets, no goroutines, no logging.
package notify
