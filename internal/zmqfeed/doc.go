// Package zmqfeed provides the ZMQ subscriber transport for
// bitcoind-style notification endpoints.
package zmqfeed
