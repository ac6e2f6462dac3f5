// Package core provides depot, an embeddable, crash-tolerant,
// append-only record queue backed by the local filesystem.
//
// A Queue is a single-writer, multi-reader log. Producers Append opaque
// byte records; consumers open a Streamer with Stream and pull records
// back in write order, optionally resuming from a token returned by a
// prior item. The queue grows across an unbounded series of fixed
// capacity files ("sections") arranged in a directory tree addressed by
// Component.
package core
