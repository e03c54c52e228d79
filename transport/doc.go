// Package transport implements a simulated transport layer for a prompting
// network. It stands in for the component that sends one request to many
// remote nodes and collects their responses, without performing any real
// network I/O: unary calls resolve from a random process-time draw, and
// streaming calls echo the prompt back in timed token batches.
//
// Only timing, chunking and status-code semantics are simulated. Timeouts
// are normal terminal outcomes (408 records), never errors, and a dispatch
// always produces exactly one result per target, ordered by target index.
package transport
