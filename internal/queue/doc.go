// Package queue persists badge scans captured while offline until the remote
// store confirms them.
//
// Each event carries the exact instant of the scan and a synced marker. Rows
// are deleted only after confirmed remote application, so a crashed or failed
// flush leaves them in place for the next cycle. MarkSynced and Delete are
// idempotent: acting on an absent id is a no-op.
package queue
