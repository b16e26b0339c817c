// Package sms sends guardian notifications through the Semaphore SMS gateway.
//
// Messaging is strictly best-effort: a failed or skipped send never blocks
// scan capture or queue flushing. When messaging is not configured the
// service degrades to a noop.
package sms
