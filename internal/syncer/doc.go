// Package syncer reconciles local state with the attendance backend.
//
// The orchestrator owns the three recovery motions of the device: refreshing
// the roster snapshot, flushing queued scans in capture order, and the
// combined on-online pass that runs both. A single in-flight guard coalesces
// overlapping triggers from the timer, connectivity edges, and site changes.
package syncer
