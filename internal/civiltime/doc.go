// Package civiltime normalizes heterogeneous timestamp representations into
// absolute instants and projects instants into the site's fixed civil zone
// (UTC+8) for display and day-boundary computation.
//
// The remote store returns Postgres-flavored timestamps: offsets may appear as
// a bare "+00", the date/time separator may be a space, and some values carry
// no offset at all. Naive values are treated as UTC by convention; see
// ParseInstant. The civil zone is a fixed offset with no daylight saving, so
// all projection works without a timezone database.
package civiltime
