// Package storage owns the local offline database: a single SQLite file
// holding the roster snapshot and the pending scan queue.
//
// Open applies the connection pragmas and schema migrations; the roster and
// queue packages layer their stores on top of the returned handle. The
// database is a durability mechanism subordinate to the remote store, not an
// archive: the roster table is replaced wholesale on refresh and queue rows
// are deleted once the remote store confirms them.
package storage
