// Package roster caches the site directory locally so badge lookups keep
// working while offline.
//
// The cache is a full snapshot keyed by badge identifier: every successful
// refresh replaces the entire set in one transaction, so readers observe
// either the old snapshot or the new one, never a mix. A failed refresh
// leaves the previous snapshot intact.
package roster
