// Package daemon wires the stores, backend client, and sync loop into a
// single-instance background process.
package daemon
