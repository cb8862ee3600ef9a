// Package app wires the application together: configuration, logging,
// telemetry, the SQLite store, the domain services, the chi router, and
// the HTTP server lifecycle. The server binds to loopback only; it is
// meant to be spawned and supervised by the desktop shell.
package app
