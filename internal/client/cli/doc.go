// Package cli provides the interactive Veyra admin console.
//
// It wires configuration, the local SQLite store and a veyra.Client into a
// REPL. A token saved by a previous run for the same service URL is reused
// while it is valid; otherwise the console logs in with the configured or
// prompted credentials.
//
// Commands cover the whole client surface:
//   - login / logout / whoami / passwd
//   - users, user, adduser, setrole, deluser
//   - verify, verification (single or bulk), setverify, unverify, verifications
//   - analytics, activity
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
