//go:build devunlock

package vault

// Built only with -tags devunlock, for local development.
const bypassEnabled = true
