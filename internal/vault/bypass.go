//go:build !devunlock

package vault

// Release builds carry no bypass path at all; the constant folds the entire
// branch out of the binary.
const bypassEnabled = false
