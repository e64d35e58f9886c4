//go:build !race

package driver

// RaceEnabled is false when the race detector is not active.
const RaceEnabled = false
