//go:build race

package driver

// RaceEnabled is true when the race detector is active. Tests that drive the
// shared set from several workers skip under the detector: those races are
// the intended output of this tool, not incidental bugs.
const RaceEnabled = true
