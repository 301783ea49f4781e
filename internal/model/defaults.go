package model

import "time"

// Shared defaults used by both the server and TUI binaries.
const (
	DefaultTickInterval    = 100 * time.Millisecond
	DefaultRefreshInterval = 100 * time.Millisecond
	DefaultStepUnit        = 1.0
	DefaultTotalUnits      = 300.0
	DefaultSpeed           = 1.0
	DefaultProfileSamples  = 1001
	DefaultQueryTimeout    = 30 * time.Second

	// MinSpeed replaces zero, negative or NaN speed multipliers.
	MinSpeed = 0.1
	MaxSpeed = 1000.0
)
