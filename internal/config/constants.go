package config

import "time"

// System constants. These encode domain rules rather than deployment choices
// and are therefore not configurable.
const (
	// RefreshInterval is how often the periodic reconciliation runs.
	RefreshInterval = 24 * time.Hour

	// LockDeadline bounds how long one operation may hold the position lock
	// before a newcomer is allowed to steal it.
	LockDeadline = 45 * time.Minute

	// ApproveExpiry bounds how long a granted allowance stays valid.
	ApproveExpiry = time.Hour

	// LPFeeBPS is the pool fee, in basis points, requested on pool creation.
	LPFeeBPS = 30
)
