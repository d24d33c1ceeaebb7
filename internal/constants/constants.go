package constants

import "time"

// Session constants
const (
	SessionCookieName = "taskflow_session"
	ContextKeyUserID  = "user_id"
)

// Auth constants
const (
	MinPasswordLength = 8
)

// Pagination constants
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Task numbering constants
const (
	// DefaultLabelTemplate formats the sequence number into the default
	// display label, e.g. "T-6".
	DefaultLabelTemplate = "T-%d"

	// MaxCreateAttempts bounds the retry loop around the sequence
	// allocation transaction when a counter conflict is detected.
	MaxCreateAttempts = 3
)

// Notification constants
const (
	NotifyTimeout     = 3 * time.Second
	NotifyMaxAttempts = 3
)
