package model

import "time"

// ConnState is the storage connectivity as seen by the event sink.
type ConnState string

const (
	ConnStateConnected ConnState = "connected"
	ConnStateDegraded  ConnState = "degraded"
)

// DatabaseLabel is the wording used by the status endpoint.
func (s ConnState) DatabaseLabel() string {
	if s == ConnStateConnected {
		return "connected"
	}
	return "disconnected"
}

// Welcome is sent once to every live feed subscriber right after it connects.
type Welcome struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
