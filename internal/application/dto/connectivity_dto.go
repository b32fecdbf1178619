package dto

import "time"

// ConnectivityResponse estado del backend visto por el terminal.
type ConnectivityResponse struct {
	Online              bool       `json:"online"`
	LastCheck           *time.Time `json:"last_check,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Monitoring          bool       `json:"monitoring"`
}
