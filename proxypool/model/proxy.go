package model

import "time"

// State is the validation state of a pool entry.
type State string

const (
	StateUnvalidated State = "unvalidated"
	StateValid       State = "valid"
	StateFailed      State = "failed"
)

// Entry is one candidate proxy endpoint. Created by collection, mutated
// by validation, removed from the pool after repeated failure.
type Entry struct {
	// URL is the full proxy address ("http://ip:port" or
	// "socks5://ip:port") and doubles as the entry's identity.
	URL string `json:"url"`

	Source string `json:"source"` // which list the entry came from
	State  State  `json:"state"`

	Latency      time.Duration `json:"latency"` // 0 means untested or failed
	LastChecked  time.Time     `json:"last_checked"`
	FailureCount int           `json:"failure_count"` // consecutive failures
	SuccessCount int           `json:"success_count"` // consecutive successes
}

// Usable reports whether the entry may be handed to a search client.
func (e *Entry) Usable() bool {
	return e.State == StateValid
}
