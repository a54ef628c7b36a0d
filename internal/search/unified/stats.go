package unified

import (
	"fmt"

	"fofahack/internal/search/model"
)

// Stats are the running counters of one search run. The Client owns and
// mutates them; callers only ever see snapshots.
type Stats struct {
	RunID        string
	Attempts     int
	Successes    int
	Failures     int
	Bans         int
	Mode         model.AccessMode
	Proxy        string
	StoppedEarly bool
}

// SuccessRate returns the success percentage as a display string.
func (s Stats) SuccessRate() string {
	if s.Attempts == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Successes)/float64(s.Attempts)*100)
}

// Stats returns a snapshot of the current counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
