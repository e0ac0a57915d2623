package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	FeedsDir          string
	SlackWebhookURL   string
	Watch             bool
	SchedulerInterval int
	Port              string
	APIAccessKey      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

// Interval returns the watch-mode period between runs.
func (c *Cfg) Interval() time.Duration {
	return time.Duration(c.SchedulerInterval) * time.Second
}
