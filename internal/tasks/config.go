package tasks

import "time"

// Config sizes the queue. Zero fields take the DefaultConfig value.
type Config struct {
	Workers         int
	ReleaseAfter    time.Duration // a claimed task that has not finished by then is handed out again
	CleanupInterval time.Duration // how often backlite purges finished tasks
}

func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}
