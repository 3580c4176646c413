package player

// ClockStatus returns the status the clock would report after its last
// Process call. It must not run concurrently with Process.
func ClockStatus(c *Clock) Status {
	c.updateStatus()
	return c.status
}
