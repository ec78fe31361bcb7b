package game

// Clock is the simulation clock in seconds of game time. The cooldown
// system advances it once per tick; everything that schedules against
// game time reads it. Only the tick goroutine touches it.
type Clock struct {
	now float64
}

// NewClock returns a clock at time zero.
func NewClock() *Clock {
	return &Clock{}
}

// Advance moves the clock forward by dt seconds.
func (c *Clock) Advance(dt float64) {
	c.now += dt
}

// Now returns the current game time.
func (c *Clock) Now() float64 {
	return c.now
}
