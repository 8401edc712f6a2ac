package stepdetect

// Crossover latches whether the short average is above the long one and
// raises a candidate step on each below-to-above transition.
//
// The zero value is not ready for use; call NewCrossover so the latch starts
// above and the first sample cannot produce a step.
type Crossover struct {
	above     bool
	candidate bool
}

// NewCrossover returns a crossover latch in the above state.
func NewCrossover() Crossover {
	return Crossover{above: true}
}

// Update feeds one pair of averages and reports whether a rising edge
// occurred. Equal averages count as below.
func (c *Crossover) Update(short, long float64) bool {
	above := short > long
	c.candidate = above && !c.above
	c.above = above
	return c.candidate
}

// Above reports the current latch state.
func (c *Crossover) Above() bool {
	return c.above
}

// Candidate reports the decision from the last Update.
func (c *Crossover) Candidate() bool {
	return c.candidate
}
