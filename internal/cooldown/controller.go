// Package cooldown implements the post-stop recovery policy: after a
// stop-loss no session may open until enough natural streak resets occur.
package cooldown

// Transition reports what one observed event did to the controller.
type Transition int

// Transitions.
const (
	None  Transition = iota // nothing changed
	Reset                   // a reset was counted, still cooling down
	End                     // the required reset was counted, cooldown is over
)

// Controller tracks cooldown state. Not safe for concurrent use.
type Controller struct {
	required int
	active   bool
	resets   int
}

// NewController creates an inactive controller requiring the given number of resets.
func NewController(requiredResets int) *Controller {
	return &Controller{required: requiredResets}
}

// Engage starts a cooldown, discarding any resets from a previous one.
func (c *Controller) Engage() {
	c.active = true
	c.resets = 0
}

// Active reports whether entries are barred.
func (c *Controller) Active() bool {
	return c.active
}

// Resets returns resets observed during the current cooldown.
func (c *Controller) Resets() int {
	return c.resets
}

// Required returns the number of resets that ends a cooldown.
func (c *Controller) Required() int {
	return c.required
}

// Observe applies one event. Only counted repeats during an active cooldown
// have any effect.
func (c *Controller) Observe(countsTowardGap, isRepeat bool) Transition {
	if !c.active || !countsTowardGap || !isRepeat {
		return None
	}
	c.resets++
	if c.resets >= c.required {
		c.active = false
		return End
	}
	return Reset
}
