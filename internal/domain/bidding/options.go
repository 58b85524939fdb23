package bidding

// Defaults.
const (
	DefaultValuePerPoint   = 10.0
	DefaultSeasonFinalWeek = 17
)

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithValuePerPoint sets the FAAB value of one point of composite score.
func WithValuePerPoint(v float64) Option {
	return func(c *Calculator) {
		if v > 0 {
			c.valuePerPoint = v
		}
	}
}

// WithSeasonFinalWeek sets the last fantasy week used for weeks remaining.
func WithSeasonFinalWeek(w int) Option {
	return func(c *Calculator) {
		if w > 0 {
			c.seasonFinalWeek = w
		}
	}
}
