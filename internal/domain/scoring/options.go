package scoring

// Option applies a configuration option to the WeightedScorer.
type Option func(*WeightedScorer)

// WithWeights replaces the formula coefficients. Validation happens at
// configuration load time.
func WithWeights(w Weights) Option {
	return func(s *WeightedScorer) {
		s.weights = w
	}
}

// WithThresholds replaces the tier boundaries when they are strictly
// ordered A > B > C; otherwise the defaults stay.
func WithThresholds(t Thresholds) Option {
	return func(s *WeightedScorer) {
		if t.A > t.B && t.B > t.C {
			s.thresholds = t
		}
	}
}
