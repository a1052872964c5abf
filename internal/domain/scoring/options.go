package scoring

// DefaultTimeTolerance widens every interval by five minutes (in hours).
const DefaultTimeTolerance = 0.08333

// Option applies a scoring option.
type Option func(*options)

type options struct {
	tolerance    float64
	maeThreshold float64
	prefilter    bool
	skipUnpaired bool
}

func defaults() options {
	return options{tolerance: DefaultTimeTolerance}
}

// WithTimeTolerance sets the symmetric widening applied before binarization.
// A negative or NaN tolerance makes Score fail with model.ErrConfiguration.
func WithTimeTolerance(t float64) Option {
	return func(o *options) {
		o.tolerance = t
	}
}

// WithMAEThreshold enables the positional pre-filter: pairs at the same list
// position whose mean absolute boundary error exceeds threshold are removed
// from both lists before binarization.
func WithMAEThreshold(threshold float64) Option {
	return func(o *options) {
		o.maeThreshold = threshold
		o.prefilter = true
	}
}

// WithSkipUnpaired scores lists of different length without the pre-filter
// instead of failing. Detection output rarely pairs 1:1 with annotations.
func WithSkipUnpaired() Option {
	return func(o *options) {
		o.skipUnpaired = true
	}
}
