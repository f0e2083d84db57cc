package pow

import "code.cloudfoundry.org/go-loggregator/pulseemitter"

// MetricClient creates counter metrics.
type MetricClient interface {
	NewCounterMetric(name string, opts ...pulseemitter.MetricOption) pulseemitter.CounterMetric
}

const (
	attemptsMetric = "pow_token_requests"
	successMetric  = "pow_token_successes"
)

// FailureMetricName returns the name of the counter incremented for the
// given failure kind.
func FailureMetricName(k FailureKind) string {
	return "pow_token_failures_" + string(k)
}

type counters struct {
	attempts  func()
	successes func()
	failures  map[FailureKind]func()
}

func nopCounters() counters {
	nop := func() {}
	c := counters{
		attempts:  nop,
		successes: nop,
		failures:  make(map[FailureKind]func()),
	}
	for _, k := range failureKinds {
		c.failures[k] = nop
	}

	return c
}

func newCounters(m MetricClient) counters {
	inc := func(name string) func() {
		counter := m.NewCounterMetric(name)
		return func() { counter.Increment(1) }
	}

	c := counters{
		attempts:  inc(attemptsMetric),
		successes: inc(successMetric),
		failures:  make(map[FailureKind]func()),
	}
	for _, k := range failureKinds {
		c.failures[k] = inc(FailureMetricName(k))
	}

	return c
}
