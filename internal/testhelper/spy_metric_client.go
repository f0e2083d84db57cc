package testhelper

import (
	"sync"

	"code.cloudfoundry.org/go-loggregator/pulseemitter"
)

// SpyMetricClient records the counters created through it.
type SpyMetricClient struct {
	mu       sync.Mutex
	counters map[string]*SpyCounter
}

func NewMetricClient() *SpyMetricClient {
	return &SpyMetricClient{
		counters: make(map[string]*SpyCounter),
	}
}

func (s *SpyMetricClient) NewCounterMetric(name string, opts ...pulseemitter.MetricOption) pulseemitter.CounterMetric {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := &SpyCounter{}
	s.counters[name] = c

	return c
}

// Delta returns the total increments of the named counter, or 0 if it was
// never created.
func (s *SpyMetricClient) Delta(name string) uint64 {
	s.mu.Lock()
	c, ok := s.counters[name]
	s.mu.Unlock()

	if !ok {
		return 0
	}
	return c.Delta()
}

// Names returns the names of every counter created so far.
func (s *SpyMetricClient) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.counters))
	for n := range s.counters {
		names = append(names, n)
	}
	return names
}

type SpyCounter struct {
	mu    sync.Mutex
	delta uint64
}

func (s *SpyCounter) Increment(c uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delta += c
}

func (s *SpyCounter) Emit(c pulseemitter.LogClient) {}

func (s *SpyCounter) Delta() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delta
}
