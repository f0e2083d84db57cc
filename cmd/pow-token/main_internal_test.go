package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"sync"

	loggregator "code.cloudfoundry.org/go-loggregator"
	v2 "code.cloudfoundry.org/go-loggregator/rpc/loggregator_v2"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("emitter", func() {
	var spy *spyIngressClient

	BeforeEach(func() {
		spy = newSpyIngressClient()
	})

	It("emits counters with the configured source id before closing", func() {
		e := newEmitter(spy, "pow-source")
		e.metrics.NewCounterMetric("pow_token_requests").Increment(1)

		e.close(log.New(GinkgoWriter, "", 0))

		Expect(spy.events()).To(Equal([]string{
			"counter pow_token_requests source=pow-source delta=1",
			"close",
		}))
	})

	It("closes an unused client", func() {
		e := newEmitter(spy, "pow-source")

		e.close(log.New(GinkgoWriter, "", 0))

		Expect(spy.events()).To(Equal([]string{"close"}))
	})
})

var _ = Describe("run", func() {
	var (
		spy      *spyIngressClient
		original func(Config, *log.Logger) ingressClient
	)

	BeforeEach(func() {
		spy = newSpyIngressClient()
		original = buildIngressClient
		buildIngressClient = func(Config, *log.Logger) ingressClient {
			return spy
		}

		for _, name := range commandEnv {
			os.Unsetenv(name)
		}
		os.Setenv("LOGGREGATOR_ADDR", "localhost:3458")
		os.Setenv("SOURCE_ID", "pow-source")
	})

	AfterEach(func() {
		buildIngressClient = original
		for _, name := range commandEnv {
			os.Unsetenv(name)
		}
	})

	It("drains the ingress client when no token is obtained", func() {
		code := run(nil, ioutil.Discard)

		Expect(code).To(Equal(1))

		events := spy.events()
		Expect(events).To(ContainElement(
			"log ERROR: POW service not configured: missing server_url or api_key source=pow-source",
		))
		Expect(events).To(ContainElement("counter pow_token_requests source=pow-source delta=1"))
		Expect(events).To(ContainElement("counter pow_token_failures_ConfigMissing source=pow-source delta=1"))
		Expect(events[len(events)-1]).To(Equal("close"))
		Expect(spy.closes()).To(Equal(1))
	})

	It("returns zero for help", func() {
		var out bytes.Buffer

		Expect(run([]string{"--help"}, &out)).To(Equal(0))
		Expect(out.String()).To(ContainSubstring("--config"))
		Expect(spy.events()).To(BeEmpty())
	})
})

var commandEnv = []string{
	"LOGGREGATOR_ADDR",
	"SOURCE_ID",
	"INSTANCE_INDEX",
	"POW_SERVICE_SERVER_URL",
	"POW_SERVICE_API_KEY",
	"POW_SERVICE_PROXY_ENABLED",
	"POW_SERVICE_PROXY_URL",
}

type spyIngressClient struct {
	mu      sync.Mutex
	_events []string
	_closes int
}

func newSpyIngressClient() *spyIngressClient {
	return &spyIngressClient{}
}

func (s *spyIngressClient) EmitLog(message string, opts ...loggregator.EmitLogOption) {
	env := &v2.Envelope{
		Tags: make(map[string]string),
	}
	for _, o := range opts {
		o(env)
	}

	s.record(fmt.Sprintf("log %s source=%s", message, env.SourceId))
}

func (s *spyIngressClient) EmitCounter(name string, opts ...loggregator.EmitCounterOption) {
	env := &v2.Envelope{
		Tags: make(map[string]string),
		Message: &v2.Envelope_Counter{
			Counter: &v2.Counter{Name: name},
		},
	}
	for _, o := range opts {
		o(env)
	}

	s.record(fmt.Sprintf("counter %s source=%s delta=%d", name, env.SourceId, env.GetCounter().GetDelta()))
}

func (s *spyIngressClient) EmitGauge(opts ...loggregator.EmitGaugeOption) {}

func (s *spyIngressClient) CloseSend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s._closes++
	s._events = append(s._events, "close")
	return nil
}

func (s *spyIngressClient) record(e string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s._events = append(s._events, e)
}

func (s *spyIngressClient) events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s._events...)
}

func (s *spyIngressClient) closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s._closes
}
