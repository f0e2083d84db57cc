package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	envstruct "code.cloudfoundry.org/go-envstruct"
	loggregator "code.cloudfoundry.org/go-loggregator"
	"code.cloudfoundry.org/go-loggregator/pulseemitter"
	"github.com/sirupsen/logrus"

	"code.cloudfoundry.org/pow-token-cli/internal/config"
	"code.cloudfoundry.org/pow-token-cli/internal/debuglog"
	"code.cloudfoundry.org/pow-token-cli/internal/pow"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code. Its deferred calls must finish before
// os.Exit.
func run(args []string, stdout io.Writer) int {
	log := log.New(os.Stderr, "[POW-Token] ", log.LstdFlags)

	opts, err := parseOptions(args)
	if err != nil {
		if isHelp(err) {
			fmt.Fprintln(stdout, err)
			return 0
		}
		log.Printf("%s", err)
		return 1
	}

	cfg := LoadConfig()
	envstruct.ReportWriter = os.Stderr
	envstruct.WriteReport(&cfg)

	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		log.Printf("invalid log level: %s", err)
		return 1
	}
	diag := logrus.New()
	diag.SetOutput(os.Stderr)
	diag.SetLevel(level)

	var (
		logOpts   []debuglog.Option
		fetchOpts []pow.FetcherOption
	)

	if cfg.LoggregatorAddr != "" {
		e := newEmitter(buildIngressClient(cfg, log), cfg.SourceID)
		defer e.close(log)

		logOpts = append(logOpts, debuglog.WithLogClient(e.client, cfg.SourceID, cfg.InstanceIndex))
		fetchOpts = append(fetchOpts, pow.WithMetrics(e.metrics))
	}

	var src config.Source = config.EnvSource{}
	if opts.ConfigPath != "" {
		src = config.NewFileSource(opts.ConfigPath)
	}

	fetcher := pow.NewTokenFetcher(
		src,
		debuglog.New(diag, logOpts...),
		fetchOpts...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, ok := fetcher.FetchToken(ctx)
	if !ok {
		log.Printf("no token obtained")
		return 1
	}

	if err := writeToken(stdout, t, opts.JSON); err != nil {
		log.Printf("failed to write token: %s", err)
		return 1
	}

	return 0
}

func writeToken(w io.Writer, t pow.Token, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, t.Value)
		return err
	}

	return json.NewEncoder(w).Encode(struct {
		Token     string `json:"token"`
		DeviceID  string `json:"device_id,omitempty"`
		UserAgent string `json:"user_agent,omitempty"`
	}{
		Token:     t.Value,
		DeviceID:  t.DeviceID,
		UserAgent: t.UserAgent,
	})
}

// buildIngressClient is replaced in tests.
var buildIngressClient = newIngressClient

func newIngressClient(cfg Config, log *log.Logger) ingressClient {
	tlsConfig, err := loggregator.NewIngressTLSConfig(
		cfg.LoggregatorCAPath,
		cfg.LoggregatorCertPath,
		cfg.LoggregatorKeyPath,
	)
	if err != nil {
		log.Fatalf("failed to load loggregator TLS config: %s", err)
	}

	client, err := loggregator.NewIngressClient(
		tlsConfig,
		loggregator.WithAddr(cfg.LoggregatorAddr),
		loggregator.WithLogger(log),
	)
	if err != nil {
		log.Fatalf("failed to create loggregator client: %s", err)
	}

	return client
}

// ingressClient is the part of loggregator.IngressClient the command
// forwards logs and counters through.
type ingressClient interface {
	EmitLog(message string, opts ...loggregator.EmitLogOption)
	EmitCounter(name string, opts ...loggregator.EmitCounterOption)
	EmitGauge(opts ...loggregator.EmitGaugeOption)
	CloseSend() error
}

// emitter owns the ingress client and the counters emitted through it.
type emitter struct {
	client  ingressClient
	metrics *flushingMetrics
}

func newEmitter(c ingressClient, sourceID string) *emitter {
	return &emitter{
		client:  c,
		metrics: newFlushingMetrics(c, sourceID),
	}
}

// close emits the pending counters and then drains the client. Envelopes
// are batched until CloseSend.
func (e *emitter) close(log *log.Logger) {
	e.metrics.flush()
	if err := e.client.CloseSend(); err != nil {
		log.Printf("failed to close loggregator client: %s", err)
	}
}

// flushingMetrics hands out pulseemitter counters and can emit all of them
// on demand, so a short-lived process does not lose its counts waiting for
// the next pulse.
type flushingMetrics struct {
	lc       pulseemitter.LogClient
	client   *pulseemitter.PulseEmitter
	counters []pulseemitter.CounterMetric
}

func newFlushingMetrics(lc pulseemitter.LogClient, sourceID string) *flushingMetrics {
	return &flushingMetrics{
		lc:     lc,
		client: pulseemitter.New(lc, pulseemitter.WithSourceID(sourceID)),
	}
}

func (m *flushingMetrics) NewCounterMetric(name string, opts ...pulseemitter.MetricOption) pulseemitter.CounterMetric {
	c := m.client.NewCounterMetric(name, opts...)
	m.counters = append(m.counters, c)
	return c
}

func (m *flushingMetrics) flush() {
	for _, c := range m.counters {
		c.Emit(m.lc)
	}
}
