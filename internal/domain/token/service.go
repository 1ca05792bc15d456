package token

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/awardtoken/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/awardtoken/internal/providers/browser"
	"github.com/GriffinCanCode/awardtoken/internal/shared/id"
	"go.uber.org/zap"
)

// Browser step names, used for metrics and spans
const (
	StepLaunch         = "launch"
	StepSetCookies     = "set_cookies"
	StepNavigateHome   = "navigate_home"
	StepNavigateTarget = "navigate_target"
	StepEvaluate       = "evaluate"
	StepClose          = "close"
)

// MsgNoToken is reported when the page returned nothing usable
const MsgNoToken = "Failed to get token"

// Options controls how a run drives the browser
type Options struct {
	HomeURL         string
	Bin             string
	Headless        bool
	Stealth         bool
	ExtraFlags      []string
	HomeTimeout     time.Duration
	TargetTimeout   time.Duration
	EvaluateTimeout time.Duration
}

// Outcome is the result of a run that got as far as evaluating the script
type Outcome struct {
	Token    string
	Error    string
	Response json.RawMessage
}

// OK reports whether a token was obtained
func (o *Outcome) OK() bool {
	return o != nil && o.Token != ""
}

// Service runs one browser session per token request
type Service struct {
	engine  browser.Engine
	script  *Script
	opts    Options
	logger  *zap.Logger
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	tracer  *tracing.Tracer
}

// NewService creates a token service
func NewService(engine browser.Engine, script *Script, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine: engine,
		script: script,
		opts:   opts,
		logger: logger,
	}
}

// WithBreaker guards browser launches with b
func (s *Service) WithBreaker(b *resilience.Breaker) *Service {
	s.breaker = b
	return s
}

// WithMetrics records step and run metrics into m
func (s *Service) WithMetrics(m *monitoring.Metrics) *Service {
	s.metrics = m
	return s
}

// WithTracer opens a span per browser step
func (s *Service) WithTracer(t *tracing.Tracer) *Service {
	s.tracer = t
	return s
}

// LaunchOptions builds the browser launch options for proxy
func (s *Service) LaunchOptions(proxy *browser.Proxy) browser.LaunchOptions {
	flags := make([]string, 0, len(browser.DefaultFlags)+len(s.opts.ExtraFlags))
	flags = append(flags, browser.DefaultFlags...)
	flags = append(flags, s.opts.ExtraFlags...)

	return browser.LaunchOptions{
		Bin:      s.opts.Bin,
		Headless: s.opts.Headless,
		Flags:    flags,
		Proxy:    proxy,
		Stealth:  s.opts.Stealth,
	}
}

// Run launches a browser, primes it with the request cookies, visits the
// home page and the target page, then evaluates the token script. The
// browser is closed on every path. A returned error is fatal: the run
// never produced a script result.
func (s *Service) Run(ctx context.Context, req *Request, j *Journal) (*Outcome, error) {
	start := time.Now()
	logger := s.logger.With(zap.String("run_id", id.NewRunID().String()))

	opts := s.LaunchOptions(req.Proxy)
	if req.Proxy != nil {
		j.Addf("Using proxy: %s", req.ProxyDisplay)
	}

	j.Add("Launching browser...")
	var sess browser.Session
	err := s.step(ctx, StepLaunch, func(ctx context.Context) error {
		var err error
		sess, err = s.launch(ctx, opts)
		return err
	})
	if err != nil {
		return nil, s.fatal(j, start, err)
	}
	j.Add("Browser launched")
	logger.Debug("browser session bound to run", zap.String("session_id", sess.ID()))

	if s.metrics != nil {
		s.metrics.IncBrowsersActive()
	}
	closed := false
	closeBrowser := func() {
		if closed {
			return
		}
		closed = true
		if err := s.step(ctx, StepClose, func(context.Context) error { return sess.Close() }); err != nil {
			logger.Warn("browser close failed", zap.String("session_id", sess.ID()), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.DecBrowsersActive()
		}
	}
	defer closeBrowser()

	j.Addf("Setting %d cookies", len(req.Cookies))
	if err := s.step(ctx, StepSetCookies, func(ctx context.Context) error {
		return sess.SetCookies(ctx, req.Cookies)
	}); err != nil {
		return nil, s.fatal(j, start, err)
	}

	j.Addf("Navigating to %s", s.opts.HomeURL)
	if err := s.step(ctx, StepNavigateHome, func(ctx context.Context) error {
		return sess.Navigate(ctx, s.opts.HomeURL, s.opts.HomeTimeout)
	}); err != nil {
		return nil, s.fatal(j, start, err)
	}

	j.Addf("Navigating to %s", req.URL)
	if err := s.step(ctx, StepNavigateTarget, func(ctx context.Context) error {
		return sess.Navigate(ctx, req.URL, s.opts.TargetTimeout)
	}); err != nil {
		return nil, s.fatal(j, start, err)
	}

	j.Add("Executing page.evaluate...")
	var result *ScriptResult
	err = s.step(ctx, StepEvaluate, func(ctx context.Context) error {
		if s.opts.EvaluateTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.EvaluateTimeout)
			defer cancel()
		}
		raw, err := sess.Evaluate(ctx, s.script.Source(), s.script.Args(req.AwardID)...)
		if err != nil {
			return err
		}
		result, err = s.script.Decode(raw)
		return err
	})
	if err != nil {
		return nil, s.fatal(j, start, err)
	}

	if result != nil {
		for _, line := range result.Steps {
			j.Add("[Evaluate] " + line)
		}
	}

	closeBrowser()

	switch {
	case result != nil && result.Error != "":
		j.Add("Error from evaluate: " + result.Error)
		s.record(monitoring.OutcomeError, start)
		return &Outcome{Error: result.Error, Response: result.Response}, nil
	case result != nil && result.Token != "":
		j.Addf("Token obtained: %s...", truncate(result.Token, 50))
		s.record(monitoring.OutcomeToken, start)
		return &Outcome{Token: result.Token}, nil
	default:
		j.Add("No token returned")
		s.record(monitoring.OutcomeNoToken, start)
		return &Outcome{Error: MsgNoToken}, nil
	}
}

// launch starts a browser, through the breaker when one is configured
func (s *Service) launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	launch := func() (browser.Session, error) {
		return s.engine.Launch(ctx, opts)
	}
	if s.breaker == nil {
		return launch()
	}
	return resilience.Do(s.breaker, launch)
}

// step runs fn as a named browser step under a span and a timer
func (s *Service) step(ctx context.Context, name string, fn func(context.Context) error) error {
	var span *tracing.Span
	if s.tracer != nil {
		span, ctx = s.tracer.StartSpan(ctx, "browser."+name)
	}

	timer := monitoring.NewTimer(s.metrics, name)
	err := fn(ctx)
	timer.Stop(err)

	if span != nil {
		span.SetError(err)
		span.Finish()
		s.tracer.Submit(span)
	}
	return err
}

func (s *Service) fatal(j *Journal, start time.Time, err error) error {
	j.Add("Fatal error: " + err.Error())
	if resilience.IsRejection(err) {
		s.record(monitoring.OutcomeRejected, start)
	} else {
		s.record(monitoring.OutcomeFatal, start)
	}
	return err
}

func (s *Service) record(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordTokenRun(outcome, time.Since(start))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
