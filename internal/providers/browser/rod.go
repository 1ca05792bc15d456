package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Launch starts a browser process, connects to it and opens a blank page
func (p *Provider) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	l := newLauncher(opts).Context(ctx)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	s := &rodSession{
		id:         uuid.New().String(),
		browser:    b,
		launcher:   l,
		idleWindow: p.idleWindow,
		logger:     p.logger,
		onClose:    p.sessions.remove,
	}

	if opts.Proxy != nil && opts.Proxy.Username != "" {
		stop, err := handleProxyAuth(b, opts.Proxy.Username, opts.Proxy.Password)
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("proxy auth: %w", err)
		}
		s.stopAuth = stop
	}

	if opts.Stealth {
		s.page, err = stealth.Page(b)
	} else {
		s.page, err = b.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}

	p.sessions.add(s)
	p.logger.Debug("browser session started",
		zap.String("session_id", s.id),
		zap.Bool("headless", opts.Headless),
		zap.Bool("stealth", opts.Stealth),
		zap.Int("pid", l.PID()),
	)

	return s, nil
}

// idleExcludedTypes are long-lived requests that never settle and so do not
// hold back network idle
var idleExcludedTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeEventSource,
	proto.NetworkResourceTypeWebSocket,
	proto.NetworkResourceTypeMedia,
}

// rodSession implements Session on a rod browser
type rodSession struct {
	id         string
	browser    *rod.Browser
	launcher   *launcher.Launcher
	page       *rod.Page
	idleWindow time.Duration
	logger     *zap.Logger

	stopAuth func()
	onClose  func(id string)

	closeOnce sync.Once
	closeErr  error
	closed    bool
	mu        sync.RWMutex
}

func (s *rodSession) ID() string {
	return s.id
}

// SetCookies installs cookies before any navigation
func (s *rodSession) SetCookies(ctx context.Context, cookies []Cookie) error {
	page, err := s.pageFor(ctx)
	if err != nil {
		return err
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			URL:      c.URL,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: sameSite(c.SameSite),
			Expires:  proto.TimeSinceEpoch(c.Expires),
		})
	}
	if len(params) == 0 {
		return nil
	}

	if err := page.SetCookies(params); err != nil {
		return fmt.Errorf("set cookies: %w", err)
	}
	return nil
}

// Navigate loads url and waits until the network has been idle for the
// configured window, failing when timeout elapses first.
func (s *rodSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := s.pageFor(ctx)
	if err != nil {
		return err
	}

	wait := page.WaitRequestIdle(s.idleWindow, nil, nil, idleExcludedTypes)
	if err := page.Navigate(url); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("navigation timeout of %d ms exceeded", timeout.Milliseconds())
		}
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	wait()

	// WaitRequestIdle returns quietly when its context ends
	if ctx.Err() != nil {
		return fmt.Errorf("navigation timeout of %d ms exceeded", timeout.Milliseconds())
	}
	return nil
}

// Evaluate runs a function expression in the page, awaiting a returned
// promise, and returns the value as JSON
func (s *rodSession) Evaluate(ctx context.Context, script string, args ...interface{}) ([]byte, error) {
	page, err := s.pageFor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := page.Evaluate(rod.Eval(script, args...).ByPromise())
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	return res.Value.MarshalJSON()
}

// Close closes the browser, kills the process and removes its profile dir.
// It is safe to call more than once.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if s.stopAuth != nil {
			s.stopAuth()
		}
		s.closeErr = s.browser.Close()
		s.launcher.Kill()
		s.launcher.Cleanup()

		if s.onClose != nil {
			s.onClose(s.id)
		}
		s.logger.Debug("browser session closed", zap.String("session_id", s.id))
	})
	return s.closeErr
}

func (s *rodSession) pageFor(ctx context.Context) (*rod.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed || s.page == nil {
		return nil, ErrSessionClosed
	}
	return s.page.Context(ctx), nil
}

// sameSite maps loose casing onto the CDP enum
func sameSite(v string) proto.NetworkCookieSameSite {
	switch strings.ToLower(v) {
	case "strict":
		return proto.NetworkCookieSameSiteStrict
	case "lax":
		return proto.NetworkCookieSameSiteLax
	case "none", "no_restriction":
		return proto.NetworkCookieSameSiteNone
	default:
		return ""
	}
}

// handleProxyAuth answers every proxy auth challenge with the given
// credentials until stop is called. Intercepted requests are let through.
func handleProxyAuth(b *rod.Browser, username, password string) (stop func(), err error) {
	if err := (proto.FetchEnable{HandleAuthRequests: true}).Call(b); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	wait := b.Context(ctx).EachEvent(
		func(e *proto.FetchRequestPaused) {
			_ = proto.FetchContinueRequest{RequestID: e.RequestID}.Call(b)
		},
		func(e *proto.FetchAuthRequired) {
			_ = proto.FetchContinueWithAuth{
				RequestID: e.RequestID,
				AuthChallengeResponse: &proto.FetchAuthChallengeResponse{
					Response: proto.FetchAuthChallengeResponseResponseProvideCredentials,
					Username: username,
					Password: password,
				},
			}.Call(b)
		},
	)
	go wait()

	return cancel, nil
}
