package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/awardtoken/internal/providers/browser"
	"github.com/GriffinCanCode/awardtoken/internal/providers/browser/sandbox"
)

// Upstream answers fetch() calls made by a script under test
type Upstream func(req sandbox.FetchRequest) (sandbox.FetchResponse, error)

// SandboxSession is a browser.Session whose Evaluate runs in a goja
// sandbox against a scripted upstream
type SandboxSession struct {
	upstream Upstream

	mu       sync.Mutex
	Cookies  []browser.Cookie
	Visited  []string
	Requests []sandbox.FetchRequest
	Closed   int
}

// NewSandboxSession creates a session answering fetch() through upstream
func NewSandboxSession(upstream Upstream) *SandboxSession {
	return &SandboxSession{upstream: upstream}
}

func (s *SandboxSession) ID() string {
	return "sandbox-session"
}

func (s *SandboxSession) SetCookies(_ context.Context, cookies []browser.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cookies = append(s.Cookies, cookies...)
	return nil
}

func (s *SandboxSession) Navigate(_ context.Context, url string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Visited = append(s.Visited, url)
	return nil
}

func (s *SandboxSession) Evaluate(ctx context.Context, script string, args ...interface{}) ([]byte, error) {
	cfg := sandbox.DefaultConfig()
	cfg.Fetch = func(_ context.Context, req sandbox.FetchRequest) (sandbox.FetchResponse, error) {
		s.mu.Lock()
		s.Requests = append(s.Requests, req)
		s.mu.Unlock()
		return s.upstream(req)
	}

	rt, err := sandbox.New(cfg)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	return rt.Evaluate(ctx, script, args...)
}

func (s *SandboxSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

// JSONResponse is a 200 upstream reply with body
func JSONResponse(body string) (sandbox.FetchResponse, error) {
	return sandbox.FetchResponse{Status: 200, Body: body}, nil
}
