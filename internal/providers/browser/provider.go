package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSessionClosed is returned by operations on a closed session
var ErrSessionClosed = errors.New("browser session closed")

// Engine launches browser sessions
type Engine interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session is one launched browser with a single page
type Session interface {
	ID() string
	SetCookies(ctx context.Context, cookies []Cookie) error
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	Evaluate(ctx context.Context, script string, args ...interface{}) ([]byte, error)
	Close() error
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	URL      string  `json:"url,omitempty"`
	Expires  float64 `json:"expires,omitempty"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Proxy is an upstream proxy server with optional credentials
type Proxy struct {
	Server   string // scheme://host:port
	Username string
	Password string
}

// LaunchOptions configures one browser launch
type LaunchOptions struct {
	Bin      string
	Headless bool
	Flags    []string
	Proxy    *Proxy
	Stealth  bool
}

// Provider launches rod browsers and tracks the live ones
type Provider struct {
	logger     *zap.Logger
	idleWindow time.Duration
	sessions   *SessionManager
}

// SessionManager tracks live sessions by id
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// New creates a browser provider. idleWindow is how long the network must
// stay quiet before a navigation counts as settled.
func New(logger *zap.Logger, idleWindow time.Duration) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		logger:     logger,
		idleWindow: idleWindow,
		sessions: &SessionManager{
			sessions: make(map[string]Session),
		},
	}
}

// Active returns the number of live sessions
func (p *Provider) Active() int {
	p.sessions.mu.RLock()
	defer p.sessions.mu.RUnlock()
	return len(p.sessions.sessions)
}

// Shutdown closes every live session
func (p *Provider) Shutdown(ctx context.Context) error {
	p.sessions.mu.RLock()
	live := make([]Session, 0, len(p.sessions.sessions))
	for _, s := range p.sessions.sessions {
		live = append(live, s)
	}
	p.sessions.mu.RUnlock()

	var errs []error
	for _, s := range live {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *SessionManager) add(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
}

func (m *SessionManager) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}
