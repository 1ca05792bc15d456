package cookiestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/GriffinCanCode/awardtoken/internal/providers/browser"
	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register every supported browser store
	"go.uber.org/zap"
)

// ErrNoCookies is returned when no browser holds cookies for the domain
var ErrNoCookies = errors.New("no browser cookies found")

// ReadFunc reads cookies from local browser stores
type ReadFunc func(ctx context.Context, filters ...kooky.Filter) (kooky.Cookies, error)

// Store reads session cookies for a site out of locally installed browsers
type Store struct {
	read   ReadFunc
	logger *zap.Logger
}

// New creates a store backed by kooky's browser auto-detection
func New(logger *zap.Logger) *Store {
	return NewWithReader(kooky.ReadCookies, logger)
}

// NewWithReader creates a store with a custom reader
func NewWithReader(read ReadFunc, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{read: read, logger: logger}
}

// Cookies returns the unexpired cookies whose domain ends in domain.
// When several browsers hold the same cookie the one expiring last wins.
func (s *Store) Cookies(ctx context.Context, domain string) ([]browser.Cookie, error) {
	domain = strings.TrimPrefix(domain, ".")
	if domain == "" {
		return nil, errors.New("domain is required")
	}

	s.logger.Debug("reading browser cookies", zap.String("domain", domain))

	found, err := s.read(ctx, kooky.Valid, kooky.DomainHasSuffix(domain))
	// kooky reports per-store failures alongside whatever it could read
	if err != nil && len(found) == 0 {
		return nil, fmt.Errorf("read browser cookies: %w", err)
	}
	if err != nil {
		s.logger.Debug("some cookie stores failed", zap.Error(err))
	}

	cookies := Convert(found)
	if len(cookies) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoCookies, domain)
	}

	s.logger.Debug("browser cookies found",
		zap.String("domain", domain),
		zap.Int("count", len(cookies)),
	)
	return cookies, nil
}

// Convert maps kooky cookies onto browser cookies, dropping empty ones and
// keeping the longest lived copy of each name, domain and path.
func Convert(in []*kooky.Cookie) []browser.Cookie {
	type key struct{ name, domain, path string }

	best := make(map[key]*kooky.Cookie, len(in))
	for _, c := range in {
		if c == nil || c.Name == "" || c.Value == "" {
			continue
		}
		k := key{c.Name, c.Domain, c.Path}
		if prev, ok := best[k]; !ok || c.Expires.After(prev.Expires) {
			best[k] = c
		}
	}

	out := make([]browser.Cookie, 0, len(best))
	for _, c := range best {
		bc := browser.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
			SameSite: sameSite(c.SameSite),
		}
		if bc.Path == "" {
			bc.Path = "/"
		}
		if !c.Expires.IsZero() {
			bc.Expires = float64(c.Expires.Unix())
		}
		out = append(out, bc)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

func sameSite(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return ""
	}
}
