package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFlag(t *testing.T) {
	tests := []struct {
		raw    string
		name   flags.Flag
		value  string
		hasVal bool
	}{
		{"--no-sandbox", "no-sandbox", "", false},
		{"--disable-features=HttpsFirstBalancedModeAutoEnable", "disable-features", "HttpsFirstBalancedModeAutoEnable", true},
		{"  --lang=en-US ", "lang", "en-US", true},
		{"window-size=1280,800", "window-size", "1280,800", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, value, hasVal := splitFlag(tt.raw)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
			assert.Equal(t, tt.hasVal, hasVal)
		})
	}
}

func TestNewLauncher(t *testing.T) {
	opts := LaunchOptions{
		Headless: true,
		Flags:    append(append([]string{}, DefaultFlags...), "--lang=en-US", ""),
		Proxy:    &Proxy{Server: "http://10.0.0.1:8080", Username: "u", Password: "p"},
	}

	l := newLauncher(opts)

	assert.True(t, l.Has("headless"))
	assert.True(t, l.Has("no-sandbox"))
	assert.True(t, l.Has("disable-gpu"))
	assert.Equal(t, "HttpsFirstBalancedModeAutoEnable", l.Get("disable-features"))
	assert.Equal(t, "en-US", l.Get("lang"))
	assert.Equal(t, "http://10.0.0.1:8080", l.Get(flags.ProxyServer))
}

func TestNewLauncherHeaded(t *testing.T) {
	l := newLauncher(LaunchOptions{Headless: false, Bin: "/usr/bin/chromium"})

	assert.False(t, l.Has("headless"))
	assert.False(t, l.Has(flags.ProxyServer))
	assert.Equal(t, "/usr/bin/chromium", l.Get(flags.Bin))
}

func TestSameSite(t *testing.T) {
	assert.Equal(t, proto.NetworkCookieSameSiteLax, sameSite("lax"))
	assert.Equal(t, proto.NetworkCookieSameSiteStrict, sameSite("Strict"))
	assert.Equal(t, proto.NetworkCookieSameSiteNone, sameSite("no_restriction"))
	assert.Equal(t, proto.NetworkCookieSameSite(""), sameSite("unspecified"))
}

type stubSession struct {
	id     string
	closed int
	err    error
}

func (s *stubSession) ID() string {
	return s.id
}

func (s *stubSession) SetCookies(context.Context, []Cookie) error {
	return nil
}

func (s *stubSession) Navigate(context.Context, string, time.Duration) error {
	return nil
}

func (s *stubSession) Evaluate(context.Context, string, ...interface{}) ([]byte, error) {
	return nil, nil
}

func (s *stubSession) Close() error {
	s.closed++
	return s.err
}

func TestProviderShutdown(t *testing.T) {
	p := New(nil, 500*time.Millisecond)

	ok := &stubSession{id: "a"}
	failing := &stubSession{id: "b", err: errors.New("already gone")}
	p.sessions.add(ok)
	p.sessions.add(failing)
	require.Equal(t, 2, p.Active())

	err := p.Shutdown(context.Background())
	assert.ErrorContains(t, err, "already gone")
	assert.Equal(t, 1, ok.closed)
	assert.Equal(t, 1, failing.closed)

	p.sessions.remove("a")
	p.sessions.remove("b")
	assert.Equal(t, 0, p.Active())
}

func TestIdleExcludesStreamingRequests(t *testing.T) {
	assert.ElementsMatch(t, []proto.NetworkResourceType{
		proto.NetworkResourceTypeEventSource,
		proto.NetworkResourceTypeWebSocket,
		proto.NetworkResourceTypeMedia,
	}, idleExcludedTypes)
	assert.NotContains(t, idleExcludedTypes, proto.NetworkResourceTypeDocument)
	assert.NotContains(t, idleExcludedTypes, proto.NetworkResourceTypeFetch)
}
