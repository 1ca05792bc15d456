// Package testutil holds shared test doubles.
package testutil

import (
	"context"
	"time"

	"github.com/GriffinCanCode/awardtoken/internal/providers/browser"
	"github.com/stretchr/testify/mock"
)

// MockEngine is a testify mock of browser.Engine
type MockEngine struct {
	mock.Mock
}

// Launch records the call and returns the configured session
func (m *MockEngine) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Session, error) {
	args := m.Called(ctx, opts)
	if s, ok := args.Get(0).(browser.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSession is a testify mock of browser.Session
type MockSession struct {
	mock.Mock
}

func (m *MockSession) ID() string {
	return "session-test"
}

func (m *MockSession) SetCookies(ctx context.Context, cookies []browser.Cookie) error {
	return m.Called(ctx, cookies).Error(0)
}

func (m *MockSession) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return m.Called(ctx, url, timeout).Error(0)
}

func (m *MockSession) Evaluate(ctx context.Context, script string, args ...interface{}) ([]byte, error) {
	ret := m.Called(ctx, script, args)
	raw, _ := ret.Get(0).([]byte)
	return raw, ret.Error(1)
}

func (m *MockSession) Close() error {
	return m.Called().Error(0)
}
