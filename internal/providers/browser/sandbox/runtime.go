package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
)

var (
	// ErrPending is returned when a script's promise never settles
	ErrPending = errors.New("promise still pending after run")

	// ErrClosed is returned by a runtime after Close
	ErrClosed = errors.New("sandbox runtime is closed")
)

// Runtime wraps a goja VM with a page-like global scope
type Runtime struct {
	vm     *goja.Runtime
	config Config
	mu     sync.Mutex

	// ctx of the call in flight, read by the fetch bridge
	ctx context.Context

	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	r := &Runtime{config: config}
	if err := r.reset(); err != nil {
		return nil, err
	}
	return r, nil
}

// Compile checks that src parses as a script
func Compile(name, src string) error {
	_, err := goja.Compile(name, src, true)
	return err
}

// Execute runs script and returns its completion value
func (r *Runtime) Execute(ctx context.Context, script string) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, ErrClosed
	}

	start := time.Now()
	val, err := r.run(ctx, script)
	if err != nil {
		return nil, err
	}

	return &Result{
		Value:    exportValue(val),
		Console:  r.drainConsole(),
		Duration: time.Since(start),
	}, nil
}

// Evaluate calls fn, a function expression, with JSON-encoded args, awaits
// the returned promise and returns the settled value as JSON.
func (r *Runtime) Evaluate(ctx context.Context, fn string, args ...interface{}) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, ErrClosed
	}
	if args == nil {
		args = []interface{}{}
	}

	encoded, err := sonic.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}

	val, err := r.run(ctx, fmt.Sprintf("(%s).apply(null, %s)", fn, encoded))
	if err != nil {
		return nil, err
	}

	if p, ok := val.Export().(*goja.Promise); ok {
		switch p.State() {
		case goja.PromiseStateFulfilled:
			val = p.Result()
		case goja.PromiseStateRejected:
			return nil, fmt.Errorf("promise rejected: %s", p.Result().String())
		default:
			return nil, ErrPending
		}
	}

	stringify, ok := goja.AssertFunction(r.vm.Get("JSON").ToObject(r.vm).Get("stringify"))
	if !ok {
		return nil, errors.New("JSON.stringify unavailable")
	}
	out, err := stringify(goja.Undefined(), val)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if out == nil || goja.IsUndefined(out) {
		return []byte("null"), nil
	}
	return []byte(out.String()), nil
}

// Console returns console output captured since the last call
func (r *Runtime) Console() []LogEntry {
	return r.drainConsole()
}

// run executes src under the configured timeout. Pending promise jobs are
// drained before RunString returns.
func (r *Runtime) run(ctx context.Context, src string) (goja.Value, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}
	r.ctx = ctx

	stop := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			r.vm.Interrupt("execution interrupted: " + ctx.Err().Error())
		case <-stop:
		}
	}()

	val, err := r.vm.RunString(src)
	close(stop)
	<-exited
	r.vm.ClearInterrupt()
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%w: %s", ctx.Err(), interrupted.Error())
		}
		return nil, err
	}
	return val, nil
}

func (r *Runtime) reset() error {
	vm := goja.New()
	if r.config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}
	r.vm = vm
	r.console = nil
	return r.setupGlobals()
}

// setupGlobals configures global objects
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := r.vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error"} {
			if err := console.Set(level, r.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		if err := r.vm.Set("console", console); err != nil {
			return err
		}
	}

	if r.config.Fetch != nil {
		if err := r.vm.Set("fetch", r.fetch); err != nil {
			return err
		}
	}

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	if err := r.vm.Set("setTimeout", noop); err != nil {
		return err
	}
	return r.vm.Set("setInterval", noop)
}

// makeConsoleFunc creates a console function
func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()

		return goja.Undefined()
	}
}

func (r *Runtime) drainConsole() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	out := r.console
	r.console = nil
	return out
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset discards all script state
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	return nil
}
