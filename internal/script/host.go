package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/composer/internal/editor"
	"github.com/dshills/composer/internal/logging"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 5 * time.Second

// Host runs Lua scripts against an editor session.
//
// A Host is safe for concurrent use; runs are serialized.
type Host struct {
	mu sync.Mutex

	L       *lua.LState
	session *editor.Session
	out     io.Writer
	log     *logging.Logger
	timeout time.Duration
	sleep   func(time.Duration)
	closed  bool
}

// Option configures a Host.
type Option func(*Host)

// WithOutput sets where print writes. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(h *Host) {
		if w != nil {
			h.out = w
		}
	}
}

// WithLogger sets the host's logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithTimeout sets the time limit of a single run. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d >= 0 {
			h.timeout = d
		}
	}
}

// WithSleep sets how composer.wait passes time. Hosts driven by a virtual
// clock pass its Advance method.
func WithSleep(fn func(time.Duration)) Option {
	return func(h *Host) {
		if fn != nil {
			h.sleep = fn
		}
	}
}

// NewHost creates a host for session.
func NewHost(session *editor.Session, opts ...Option) *Host {
	h := &Host{
		session: session,
		out:     os.Stdout,
		log:     logging.Null(),
		timeout: DefaultTimeout,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.WithComponent("script")

	h.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		h.L.Push(h.L.NewFunction(open))
		h.L.Call(0, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		h.L.SetGlobal(name, lua.LNil)
	}
	h.L.SetGlobal("print", h.L.NewFunction(h.print))
	h.L.SetGlobal("composer", h.module())
	return h
}

// Session returns the session scripts act on.
func (h *Host) Session() *editor.Session {
	return h.session
}

// RunFile runs the Lua file at path.
func (h *Host) RunFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script %s: %w", path, err)
	}
	return h.Run(ctx, path, string(data))
}

// Run runs code. name identifies the script in errors.
func (h *Host) Run(ctx context.Context, name, code string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHostClosed
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	h.L.SetContext(ctx)
	defer h.L.RemoveContext()

	fn, err := h.L.Load(strings.NewReader(code), name)
	if err != nil {
		return h.wrap(ctx, name, err)
	}

	h.log.Debug("running %s", name)
	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("lua panic: %v", r)
			}
		}()
		h.L.Push(fn)
		return h.L.PCall(0, lua.MultRet, nil)
	}()
	if err != nil {
		return h.wrap(ctx, name, err)
	}
	return nil
}

func (h *Host) wrap(ctx context.Context, name string, err error) error {
	serr := &Error{Script: name, Message: luaMessage(err), Err: err}
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) {
		serr.Traceback = apiErr.StackTrace
	}
	if ctx.Err() != nil {
		serr.Err = fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
	h.log.Warn("%s", serr)
	return serr
}

// Close releases the Lua state. It is safe to call more than once.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.L.Close()
}

// luaMessage returns the Lua error value of err, or its text.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}

func (h *Host) print(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.ToStringMeta(L.Get(i)).String()
	}
	fmt.Fprintln(h.out, strings.Join(parts, "\t"))
	return 0
}
