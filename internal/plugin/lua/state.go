// Package lua loads user-defined calculator functions from a Lua script.
//
// The script runs in a sandboxed gopher-lua state with only the base,
// table, string and math libraries. It registers functions and constants
// through the global keycalc table:
//
//	keycalc.define("hyp", 2, function(a, b) return math.sqrt(a*a + b*b) end)
//	keycalc.define("avg", -1, function(...) ... end)
//	keycalc.const("c", 299792458)
//
// An arity of -1 accepts any number of arguments. Registered functions
// call back into the state, so the state must stay open while they are
// in use.
package lua

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keycalc/internal/calc/arith"
)

// Default limits.
const (
	DefaultLoadTimeout = 2 * time.Second
	DefaultCallTimeout = 250 * time.Millisecond
)

// moduleName is the global table scripts register through.
const moduleName = "keycalc"

// Registry receives what a script defines. *arith.Env implements it.
type Registry interface {
	Define(name string, arity int, fn arith.Func)
	SetConst(name string, v float64)
}

// State wraps a sandboxed Lua state. gopher-lua states are not
// goroutine-safe; the mutex serializes every use.
type State struct {
	L *lua.LState

	mu     sync.Mutex
	closed bool

	loadTimeout time.Duration
	callTimeout time.Duration

	registry  Registry
	functions []string
	constants []string
}

// StateOption configures a State.
type StateOption func(*State)

// WithLoadTimeout bounds how long the script body may run.
func WithLoadTimeout(d time.Duration) StateOption {
	return func(s *State) {
		if d > 0 {
			s.loadTimeout = d
		}
	}
}

// WithCallTimeout bounds how long one function call may run.
func WithCallTimeout(d time.Duration) StateOption {
	return func(s *State) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

// NewState creates a sandboxed state.
func NewState(opts ...StateOption) *State {
	s := &State{
		loadTimeout: DefaultLoadTimeout,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(s.L)
	s.installModule()
	return s
}

// openSafeLibraries opens the libraries a calculation can use. io, os,
// debug and package stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "print"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (s *State) installModule() {
	mod := s.L.NewTable()
	s.L.SetField(mod, "define", s.L.NewFunction(s.luaDefine))
	s.L.SetField(mod, "const", s.L.NewFunction(s.luaConst))
	s.L.SetGlobal(moduleName, mod)
}

// LoadFile runs the script at path and registers its definitions into
// reg. It returns the names of the functions defined.
func (s *State) LoadFile(path string, reg Registry) ([]string, error) {
	return s.load(reg, func() error { return s.L.DoFile(path) })
}

// LoadString is like LoadFile for script source.
func (s *State) LoadString(src string, reg Registry) ([]string, error) {
	return s.load(reg, func() error { return s.L.DoString(src) })
}

func (s *State) load(reg Registry, run func() error) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	s.registry = reg
	defer func() { s.registry = nil }()

	ctx, cancel := context.WithTimeout(context.Background(), s.loadTimeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	if err := s.protect(run); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
		return nil, err
	}
	return append([]string(nil), s.functions...), nil
}

// Functions returns the names of all functions defined so far.
func (s *State) Functions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.functions...)
}

// Constants returns the names of all constants defined so far.
func (s *State) Constants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.constants...)
}

// Close releases the state. Functions registered from it fail with
// ErrStateClosed afterwards.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.L.Close()
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// luaDefine implements keycalc.define(name, arity, fn).
func (s *State) luaDefine(L *lua.LState) int {
	name := L.CheckString(1)
	arity := L.CheckInt(2)
	fn := L.CheckFunction(3)

	if s.registry == nil {
		L.RaiseError("keycalc.define is only available while the script loads")
		return 0
	}
	if name == "" || arity < arith.Variadic {
		L.ArgError(1, ErrBadDefinition.Error())
		return 0
	}

	s.registry.Define(name, arity, s.wrap(name, fn))
	s.functions = append(s.functions, name)
	return 0
}

// luaConst implements keycalc.const(name, value).
func (s *State) luaConst(L *lua.LState) int {
	name := L.CheckString(1)
	v := L.CheckNumber(2)

	if s.registry == nil {
		L.RaiseError("keycalc.const is only available while the script loads")
		return 0
	}
	if name == "" {
		L.ArgError(1, ErrBadDefinition.Error())
		return 0
	}
	s.registry.SetConst(name, float64(v))
	s.constants = append(s.constants, name)
	return 0
}

// wrap turns a Lua function into an arith.Func.
func (s *State) wrap(name string, fn *lua.LFunction) arith.Func {
	return func(args []float64) (float64, error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.closed {
			return 0, ErrStateClosed
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.callTimeout)
		defer cancel()
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()

		var ret lua.LValue
		err := s.protect(func() error {
			s.L.Push(fn)
			for _, a := range args {
				s.L.Push(lua.LNumber(a))
			}
			if err := s.L.PCall(len(args), 1, nil); err != nil {
				return err
			}
			ret = s.L.Get(-1)
			s.L.Pop(1)
			return nil
		})
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return 0, fmt.Errorf("%s: %w", name, ErrExecutionTimeout)
			}
			return 0, err
		}

		n, ok := ret.(lua.LNumber)
		if !ok {
			return 0, fmt.Errorf("%s: %w (got %s)", name, ErrBadReturn, ret.Type())
		}
		return float64(n), nil
	}
}

// protect runs fn, turning a Go panic raised inside the VM into an error.
func (s *State) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}
