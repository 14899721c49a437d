package scripting

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// vm is one loaded script.
type vm struct {
	L    *lua.LState
	path string
}

// Manager owns one sandboxed VM per key (usually an encounter id) and dispatches hooks.
//
// Loading and unloading are safe for concurrent use. Each VM is single-threaded:
// hooks for one key must be called from one goroutine, which the encounter tick
// loop guarantees.
type Manager struct {
	mu        sync.Mutex
	states    map[string]*vm
	instLimit int
	logger    *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: instLimit >= 0 (0 uses DefaultInstructionLimit). A nil logger is
// replaced with a no-op logger.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(instLimit int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		states:    make(map[string]*vm),
		instLimit: instLimit,
		logger:    logger,
	}
}

// Load creates a sandboxed VM for key, registers the engine.* modules bound to b,
// and executes the Lua file at path. An existing VM for key is replaced.
//
// Precondition: key must be non-empty; path must name a readable Lua file.
// Postcondition: On success the VM is registered; on error no VM change is made.
func (m *Manager) Load(key, path string, b Bindings) error {
	if key == "" {
		return fmt.Errorf("scripting: key must not be empty")
	}
	L := NewSandboxedState(m.instLimit)
	m.RegisterModules(L, key, b)

	release := budget(L, m.instLimit)
	err := L.DoFile(path)
	release()
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.L.Close()
	}
	m.states[key] = &vm{L: L, path: path}
	m.mu.Unlock()
	m.logger.Debug("scripting: loaded script", zap.String("key", key), zap.String("path", path))
	return nil
}

// Has reports whether a VM is loaded for key.
func (m *Manager) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[key]
	return ok
}

// Unload closes and removes the VM for key. Unloading an unknown key is a no-op.
func (m *Manager) Unload(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.states[key]; ok {
		v.L.Close()
		delete(m.states, key)
	}
}

// Close closes every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.L.Close()
		delete(m.states, key)
	}
}

// CallHook calls the named Lua global function in key's VM with a fresh instruction
// budget. Returns (LNil, nil) if no VM exists or the hook is not defined. Lua runtime
// errors, including an exhausted budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances created for key's VM.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(key, hook string, args ...lua.LValue) (lua.LValue, error) {
	L := m.state(key)
	if L == nil {
		return lua.LNil, nil
	}
	return m.call(key, L, hook, func(*lua.LState) []lua.LValue { return args })
}

func (m *Manager) state(key string) *lua.LState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.states[key]; ok {
		return v.L
	}
	return nil
}

// call runs hook in L. build creates the arguments inside L.
func (m *Manager) call(key string, L *lua.LState, hook string, build func(*lua.LState) []lua.LValue) (lua.LValue, error) {
	fn := L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, nil
	}
	release := budget(L, m.instLimit)
	defer release()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, build(L)...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("key", key),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// callBuilt looks up key's VM and calls hook with arguments built inside it.
func (m *Manager) callBuilt(key, hook string, build func(*lua.LState) []lua.LValue) {
	if L := m.state(key); L != nil {
		_, _ = m.call(key, L, hook, build)
	}
}
