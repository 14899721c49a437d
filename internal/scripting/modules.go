package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// BossStatus is the snapshot engine.boss.status() returns to Lua.
type BossStatus struct {
	Health    float64
	MaxHealth float64
	Phase     int
	Attacking bool
	Debuff    float64
}

// Bindings are the encounter capabilities exposed to one VM. nil = the
// corresponding engine.boss function is a no-op returning nil.
type Bindings struct {
	Status     func() BossStatus
	ApplyCurse func(factor float64, duration time.Duration)
}

// RegisterModules registers the engine.log and engine.boss tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, key string, b Bindings) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L, key))
	L.SetField(engine, "boss", bossModule(L, b))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState, key string) *lua.LTable {
	mod := L.NewTable()
	logger := m.logger.With(zap.String("script", key))
	levels := map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
		"error": logger.Error,
	}
	for name, fn := range levels {
		fn := fn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1))
			return 0
		}))
	}
	return mod
}

func bossModule(L *lua.LState, b Bindings) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "status", L.NewFunction(func(L *lua.LState) int {
		if b.Status == nil {
			L.Push(lua.LNil)
			return 1
		}
		st := b.Status()
		tbl := L.NewTable()
		tbl.RawSetString("health", lua.LNumber(st.Health))
		tbl.RawSetString("max_health", lua.LNumber(st.MaxHealth))
		tbl.RawSetString("phase", lua.LNumber(st.Phase))
		tbl.RawSetString("attacking", lua.LBool(st.Attacking))
		tbl.RawSetString("debuff", lua.LNumber(st.Debuff))
		L.Push(tbl)
		return 1
	}))
	// engine.boss.curse(factor, duration_ms)
	L.SetField(mod, "curse", L.NewFunction(func(L *lua.LState) int {
		factor := float64(L.CheckNumber(1))
		ms := float64(L.CheckNumber(2))
		if b.ApplyCurse != nil {
			b.ApplyCurse(factor, time.Duration(ms*float64(time.Millisecond)))
		}
		return 0
	}))
	return mod
}
