package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/bossfight/internal/game/event"
)

// Hook names a script may define.
const (
	HookPhaseChanged      = "on_phase_changed"
	HookAttackTelegraphed = "on_attack_telegraphed"
	HookAttackResolved    = "on_attack_resolved"
	HookBossDied          = "on_boss_died"
)

func millis(d time.Duration) lua.LNumber { return lua.LNumber(float64(d) / float64(time.Millisecond)) }

// EventHooks returns encounter hooks that forward every event to key's script as a
// Lua table. Events for a key without a VM, or hooks the script does not define,
// are dropped.
func (m *Manager) EventHooks(key string) event.Hooks {
	return event.Hooks{
		PhaseChanged: func(e event.PhaseChanged) {
			m.callBuilt(key, HookPhaseChanged, func(L *lua.LState) []lua.LValue {
				t := L.NewTable()
				t.RawSetString("boss", lua.LString(e.BossID))
				t.RawSetString("from", lua.LNumber(e.From))
				t.RawSetString("phase", lua.LNumber(e.Phase))
				unlocked := L.NewTable()
				for _, id := range e.Unlocked {
					unlocked.Append(lua.LString(id))
				}
				t.RawSetString("unlocked", unlocked)
				t.RawSetString("at_ms", millis(e.At))
				return []lua.LValue{t}
			})
		},
		AttackTelegraphed: func(e event.Telegraph) {
			m.callBuilt(key, HookAttackTelegraphed, func(L *lua.LState) []lua.LValue {
				t := L.NewTable()
				t.RawSetString("boss", lua.LString(e.BossID))
				t.RawSetString("pattern", lua.LString(e.PatternID))
				t.RawSetString("kind", lua.LString(e.Kind))
				t.RawSetString("x", lua.LNumber(e.Position.X))
				t.RawSetString("y", lua.LNumber(e.Position.Y))
				t.RawSetString("radius", lua.LNumber(e.Radius))
				t.RawSetString("delay_ms", millis(e.Delay))
				t.RawSetString("at_ms", millis(e.At))
				return []lua.LValue{t}
			})
		},
		AttackResolved: func(e event.Resolution) {
			m.callBuilt(key, HookAttackResolved, func(L *lua.LState) []lua.LValue {
				t := L.NewTable()
				t.RawSetString("boss", lua.LString(e.BossID))
				t.RawSetString("pattern", lua.LString(e.PatternID))
				t.RawSetString("damage", lua.LNumber(e.Damage))
				t.RawSetString("hit", lua.LBool(e.Hit))
				t.RawSetString("at_ms", millis(e.At))
				return []lua.LValue{t}
			})
		},
		BossDied: func(e event.Death) {
			m.callBuilt(key, HookBossDied, func(L *lua.LState) []lua.LValue {
				t := L.NewTable()
				t.RawSetString("boss", lua.LString(e.BossID))
				t.RawSetString("currency", lua.LNumber(e.Reward.Currency))
				items := L.NewTable()
				for _, it := range e.Reward.Items {
					row := L.NewTable()
					row.RawSetString("item", lua.LString(it.ItemID))
					row.RawSetString("instance", lua.LString(it.InstanceID))
					row.RawSetString("qty", lua.LNumber(it.Quantity))
					items.Append(row)
				}
				t.RawSetString("items", items)
				t.RawSetString("at_ms", millis(e.At))
				return []lua.LValue{t}
			})
		},
	}
}
