package engine

import "errors"

// ErrModulePaused is returned by every mutating operation while the engine
// module is paused. Queries are never gated.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the pause switches controlled by the operator.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the module is paused. A nil view means no
// pause control is wired, which is treated as running.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// begin marks an operation as in flight. Re-entrant invocation from within a
// collaborator callback, or a second concurrent caller, is rejected rather
// than queued: the engine processes exactly one mutating operation at a time.
func (e *Engine) begin() error {
	if err := Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if !e.inFlight.CompareAndSwap(false, true) {
		return ErrReentrancy
	}
	return nil
}

func (e *Engine) end() {
	e.inFlight.Store(false)
}
