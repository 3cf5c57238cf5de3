package common

import "errors"

// ErrModulePaused is returned when a governance switch has halted a module.
var ErrModulePaused = errors.New("module paused")

// PauseView exposes the pause switches maintained by the host configuration.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard returns ErrModulePaused when the named module is halted. A nil view
// means no pauses are configured and every module runs.
func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// StaticPauses is a fixed pause table, typically loaded from the daemon
// configuration file.
type StaticPauses map[string]bool

// IsPaused implements PauseView.
func (s StaticPauses) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	return s[module]
}
