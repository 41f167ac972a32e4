//go:build !nogl

package gui

import (
	"errors"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OpenContext creates a hidden window so a GL context is current for headless
// compute. The returned func closes it.
func OpenContext() (func(), error) {
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(rl.FlagWindowHidden)
	rl.InitWindow(1, 1, "clothsim")
	if !rl.IsWindowReady() {
		return nil, errors.New("gui: could not create an opengl context")
	}
	return rl.CloseWindow, nil
}
