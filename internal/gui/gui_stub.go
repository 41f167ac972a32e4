//go:build nogl

package gui

import (
	"errors"

	"go.uber.org/zap"

	"github.com/san-kum/clothsim/internal/config"
)

var errNoGL = errors.New("gui: built without opengl support")

func Run(cfg *config.Config, log *zap.Logger) error            { return errNoGL }
func RunInteractive(cfg *config.Config, log *zap.Logger) error { return errNoGL }
func OpenContext() (func(), error)                             { return nil, errNoGL }
