package app

import (
	"go.trai.ch/watchdag/internal/adapters/config"
	"go.trai.ch/watchdag/internal/adapters/logger"
	"go.trai.ch/watchdag/internal/core/ports"
)

// Components contains all the initialized application components. This
// struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

// NewComponents creates a new Components struct from already-built
// dependencies.
func NewComponents(app *App, log ports.Logger) *Components {
	return &Components{App: app, Logger: log}
}

// NewApp manually wires the application's components: a Logger, a
// config.Loader, and the App that drives them. There is no DI framework
// here; every dependency is constructed and passed explicitly.
func NewApp() (*Components, error) {
	loggerAdapter := logger.New()
	configLoader := config.NewLoader(loggerAdapter)

	application := New(configLoader, loggerAdapter)

	return NewComponents(application, loggerAdapter), nil
}
