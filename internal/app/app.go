package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/opdispatch/internal/dispatch"
	"github.com/vk/opdispatch/internal/handlers"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle. Each App owns an isolated dispatcher and handler set, so tests
// never observe each other's registrations.
type App struct {
	outW       io.Writer
	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	dispatcher *dispatch.Dispatcher
	handlers   *handlers.Handlers
	inventory  *inventoryListener
	regs       []*dispatch.Registration
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It configures the
// logger, registers the kernel packs and prepares an empty dispatcher;
// manifests are loaded when Run is called.
func NewApp(outW io.Writer, cfg *Config, modules ...handlers.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	h := handlers.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(h)
	}
	logger.Debug("All kernel packs registered.", "count", len(modules), "handlers", h.Names())

	return &App{
		outW:       outW,
		logger:     logger,
		config:     cfg,
		dispatcher: dispatch.New(),
		handlers:   h,
		inventory:  newInventoryListener(),
	}
}

// Dispatcher returns the application's dispatcher. This is primarily for
// testing.
func (a *App) Dispatcher() *dispatch.Dispatcher {
	return a.dispatcher
}

// Handlers returns the application's kernel handler set. This is primarily
// for testing.
func (a *App) Handlers() *handlers.Handlers {
	return a.handlers
}
