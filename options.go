package kumi

import "github.com/rs/zerolog"

// WorldOption customizes a World built by NewWorld.
type WorldOption func(*World)

// WithConfig replaces the World's configuration.
func WithConfig(cfg Config) WorldOption {
	return func(w *World) {
		w.cfg = cfg
	}
}

// WithLogger sets the logger the World reports to. The configured LogLevel is
// applied on top of it.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
	}
}

// WithInitialCapacity overrides Config.InitialCapacity.
func WithInitialCapacity(n int) WorldOption {
	return func(w *World) {
		w.cfg.InitialCapacity = n
	}
}

// WithCheckedBorrows overrides Config.CheckedBorrows.
func WithCheckedBorrows(enabled bool) WorldOption {
	return func(w *World) {
		w.cfg.CheckedBorrows = enabled
	}
}

// WithEventBus makes the World publish its events to bus.
func WithEventBus(bus *EventBus) WorldOption {
	return func(w *World) {
		if bus != nil {
			w.events = bus
		}
	}
}
