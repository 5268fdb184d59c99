package kumi

import "github.com/rs/zerolog"

// Logger returns the World's logger.
func (w *World) Logger() *zerolog.Logger {
	return &w.logger
}

// LogWorld writes a summary of registered components and archetypes at the
// given level.
func (w *World) LogWorld(level zerolog.Level) {
	ev := w.logger.WithLevel(level)
	if !ev.Enabled() {
		return
	}
	comps := zerolog.Arr()
	for _, info := range w.components {
		if info == nil {
			continue
		}
		comps.Dict(zerolog.Dict().
			Uint32("id", uint32(info.id)).
			Str("type", info.String()).
			Uint64("size", uint64(info.size)))
	}
	archs := zerolog.Arr()
	for _, a := range w.archetypes[1:] {
		archs.Dict(zerolog.Dict().
			Uint32("index", uint32(a.index)).
			Stringer("layout", a.Layout()).
			Int("entities", a.len()))
	}
	ev.Int("entities", w.alive).
		Int("archetype_count", w.ArchetypeCount()).
		Array("components", comps).
		Array("archetypes", archs).
		Msg("world state")
}
