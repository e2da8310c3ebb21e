package zerolog

import (
	"github.com/goliatone/go-query-cache/querycache"
	"github.com/rs/zerolog"
)

var _ querycache.Logger = ZerologLogger{}

type ZerologLogger struct{ L zerolog.Logger }

func (z ZerologLogger) Debug(msg string, f querycache.Fields) {
	z.L.Debug().Fields(map[string]any(f)).Msg(msg)
}

func (z ZerologLogger) Info(msg string, f querycache.Fields) {
	z.L.Info().Fields(map[string]any(f)).Msg(msg)
}

func (z ZerologLogger) Warn(msg string, f querycache.Fields) {
	z.L.Warn().Fields(map[string]any(f)).Msg(msg)
}

func (z ZerologLogger) Error(msg string, f querycache.Fields) {
	z.L.Error().Fields(map[string]any(f)).Msg(msg)
}
