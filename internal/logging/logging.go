package logging

import (
	"io"
	"os"
	"time"

	"github.com/Speshl/gorrc_drive/internal/config"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger. Output is human readable when
// pretty logging is requested or stdout is a terminal, JSON otherwise.
func Setup(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(writer(cfg, os.Stdout)).With().Timestamp().Logger()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func writer(cfg config.LogConfig, out *os.File) io.Writer {
	if cfg.Pretty || isatty.IsTerminal(out.Fd()) {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05.000"}
	}
	return out
}
