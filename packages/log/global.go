package log

import "github.com/rs/zerolog"

// G is the process-wide logger. It discards everything until replaced.
var G = Nop()

// SetGlobalLogger replaces G
func SetGlobalLogger(logger *Logger) {
	G = logger
}

func Debug() *zerolog.Event {
	return G.Debug()
}

func Info() *zerolog.Event {
	return G.Info()
}

func Warn() *zerolog.Event {
	return G.Warn()
}

func Error() *zerolog.Event {
	return G.Error()
}
