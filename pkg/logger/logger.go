package logger

import (
	"log"
	"os"
)

// New returns a stdlib logger for the startup path, before configuration
// is loaded and the slog handler exists. The component prefix sits after
// the timestamp so startup lines sort chronologically.
func New(component string) *log.Logger {
	return log.New(os.Stderr, "["+component+"] ", log.LstdFlags|log.Lmsgprefix)
}
