package subproc

import (
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the subproc package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the subproc package's logger.
// This must be called before any plug-ins are launched.
func SetLogger(l *zap.Logger) {
	logger = l
}

// pluginLogger builds the hclog logger handed to go-plugin, which insists
// on its own logging interface. Quiet unless debug is requested.
func pluginLogger(debug bool) hclog.Logger {
	level := hclog.Error
	output := io.Discard

	if debug {
		level = hclog.Debug
		output = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "plughost",
		Level:  level,
		Output: output,
	})
}
