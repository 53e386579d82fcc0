package gpu

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrCapabilityMissing = errors.New("float texture not supported")
	ErrUnknownSystem     = errors.New("unknown render system")
	ErrUnknownTopology   = errors.New("unknown topology")
	ErrNoActiveSystem    = errors.New("no active render system")
	ErrUnsupportedValue  = errors.New("unsupported uniform value")
)

// Logger is satisfied by the application logger.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any) {}
func (nopLogger) Warnf(format string, args ...any)  {}

func orNop(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

// warnOnce reports each key a single time.
type warnOnce struct {
	mu   sync.Mutex
	seen map[string]struct{}
	log  Logger
}

func newWarnOnce(log Logger) *warnOnce {
	return &warnOnce{seen: make(map[string]struct{}), log: orNop(log)}
}

func (w *warnOnce) warn(key string, format string, args ...any) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[key]; ok {
		return false
	}
	w.seen[key] = struct{}{}
	w.log.Warnf(format, args...)
	return true
}

// CompileError carries the driver info log of a failed compile or link.
type CompileError struct {
	Stage string
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("failed to %s shader: %s", e.Stage, e.Log)
}
