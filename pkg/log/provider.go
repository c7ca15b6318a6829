package log

import (
	"os"
	"sync"

	tcerrors "github.com/YuminosukeSato/tabclass/pkg/errors"
)

var (
	providerMu     sync.RWMutex
	globalProvider LoggerProvider = NewZerologProvider(os.Stderr, LevelWarn)
)

func init() {
	routeWarnings()
}

// SetProvider replaces the global provider. Passing nil restores the default
// zerolog provider writing to stderr at warn level.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	if p == nil {
		p = NewZerologProvider(os.Stderr, LevelWarn)
	}
	globalProvider = p
	providerMu.Unlock()
	routeWarnings()
}

// Provider returns the current global provider.
func Provider() LoggerProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return globalProvider
}

// GetLogger returns the default logger of the global provider.
func GetLogger() Logger {
	return Provider().GetLogger()
}

// GetLoggerWithName returns a component logger of the global provider.
func GetLoggerWithName(name string) Logger {
	return Provider().GetLoggerWithName(name)
}

// SetLevel changes the minimum level of the global provider.
func SetLevel(level Level) {
	Provider().SetLevel(level)
}

// routeWarnings sends pkg/errors warnings through the active provider.
func routeWarnings() {
	tcerrors.SetZerologWarnFunc(func(w error) {
		GetLoggerWithName("warnings").Warn(w.Error(), ErrorTypeKey, errorType(w))
	})
}

func errorType(err error) string {
	var numErr *tcerrors.NumericalInstabilityError
	if tcerrors.As(err, &numErr) {
		return "NumericalInstabilityError"
	}
	return "warning"
}
