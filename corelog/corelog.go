// Package corelog is the Logger backend, grounded on the teacher's
// core/log.Backend (used throughout client/cborplugin,
// server/cborplugin as logBackend.GetLogger(name)): a process-wide
// Backend hands out named loggers over a shared go-logging.v1 backend.
package corelog

import (
	"os"

	logging "gopkg.in/op/go-logging.v1"
)

// Logger is the abstract severity-method surface spec.md §6 asks the
// core to consume: Fatal, Error, Warn, Info.
type Logger interface {
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
}

// Backend hands out named Loggers sharing one go-logging backend and
// format, so every module's log lines are tagged with their module name
// and carry a consistent timestamp/level prefix.
type Backend struct {
	level logging.Level
}

// NewBackend configures the process-wide go-logging backend at levelName
// ("DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL") and returns a
// Backend for minting module loggers.
func NewBackend(levelName string) (*Backend, error) {
	level, err := logging.LogLevel(levelName)
	if err != nil {
		return nil, err
	}
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatted := logging.NewBackendFormatter(backend, logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05.000} %{level:.4s} %{module}: %{message}`,
	))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")
	logging.SetBackend(leveled)
	return &Backend{level: level}, nil
}

// GetLogger returns a Logger tagged with module, sharing this Backend's
// configured level and output.
func (b *Backend) GetLogger(module string) Logger {
	return &adapter{log: logging.MustGetLogger(module)}
}

// adapter maps the spec's {fatal, error, warn, info} surface onto
// go-logging's {Fatal, Error, Warning, Info}.
type adapter struct {
	log *logging.Logger
}

func (a *adapter) Fatal(args ...interface{})                 { a.log.Fatal(args...) }
func (a *adapter) Fatalf(format string, args ...interface{}) { a.log.Fatalf(format, args...) }
func (a *adapter) Error(args ...interface{})                 { a.log.Error(args...) }
func (a *adapter) Errorf(format string, args ...interface{}) { a.log.Errorf(format, args...) }
func (a *adapter) Warn(args ...interface{})                  { a.log.Warning(args...) }
func (a *adapter) Warnf(format string, args ...interface{})  { a.log.Warningf(format, args...) }
func (a *adapter) Info(args ...interface{})                  { a.log.Info(args...) }
func (a *adapter) Infof(format string, args ...interface{})  { a.log.Infof(format, args...) }
