// Package logging provides categorized logging for meshforge, one named
// zap logger per subsystem. Before Initialize is called every logger is a
// no-op, which keeps library use and tests silent by default.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names one logging subsystem.
type Category string

const (
	CategoryBoot   Category = "boot"   // startup, config, mesh loading
	CategoryMesh   Category = "mesh"   // graph mutations, consistency checks
	CategoryCavity Category = "cavity" // cavity location and expansion
	CategoryRefine Category = "refine" // scheduler, worker pool, retries
	CategoryCommit Category = "commit" // cavity commits and rescheduling
)

var (
	mu      sync.RWMutex
	base    *zap.Logger = zap.NewNop()
	sugared             = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the process-wide logger. level is one of debug, info,
// warn, error; file, when non-empty, redirects output from stderr to the
// given path.
func Initialize(level, file string) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		return fmt.Errorf("logging: bad level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	if file != "" {
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	Replace(l)
	return nil
}

// Replace swaps the process-wide logger. Used by Initialize and by tests.
func Replace(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	base = l
	sugared = make(map[Category]*zap.SugaredLogger)
}

// Get returns the logger for a category.
func Get(c Category) *zap.SugaredLogger {
	mu.RLock()
	if s, ok := sugared[c]; ok {
		mu.RUnlock()
		return s
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if s, ok := sugared[c]; ok {
		return s
	}
	s := base.Named(string(c)).Sugar()
	sugared[c] = s
	return s
}

// Sync flushes buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

// Convenience functions, one pair per category.

func Boot(format string, args ...interface{}) { Get(CategoryBoot).Infof(format, args...) }

func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debugf(format, args...) }

func Mesh(format string, args ...interface{}) { Get(CategoryMesh).Infof(format, args...) }

func MeshDebug(format string, args ...interface{}) { Get(CategoryMesh).Debugf(format, args...) }

func Cavity(format string, args ...interface{}) { Get(CategoryCavity).Infof(format, args...) }

func CavityDebug(format string, args ...interface{}) { Get(CategoryCavity).Debugf(format, args...) }

func Refine(format string, args ...interface{}) { Get(CategoryRefine).Infof(format, args...) }

func RefineDebug(format string, args ...interface{}) { Get(CategoryRefine).Debugf(format, args...) }

func RefineWarn(format string, args ...interface{}) { Get(CategoryRefine).Warnf(format, args...) }

func Commit(format string, args ...interface{}) { Get(CategoryCommit).Infof(format, args...) }

func CommitDebug(format string, args ...interface{}) { Get(CategoryCommit).Debugf(format, args...) }
