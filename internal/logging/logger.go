// Package logging provides config-driven categorized logging for nodegen.
// Every category routes to a named child of one shared zap logger; categories
// switched off in config get a no-op logger.
package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config loading
	CategoryCatalog  Category = "catalog"  // Source scanning, catalog files
	CategorySynth    Category = "synth"    // Classification and artifact synthesis
	CategoryPipeline Category = "pipeline" // Per-submodule generation runs
	CategoryEmit     Category = "emit"     // Artifact and index writes
	CategoryLedger   Category = "ledger"   // Run ledger (SQLite)
	CategoryWatch    Category = "watch"    // Filesystem watch mode
)

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	mu         sync.RWMutex
	base       = zap.NewNop()
	categories map[string]bool
	loggers    = make(map[Category]*Logger)
)

// SetLogger installs the zap logger that all categories write through.
// Passing nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	base = l
	loggers = make(map[Category]*Logger)
}

// Configure sets the category filter. A nil or empty map enables everything;
// categories missing from a non-empty map stay enabled.
func Configure(filter map[string]bool) {
	mu.Lock()
	defer mu.Unlock()
	categories = filter
	loggers = make(map[Category]*Logger)
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if len(categories) == 0 {
		return true
	}
	enabled, ok := categories[string(category)]
	if !ok {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	var l *Logger
	if categoryEnabledLocked(category) {
		l = &Logger{category: category, sugar: base.Named(string(category)).Sugar()}
	} else {
		l = &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}
	loggers[category] = l
	return l
}

// With returns a logger carrying extra structured fields.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{category: l.category, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

// Sync flushes the shared logger.
func Sync() {
	mu.RLock()
	l := base
	mu.RUnlock()
	_ = l.Sync()
}

// =============================================================================
// CATEGORY HELPERS
// =============================================================================

func Boot(format string, args ...interface{})      { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...interface{}) { Get(CategoryBoot).Debug(format, args...) }

func Catalog(format string, args ...interface{})      { Get(CategoryCatalog).Info(format, args...) }
func CatalogDebug(format string, args ...interface{}) { Get(CategoryCatalog).Debug(format, args...) }
func CatalogWarn(format string, args ...interface{})  { Get(CategoryCatalog).Warn(format, args...) }

func Synth(format string, args ...interface{})      { Get(CategorySynth).Info(format, args...) }
func SynthDebug(format string, args ...interface{}) { Get(CategorySynth).Debug(format, args...) }

func Pipeline(format string, args ...interface{})      { Get(CategoryPipeline).Info(format, args...) }
func PipelineDebug(format string, args ...interface{}) { Get(CategoryPipeline).Debug(format, args...) }
func PipelineWarn(format string, args ...interface{})  { Get(CategoryPipeline).Warn(format, args...) }

func Emit(format string, args ...interface{})      { Get(CategoryEmit).Info(format, args...) }
func EmitDebug(format string, args ...interface{}) { Get(CategoryEmit).Debug(format, args...) }

func Ledger(format string, args ...interface{})     { Get(CategoryLedger).Info(format, args...) }
func LedgerWarn(format string, args ...interface{}) { Get(CategoryLedger).Warn(format, args...) }

func Watch(format string, args ...interface{})      { Get(CategoryWatch).Info(format, args...) }
func WatchDebug(format string, args ...interface{}) { Get(CategoryWatch).Debug(format, args...) }
func WatchWarn(format string, args ...interface{})  { Get(CategoryWatch).Warn(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{
		category: category,
		op:       operation,
		start:    time.Now(),
	}
}

// Stop ends the timer and logs the duration
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}
