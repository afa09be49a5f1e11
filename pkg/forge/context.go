package forge

import (
	"log/slog"
	"sync"
)

// Logger is the sink plugins log through during lifecycle calls
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Success(msg string, args ...any)
}

type slogLogger struct {
	l *slog.Logger
}

// NewLogger adapts a slog.Logger to the plugin-facing Logger
func NewLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l}
}

func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) Success(msg string, args ...any) {
	s.l.Info(msg, append([]any{"status", "success"}, args...)...)
}

// Context carries the shared environment a plugin operates in: the
// target project, the package-manager choice, a logger sink, the
// blueprint executor, and a key-value state store used to pass data
// between phases.
type Context struct {
	// ProjectPath is the root of the target project tree
	ProjectPath string

	// ProjectName is the human project name
	ProjectName string

	// PackageManager is the active package manager (npm, pnpm, yarn, bun)
	PackageManager string

	// Logger is the plugin-facing log sink
	Logger Logger

	// Executor applies blueprints to the project tree
	Executor BlueprintExecutor

	mu    sync.RWMutex
	state map[string]any
}

// NewContext creates a Context for one orchestration run
func NewContext(projectPath, projectName, packageManager string, logger Logger) *Context {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return &Context{
		ProjectPath:    projectPath,
		ProjectName:    projectName,
		PackageManager: packageManager,
		Logger:         logger,
		state:          make(map[string]any),
	}
}

// Set stores a value in the run's shared state
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state[key] = value
}

// Get retrieves a value from the run's shared state
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.state[key]
	return value, ok
}

// GetString retrieves a string value, with ok=false on absence or
// type mismatch
func (c *Context) GetString(key string) (string, bool) {
	value, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// Keys returns all state keys
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.state))
	for key := range c.state {
		keys = append(keys, key)
	}
	return keys
}
