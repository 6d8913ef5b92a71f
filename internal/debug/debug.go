// Package debug provides debug logging infrastructure for dialpad.
// Logging starts enabled when --debug is passed or the persisted debug.logs
// preference is on, and can be toggled at runtime from the debug popup.
// Logs are written to ~/.dialpad/debug.log, truncated on each launch.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// LogFileName is the name of the debug log file.
	LogFileName = "debug.log"
	// LogDirName is the name of the directory containing the log file.
	LogDirName = ".dialpad"
)

var (
	mu      sync.RWMutex
	enabled bool
	logger  *logrus.Logger
	logFile *os.File

	// getLogPath is a function variable to allow overriding in tests.
	getLogPath = defaultGetLogPath
)

// Init initializes the debug logging system.
// If enable is false, all logging operations become no-ops until SetEnabled(true).
// If enable is true, the log file is created/truncated at ~/.dialpad/debug.log.
func Init(enable bool) error {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	logger = newLogger(io.Discard)
	if !enable {
		return nil
	}
	return openLocked(os.O_TRUNC)
}

// SetEnabled switches logging on or off at runtime. Enabling after a disabled
// Init opens the log file in append mode so earlier sessions are preserved.
func SetEnabled(enable bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		logger = newLogger(io.Discard)
	}
	if enable && logFile == nil {
		if err := openLocked(os.O_APPEND); err != nil {
			return err
		}
	}
	if enable != enabled && logFile != nil {
		logger.WithField("enabled", enable).Info("debug logging toggled")
	}
	enabled = enable
	return nil
}

func openLocked(mode int) error {
	logPath, err := getLogPath()
	if err != nil {
		return fmt.Errorf("determine log path: %w", err)
	}

	dir := filepath.Dir(logPath)
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	//nolint:gosec // G304: Log path is computed from user home, not user input
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|mode, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	logger.SetOutput(f)
	logger.Infof("=== Dialpad debug log started at %s ===", time.Now().Format(time.RFC3339))
	return nil
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000000",
	})
	return l
}

// Close closes the debug log file if open.
// Safe to call even if logging is disabled.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if logger != nil {
		logger.SetOutput(io.Discard)
	}
}

// Log writes a debug message if debug logging is enabled.
// Arguments are handled in the manner of fmt.Print.
func Log(v ...any) {
	entry(nil).Info(v...)
}

// Logf writes a formatted debug message if debug logging is enabled.
// Arguments are handled in the manner of fmt.Printf.
func Logf(format string, v ...any) {
	entry(nil).Infof(format, v...)
}

// Enabled returns whether debug logging is currently enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Logger tags every line with a component name, e.g. "[Dialer]".
type Logger struct {
	fields logrus.Fields
}

// For returns a component logger. It is cheap and may be kept in struct fields.
func For(component string) Logger {
	return Logger{fields: logrus.Fields{"component": component}}
}

// Log writes a component-tagged message if debug logging is enabled.
func (l Logger) Log(v ...any) {
	entry(l.fields).Info(v...)
}

// Logf writes a formatted component-tagged message if debug logging is enabled.
func (l Logger) Logf(format string, v ...any) {
	entry(l.fields).Infof(format, v...)
}

// Warnf writes a formatted warning if debug logging is enabled.
func (l Logger) Warnf(format string, v ...any) {
	entry(l.fields).Warnf(format, v...)
}

// With returns a logger carrying an extra field.
func (l Logger) With(key string, value any) Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return Logger{fields: fields}
}

var discard = func() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}()

func entry(fields logrus.Fields) *logrus.Entry {
	mu.RLock()
	defer mu.RUnlock()

	if !enabled || logger == nil {
		return discard
	}
	if len(fields) == 0 {
		return logrus.NewEntry(logger)
	}
	return logger.WithFields(fields)
}

// defaultGetLogPath returns the path to the debug log file.
func defaultGetLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, LogDirName, LogFileName), nil
}

// GetLogPath returns the path to the debug log file.
// The calling engine uses it to find the file to upload.
func GetLogPath() (string, error) {
	return getLogPath()
}
