package logger

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is a subsystem logger routing write requests to the Backend
// it was created from.
type Logger struct {
	level     uint32 // log level, atomic
	tag       string
	backend   *Backend
	writeChan chan<- logEntry
}

var (
	backendLog = NewBackend()

	subsystemLoggersMutex sync.Mutex
	subsystemLoggers      = make(map[string]*Logger)
)

// RegisterSubSystem returns a logger for the given subsystem tag, creating
// it if no logger was registered for the tag yet. All loggers write to the
// process-wide backend.
func RegisterSubSystem(subsystem string) *Logger {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	logger, ok := subsystemLoggers[subsystem]
	if !ok {
		logger = backendLog.Logger(subsystem)
		subsystemLoggers[subsystem] = logger
	}
	return logger
}

// InitLog attaches log file and error log file to the backend log and
// starts the backend.
func InitLog(logFile, errLogFile string) error {
	err := backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		return fmt.Errorf("error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		return fmt.Errorf("error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
	}
	err = backendLog.AddLogWriter(os.Stdout, LevelInfo)
	if err != nil {
		return fmt.Errorf("error adding stdout to the logger: %s", err)
	}
	err = backendLog.Run()
	if err != nil {
		return fmt.Errorf("error starting the logger: %s ", err)
	}
	return nil
}

// SetLogLevels sets the logging level for all of the registered subsystems.
func SetLogLevels(level Level) {
	subsystemLoggersMutex.Lock()
	defer subsystemLoggersMutex.Unlock()

	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
}

// ParseAndSetLogLevels attempts to parse the given string as a log level
// and set it for all registered subsystems.
func ParseAndSetLogLevels(logLevel string) bool {
	level, ok := LevelFromString(logLevel)
	if !ok {
		return false
	}
	SetLogLevels(level)
	return true
}

// Close shuts the process-wide logging backend down, flushing any pending
// log writes.
func Close() {
	backendLog.Close()
}

// Level returns the current logging level of the Logger.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the logging level of the Logger.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the Backend this Logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

func (l *Logger) write(logLevel Level, format *string, args ...interface{}) {
	if !l.backend.IsRunning() {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	var message string
	if format == nil {
		message = fmt.Sprint(args...)
	} else {
		message = fmt.Sprintf(*format, args...)
	}
	logLine := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, logLevel, l.tag, message)
	l.writeChan <- logEntry{log: []byte(logLine), level: logLevel}
}

func (l *Logger) print(logLevel Level, args ...interface{}) {
	if l.Level() > logLevel {
		return
	}
	l.write(logLevel, nil, args...)
}

func (l *Logger) printf(logLevel Level, format string, args ...interface{}) {
	if l.Level() > logLevel {
		return
	}
	l.write(logLevel, &format, args...)
}

// Trace formats message using the default formats for its operands and writes
// to log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.print(LevelTrace, args...)
}

// Tracef formats message according to format specifier and writes to
// log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.printf(LevelTrace, format, args...)
}

// Debug formats message using the default formats for its operands and writes
// to log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	l.print(LevelDebug, args...)
}

// Debugf formats message according to format specifier and writes to
// log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.printf(LevelDebug, format, args...)
}

// Info formats message using the default formats for its operands and writes
// to log with LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.print(LevelInfo, args...)
}

// Infof formats message according to format specifier and writes to
// log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.printf(LevelInfo, format, args...)
}

// Warn formats message using the default formats for its operands and writes
// to log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	l.print(LevelWarn, args...)
}

// Warnf formats message according to format specifier and writes to
// log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.printf(LevelWarn, format, args...)
}

// Error formats message using the default formats for its operands and writes
// to log with LevelError.
func (l *Logger) Error(args ...interface{}) {
	l.print(LevelError, args...)
}

// Errorf formats message according to format specifier and writes to
// log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.printf(LevelError, format, args...)
}

// Critical formats message using the default formats for its operands and
// writes to log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	l.print(LevelCritical, args...)
}

// Criticalf formats message according to format specifier and writes to
// log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.printf(LevelCritical, format, args...)
}
