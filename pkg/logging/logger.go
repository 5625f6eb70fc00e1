package logging

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/fatih/color"
)

// Logger interface for logging messages.
type Logger interface {
	Panic(format string, v ...any)
	Error(format string, v ...any)
	Warning(format string, v ...any)
	Info(format string, v ...any)
	Debug(format string, v ...any)
	// CopyWithPrefix returns a new logger that tags every line with prefix.
	CopyWithPrefix(prefix string) Logger
	// SupportColor returns if current logger support outputting colors.
	SupportColor() bool
}

type LogLevel string

const (
	LevelError         LogLevel = "error"
	LevelWarning       LogLevel = "warning"
	LevelInformational LogLevel = "info"
	LevelDebug         LogLevel = "debug"
)

type loggerCtx struct{}

// NewConsoleLogger returns a logger printing to stdout.
func NewConsoleLogger(level LogLevel) Logger {
	return NewLogger(level, color.Output)
}

// NewLogger returns a logger writing to out, dropping lines below level.
func NewLogger(level LogLevel, out io.Writer) Logger {
	logFunc := func(level string) loggingFunc {
		return func(logger *consoleLogger, s string, a ...any) {
			logger.println(level, fmt.Sprintf(s, a...))
		}
	}

	logger := &consoleLogger{
		out:     out,
		warning: logFunc("Warn"),
		panic: func(logger *consoleLogger, s string, a ...any) {
			msg := fmt.Sprintf(s, a...)
			logger.println("Panic", msg)
			panic(msg)
		},
		error: logFunc("Error"),
		info:  logFunc("Info"),
		debug: logFunc("Debug"),
	}

	switch level {
	case LevelError:
		logger.warning = noopLoggingFunc
		logger.info = noopLoggingFunc
		logger.debug = noopLoggingFunc
	case LevelWarning:
		logger.info = noopLoggingFunc
		logger.debug = noopLoggingFunc
	case LevelInformational:
		logger.debug = noopLoggingFunc
	}

	return logger
}

// NewContext stores l in ctx.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerCtx{}, l)
}

// FromContext retrieves a logger from context, falling back to a debug console logger.
func FromContext(ctx context.Context) Logger {
	v, ok := ctx.Value(loggerCtx{}).(Logger)
	if !ok {
		v = NewConsoleLogger(LevelDebug)
	}
	return v
}

type consoleLogger struct {
	out     io.Writer
	warning loggingFunc
	panic   loggingFunc
	error   loggingFunc
	info    loggingFunc
	debug   loggingFunc
	prefix  string
}

func (ll *consoleLogger) Panic(format string, v ...any) {
	ll.panic(ll, format, v...)
}

func (ll *consoleLogger) Error(format string, v ...any) {
	ll.error(ll, format, v...)
}

func (ll *consoleLogger) Warning(format string, v ...any) {
	ll.warning(ll, format, v...)
}

func (ll *consoleLogger) Info(format string, v ...any) {
	ll.info(ll, format, v...)
}

func (ll *consoleLogger) Debug(format string, v ...any) {
	ll.debug(ll, format, v...)
}

func (ll *consoleLogger) println(level string, msg string) {
	_, filename, line, _ := runtime.Caller(3)

	_, _ = fmt.Fprintf(ll.out,
		"%s\t %s [%s:%d]%s %s\n",
		colors[level]("["+level+"]"),
		time.Now().Format("2006-01-02 15:04:05"),
		filename,
		line,
		ll.prefix,
		msg,
	)
}

func (ll *consoleLogger) CopyWithPrefix(prefix string) Logger {
	return &consoleLogger{
		out:     ll.out,
		warning: ll.warning,
		panic:   ll.panic,
		error:   ll.error,
		info:    ll.info,
		debug:   ll.debug,
		prefix:  ll.prefix + " " + prefix,
	}
}

func (ll *consoleLogger) SupportColor() bool {
	return !color.NoColor
}

type loggingFunc func(*consoleLogger, string, ...any)

func noopLoggingFunc(*consoleLogger, string, ...any) {}

var colors = map[string]func(a ...interface{}) string{
	"Warn":  color.New(color.FgYellow).Add(color.Bold).SprintFunc(),
	"Panic": color.New(color.BgRed).Add(color.Bold).SprintFunc(),
	"Error": color.New(color.FgRed).Add(color.Bold).SprintFunc(),
	"Info":  color.New(color.FgCyan).Add(color.Bold).SprintFunc(),
	"Debug": color.New(color.FgWhite).Add(color.Bold).SprintFunc(),
}

// Request logs one finished HTTP request.
func Request(l Logger, code int, method, clientIP, path string, start time.Time) {
	status := fmt.Sprintf("%3d", code)
	if l.SupportColor() {
		status = statusColor(code).Sprint(status)
	}

	l.Info("[HTTP] %s | %13v | %15s | %-7s %#v",
		status,
		time.Since(start),
		clientIP,
		method,
		path,
	)
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen)
	case code >= 300 && code < 400:
		return color.New(color.FgWhite)
	case code >= 400 && code < 500:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
