package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/crytic/pathfinder/logging/colors"
	"github.com/rs/zerolog"
)

// GlobalLogger is disabled until the CLI configures it. Each package derives its own sub-logger from it, so logs can
// be filtered by the "module" key.
var GlobalLogger *Logger

// Logger logs events to a console writer, with coloring and friendlier formatting, and to any number of additional
// writers.
type Logger struct {
	// level describes the log level
	level zerolog.Level

	// multiLogger writes to every registered writer, in structured or unstructured format.
	multiLogger zerolog.Logger

	// consoleLogger writes colorized, unstructured output to the console writer.
	consoleLogger zerolog.Logger

	// context holds the key-value pairs attached through NewSubLogger, so they survive writer changes.
	context []string

	// writers describes the list of io.Writer objects where non-console log output will go.
	writers []io.Writer
}

// LogFormat describes what format to log in
type LogFormat string

const (
	// STRUCTURED describes that logging should be done in structured JSON format
	STRUCTURED LogFormat = "structured"
	// UNSTRUCTURED describes that logging should be done in an unstructured format
	UNSTRUCTURED LogFormat = "unstructured"
)

// StructuredLogInfo describes a key-value mapping that can be used to log structured data
type StructuredLogInfo map[string]any

// NewLogger creates a Logger with the given level. If console is non-nil, pretty output is written to it. Any
// additional writers receive structured JSON output.
func NewLogger(level zerolog.Level, console io.Writer, writers ...io.Writer) *Logger {
	l := &Logger{
		level:         level,
		writers:       writers,
		consoleLogger: zerolog.New(io.Discard).Level(zerolog.Disabled),
	}
	if console != nil {
		l.consoleLogger = zerolog.New(setupDefaultFormatting(zerolog.ConsoleWriter{Out: console}, level)).Level(level)
	}
	l.rebuildMultiLogger()
	return l
}

// NewSubLogger returns a Logger which annotates each event with the provided key-value pair.
func (l *Logger) NewSubLogger(key string, value string) *Logger {
	context := append(append([]string{}, l.context...), key, value)
	return &Logger{
		level:         l.level,
		multiLogger:   l.multiLogger.With().Str(key, value).Logger(),
		consoleLogger: l.consoleLogger.With().Str(key, value).Logger(),
		context:       context,
		writers:       l.writers,
	}
}

// AddWriter adds a writer to the list of channels where log output will be sent. Adding a writer twice is a no-op.
// Sub-loggers created before the call do not observe the new writer.
func (l *Logger) AddWriter(writer io.Writer, format LogFormat) {
	for _, w := range l.writers {
		if w == writer {
			return
		}
	}

	if format == UNSTRUCTURED {
		writer = zerolog.ConsoleWriter{Out: writer, NoColor: true}
	}
	l.writers = append(l.writers, writer)
	l.rebuildMultiLogger()
}

// RemoveWriter removes a writer added through AddWriter. Unstructured writers cannot be removed, since they are
// wrapped when added.
func (l *Logger) RemoveWriter(writer io.Writer) {
	for i, w := range l.writers {
		if w == writer {
			l.writers = append(append([]io.Writer{}, l.writers[:i]...), l.writers[i+1:]...)
			l.rebuildMultiLogger()
			return
		}
	}
}

// Level will get the log level of the Logger
func (l *Logger) Level() zerolog.Level {
	return l.level
}

// SetLevel will update the log level of the Logger
func (l *Logger) SetLevel(level zerolog.Level) {
	l.level = level
	l.multiLogger = l.multiLogger.Level(level)
	l.consoleLogger = l.consoleLogger.Level(level)
}

func (l *Logger) rebuildMultiLogger() {
	if len(l.writers) == 0 {
		l.multiLogger = zerolog.New(io.Discard).Level(zerolog.Disabled)
		return
	}
	ctx := zerolog.New(zerolog.MultiLevelWriter(l.writers...)).Level(l.level).With().Timestamp()
	for i := 0; i+1 < len(l.context); i += 2 {
		ctx = ctx.Str(l.context[i], l.context[i+1])
	}
	l.multiLogger = ctx.Logger()
}

// Trace is a wrapper function that will log a trace event
func (l *Logger) Trace(args ...any) {
	l.log(l.consoleLogger.Trace(), l.multiLogger.Trace(), l.level <= zerolog.DebugLevel, args...)
}

// Debug is a wrapper function that will log a debug event
func (l *Logger) Debug(args ...any) {
	l.log(l.consoleLogger.Debug(), l.multiLogger.Debug(), l.level <= zerolog.DebugLevel, args...)
}

// Info is a wrapper function that will log an info event
func (l *Logger) Info(args ...any) {
	l.log(l.consoleLogger.Info(), l.multiLogger.Info(), l.level <= zerolog.DebugLevel, args...)
}

// Warn is a wrapper function that will log a warning event
func (l *Logger) Warn(args ...any) {
	l.log(l.consoleLogger.Warn(), l.multiLogger.Warn(), l.level <= zerolog.DebugLevel, args...)
}

// Error is a wrapper function that will log an error event
func (l *Logger) Error(args ...any) {
	l.log(l.consoleLogger.Error(), l.multiLogger.Error(), l.level <= zerolog.DebugLevel, args...)
}

// Panic is a wrapper function that will log a panic event
func (l *Logger) Panic(args ...any) {
	l.log(l.consoleLogger.Panic(), l.multiLogger.Panic(), true, args...)
}

func (l *Logger) log(consoleLog *zerolog.Event, multiLog *zerolog.Event, withStack bool, args ...any) {
	consoleMsg, multiMsg, err, info := buildMsgs(args...)

	// Err is nil-safe, the stack is only attached when an error is present.
	consoleLog.Err(err)
	multiLog.Err(err)
	if withStack && err != nil {
		consoleLog.Stack()
		multiLog.Stack()
	}

	if info != nil {
		consoleLog.Any("info", info)
		multiLog.Any("info", info)
	}

	// The multi logger is sent last so a panic event still reaches every channel.
	defer multiLog.Msg(multiMsg)
	consoleLog.Msg(consoleMsg)
}

// buildMsgs joins args into a colorized console message and a plain message. colors.ColorFunc arguments switch the
// color context of the arguments which follow them. At most one error and one StructuredLogInfo are extracted.
func buildMsgs(args ...any) (string, string, error, StructuredLogInfo) {
	if len(args) == 0 {
		return "", "", nil, nil
	}

	colorCtx := colors.Reset
	consoleOutput := make([]string, 0, len(args))
	plainOutput := make([]string, 0, len(args))
	var info StructuredLogInfo
	var err error
	for _, arg := range args {
		switch t := arg.(type) {
		case colors.ColorFunc:
			colorCtx = t
		case StructuredLogInfo:
			info = t
		case error:
			err = t
		default:
			consoleOutput = append(consoleOutput, colorCtx(t))
			plainOutput = append(plainOutput, fmt.Sprintf("%v", t))
		}
	}
	return strings.Join(consoleOutput, ""), strings.Join(plainOutput, ""), err, info
}

// setupDefaultFormatting drops timestamps from console output and replaces level names with colored glyphs.
func setupDefaultFormatting(writer zerolog.ConsoleWriter, level zerolog.Level) zerolog.ConsoleWriter {
	writer.FormatTimestamp = func(i any) string {
		return ""
	}

	writer.FormatLevel = func(i any) string {
		s, _ := i.(string)
		parsed, err := zerolog.ParseLevel(s)
		if err != nil {
			return s
		}

		switch parsed {
		case zerolog.TraceLevel:
			return colors.CyanBold(zerolog.LevelTraceValue)
		case zerolog.DebugLevel:
			return colors.BlueBold(zerolog.LevelDebugValue)
		case zerolog.InfoLevel:
			return colors.GreenBold(colors.LEFT_ARROW)
		case zerolog.WarnLevel:
			return colors.YellowBold(zerolog.LevelWarnValue)
		case zerolog.ErrorLevel:
			return colors.RedBold(zerolog.LevelErrorValue)
		case zerolog.FatalLevel:
			return colors.RedBold(zerolog.LevelFatalValue)
		case zerolog.PanicLevel:
			return colors.RedBold(zerolog.LevelPanicValue)
		default:
			return s
		}
	}

	// The module key is noise on the console unless we're debugging.
	if level > zerolog.DebugLevel {
		writer.FieldsExclude = []string{"module"}
	}
	return writer
}
