package ui

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

const maxLogLines = 1000

type LogLevel uint8

const (
	LogLevelInfo LogLevel = iota
	LogLevelWarning
	LogLevelError
)

type LogMsg struct {
	Time   time.Time
	Level  LogLevel
	Source string
	Text   string
}

// UILogger keeps the last log lines for the log view and forwards them
// to the running program.
type UILogger struct {
	program *tea.Program

	mutex          sync.Mutex
	unreadPerLevel map[LogLevel]int
	messages       []LogMsg
}

func NewUILogger() *UILogger {
	return &UILogger{
		unreadPerLevel: make(map[LogLevel]int),
	}
}

// Attach makes the logger notify p about new lines. Must be called before p runs.
func (l *UILogger) Attach(p *tea.Program) {
	l.program = p
}

func (l *UILogger) send(level LogLevel, source, text string) {
	msg := LogMsg{
		Time:   time.Now(),
		Level:  level,
		Source: source,
		Text:   text,
	}

	l.mutex.Lock()
	if len(l.messages) >= maxLogLines {
		copy(l.messages, l.messages[1:])
		l.messages[len(l.messages)-1] = msg
	} else {
		l.messages = append(l.messages, msg)
	}
	l.unreadPerLevel[level]++
	l.mutex.Unlock()

	if l.program != nil {
		// Send blocks until the program reads it, don't stall the caller
		go l.program.Send(msg)
	}
}

func (l *UILogger) Infof(source, format string, args ...any) {
	l.send(LogLevelInfo, source, fmt.Sprintf(format, args...))
}

func (l *UILogger) Warningf(source, format string, args ...any) {
	l.send(LogLevelWarning, source, fmt.Sprintf(format, args...))
}

func (l *UILogger) Errorf(source, format string, args ...any) {
	l.send(LogLevelError, source, fmt.Sprintf(format, args...))
}

// Messages returns a copy of the buffered log lines.
func (l *UILogger) Messages() []LogMsg {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return slices.Clone(l.messages)
}

func (l *UILogger) unread() (info, warn, errors int) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.unreadPerLevel[LogLevelInfo], l.unreadPerLevel[LogLevelWarning], l.unreadPerLevel[LogLevelError]
}

func (l *UILogger) markRead() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	clear(l.unreadPerLevel)
}

var _ zerolog.LevelWriter = (*UILogger)(nil)

// Write implements io.Writer for zerolog. Lines without a level are treated as info.
func (l *UILogger) Write(p []byte) (int, error) {
	return l.WriteLevel(zerolog.InfoLevel, p)
}

// WriteLevel takes one JSON encoded zerolog event and mirrors it into the log view.
// Debug and trace events are dropped.
func (l *UILogger) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	var logLevel LogLevel
	switch level {
	case zerolog.InfoLevel, zerolog.NoLevel:
		logLevel = LogLevelInfo
	case zerolog.WarnLevel:
		logLevel = LogLevelWarning
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		logLevel = LogLevelError
	default:
		return len(p), nil
	}

	var event map[string]any
	if err := json.Unmarshal(p, &event); err != nil {
		// not JSON, show it verbatim
		l.send(logLevel, "log", strings.TrimSpace(string(p)))
		return len(p), nil
	}

	source, _ := event["component"].(string)
	if source == "" {
		source = "app"
	}
	text, _ := event[zerolog.MessageFieldName].(string)
	if errText, ok := event[zerolog.ErrorFieldName].(string); ok {
		text += ": " + errText
	}
	l.send(logLevel, source, text)
	return len(p), nil
}
