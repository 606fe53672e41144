//go:build !tinygo

package host

import (
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes log lines to stdout and, when a path is given, to a rotating
// log file.
type Logger struct {
	mu   sync.Mutex
	w    io.Writer
	file *lumberjack.Logger
}

// NewLogger returns a logger writing to out (stdout when nil) and to path
// when it is not empty.
func NewLogger(out io.Writer, path string) *Logger {
	if out == nil {
		out = os.Stdout
	}
	l := &Logger{w: out}
	if path != "" {
		l.file = &lumberjack.Logger{
			Filename:   path,
			MaxSize:    1, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		l.w = io.MultiWriter(out, l.file)
	}
	return l
}

func (l *Logger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, s+"\n")
}

func (l *Logger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := make([]byte, 0, len(b)+1)
	line = append(line, b...)
	l.w.Write(append(line, '\n'))
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
