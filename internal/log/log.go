// Package log provides the key/value logger used across the catalog client,
// the local server, and the CLI.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger logs a message followed by key value pairs. Keys must be strings and
// values should have a meaningful string representation.
type Logger interface {
	Debug(string, ...any)
	Info(string, ...any)
	Error(string, ...any)
	With(...any) Logger
}

// Root is the process-wide default logger. It writes to stderr with debug
// output off; callers wanting debug output build their own with New.
var Root Logger = New(os.Stderr, false)

// Default writes through a standard library *log.Logger.
type Default struct {
	out     *log.Logger
	verbose bool
	Tags    []any
}

// New returns a Default logger writing to w.
func New(w io.Writer, verbose bool) *Default {
	return &Default{out: log.New(w, "", log.LstdFlags), verbose: verbose}
}

func (l *Default) Debug(m string, kv ...any) {
	if l.verbose {
		l.out.Print(tfmt("DEB ", m, kv, l.Tags))
	}
}
func (l *Default) Info(m string, kv ...any)  { l.out.Print(tfmt("INF ", m, kv, l.Tags)) }
func (l *Default) Error(m string, kv ...any) { l.out.Print(tfmt("ERR ", m, kv, l.Tags)) }

func (l *Default) With(tags ...any) Logger {
	t := make([]any, 0, len(tags)+len(l.Tags))
	t = append(t, tags...)
	t = append(t, l.Tags...)
	return &Default{out: l.out, verbose: l.verbose, Tags: t}
}

// Discard drops everything. Useful in tests.
type Discard struct{}

func (Discard) Debug(string, ...any) {}
func (Discard) Info(string, ...any)  {}
func (Discard) Error(string, ...any) {}
func (d Discard) With(...any) Logger { return d }

func tfmt(lvl, msg string, all ...[]any) string {
	var b strings.Builder
	b.WriteString(lvl)
	b.WriteString(msg)
	for _, tags := range all {
		for i, v := range tags {
			if i%2 == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte('=')
			}
			b.WriteString(fmt.Sprint(v))
		}
	}
	return b.String()
}
