// Package logger provides the logrus formatter used by all txstats binaries,
// and a helper to configure the standard logrus logger with it.
package logger

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const DefaultTimestampFormat = "2006-01-02 15:04:05.000"

// TextFormatter renders entries as
//
//	<timestamp> [LEVEL] [module] message key=value key=value
type TextFormatter struct {
	// Disable timestamp logging. useful when output is redirected to logging
	// system that already adds timestamps
	DisableTimestamp bool

	// Timestamp format to use for display when a full timestamp is printed
	TimestampFormat string

	// Wrap empty fields in quotes if true
	QuoteEmptyFields bool

	// The name of the module (api, sweeper, kafka-tx-in, etc...),
	// prints before the log message, doesn't print if empty
	ModuleName string
}

// Format renders a single log entry.
// It is meant to be called from github.com/sirupsen/logrus.
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	if !f.DisableTimestamp {
		format := f.TimestampFormat
		if format == "" {
			format = DefaultTimestampFormat
		}
		b.WriteString(entry.Time.Format(format))
		b.WriteByte(' ')
	}

	b.WriteByte('[')
	b.WriteString(strings.ToUpper(entry.Level.String()))
	b.WriteString("] ")

	if f.ModuleName != "" {
		b.WriteByte('[')
		b.WriteString(f.ModuleName)
		b.WriteString("] ")
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		f.appendValue(b, entry.Data[k])
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *TextFormatter) needsQuoting(text string) bool {
	if len(text) == 0 {
		return f.QuoteEmptyFields
	}
	for _, ch := range text {
		if !((ch >= 'a' && ch <= 'z') ||
			(ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') ||
			ch == '-' || ch == '.') {
			return true
		}
	}
	return false
}

func (f *TextFormatter) appendValue(b *bytes.Buffer, value interface{}) {
	var str string
	switch value := value.(type) {
	case string:
		str = value
	case error:
		str = value.Error()
	default:
		fmt.Fprint(b, value)
		return
	}
	if f.needsQuoting(str) {
		fmt.Fprintf(b, "%q", str)
		return
	}
	b.WriteString(str)
}

// Setup installs our formatter on the standard logrus logger and sets its level.
// level is one of panic|fatal|error|warning|info|debug
func Setup(level, module string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log-level: %s", err)
	}
	logrus.SetFormatter(&TextFormatter{
		TimestampFormat: DefaultTimestampFormat,
		ModuleName:      module,
	})
	logrus.SetLevel(lvl)
	return nil
}
