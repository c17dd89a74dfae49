package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultTimeFormatStr is the default time format string for log appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender will create human readable lines from log events and write them to the desired
// output sync. E.g: stdout or a file.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that outputs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender creates a new appender that outputs to the input writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// FileAppender is a ConsoleAppender backed by a size-rotated log file.
type FileAppender struct {
	ConsoleAppender
	file *lumberjack.Logger
}

// NewFileAppender creates an appender that writes to `filename`, rotating it once it grows past
// `maxSizeMB` megabytes. Old files are kept up to `maxBackups`.
func NewFileAppender(filename string, maxSizeMB, maxBackups int) *FileAppender {
	file := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	return &FileAppender{ConsoleAppender: ConsoleAppender{file}, file: file}
}

// Close closes the underlying log file.
func (appender *FileAppender) Close() error {
	return appender.file.Close()
}

// Write outputs the log entry to the underlying stream.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	const maxLength = 10
	toPrint := make([]string, 0, maxLength)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))
	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	if entry.LoggerName != "" {
		toPrint = append(toPrint, entry.LoggerName)
	}
	if entry.Caller.Defined {
		toPrint = append(toPrint, callerToString(&entry.Caller))
	}
	toPrint = append(toPrint, entry.Message)
	if len(fields) == 0 {
		fmt.Fprintln(appender.Writer, strings.Join(toPrint, "\t"))
		return nil
	}

	fieldsJSON, err := fieldsToJSON(fields)
	if err != nil {
		fmt.Fprintln(appender.Writer, strings.Join(toPrint, "\t"))
		return err
	}
	toPrint = append(toPrint, fieldsJSON)
	fmt.Fprintln(appender.Writer, strings.Join(toPrint, "\t"))
	return nil
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// Use zap's json encoder which will encode the fields in-order, as opposed to the random
// iteration order of a map. An empty Entry makes only the fields become "map-ified".
func fieldsToJSON(fields []zapcore.Field) (string, error) {
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return "", err
	}
	defer buf.Free()
	return buf.String(), nil
}

// Return example: "smoothing/loco.go:36".
func callerToString(caller *zapcore.EntryCaller) string {
	return caller.TrimmedPath()
}
