package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// impl fans every enabled entry out to its appenders. Subloggers share the appenders and copy the
// level at creation.
type impl struct {
	name      string
	level     AtomicLevel
	inUTC     bool
	appenders []Appender
}

// callerSkip is the frames runtime.Caller skips in write: write and the public logging method.
const callerSkip = 2

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{name, NewAtomicLevelAt(imp.level.Get()), imp.inUTC, imp.appenders}
}

func (imp *impl) Sync() error {
	var errs error
	for _, appender := range imp.appenders {
		errs = multierr.Append(errs, appender.Sync())
	}
	return errs
}

func (imp *impl) Desugar() *zap.Logger {
	return zap.New(&appenderCore{imp: imp}, zap.AddCaller())
}

func (imp *impl) enabled(level Level) bool {
	return level >= imp.level.Get()
}

// write stamps the entry with the time and the calling site of the public logging method, then
// hands it to every appender. It must be called directly from that method.
func (imp *impl) write(level Level, msg string, fields []zapcore.Field) {
	entry := zapcore.Entry{
		LoggerName: imp.name,
		Level:      level.AsZap(),
		Time:       time.Now(),
		Message:    msg,
	}
	if pc, file, line, ok := runtime.Caller(callerSkip); ok {
		entry.Caller = zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
		if fn := runtime.FuncForPC(pc); fn != nil {
			entry.Caller.Function = fn.Name()
		}
	}
	imp.emit(entry, fields)
}

func (imp *impl) emit(entry zapcore.Entry, fields []zapcore.Field) {
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

var errUnpairedKey = errors.New("unpaired log key")

// fieldsOf pairs up alternating keys and values. A trailing key without a value is logged with
// errUnpairedKey.
func fieldsOf(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprint(keysAndValues[i])
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(DEBUG, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(DEBUG, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(DEBUG) {
		imp.write(DEBUG, msg, fieldsOf(keysAndValues))
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(INFO, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(INFO, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.enabled(INFO) {
		imp.write(INFO, msg, fieldsOf(keysAndValues))
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(WARN, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(WARN, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(WARN) {
		imp.write(WARN, msg, fieldsOf(keysAndValues))
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(ERROR, fmt.Sprint(args...), nil)
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(ERROR, fmt.Sprintf(template, args...), nil)
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.enabled(ERROR) {
		imp.write(ERROR, msg, fieldsOf(keysAndValues))
	}
}

// appenderCore lets a zap.Logger write through the appenders of an impl.
type appenderCore struct {
	imp    *impl
	fields []zapcore.Field
}

func (core *appenderCore) Enabled(level zapcore.Level) bool {
	return core.imp.enabled(levelFromZap(level))
}

func (core *appenderCore) With(fields []zapcore.Field) zapcore.Core {
	combined := make([]zapcore.Field, 0, len(core.fields)+len(fields))
	combined = append(combined, core.fields...)
	return &appenderCore{imp: core.imp, fields: append(combined, fields...)}
}

func (core *appenderCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if core.Enabled(entry.Level) {
		return checked.AddCore(entry, core)
	}
	return checked
}

func (core *appenderCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.LoggerName == "" {
		entry.LoggerName = core.imp.name
	}
	all := make([]zapcore.Field, 0, len(core.fields)+len(fields))
	all = append(all, core.fields...)
	core.imp.emit(entry, append(all, fields...))
	return nil
}

func (core *appenderCore) Sync() error {
	return core.imp.Sync()
}
