package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type impl struct {
	name  string
	level AtomicLevel
	core  zapcore.Core
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	// the core is filtered by our own level so that SetLevel applies to sugared loggers handed out earlier
	core := &levelFilterCore{Core: imp.core, level: imp.level}
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	if imp.name != "" {
		zl = zl.Named(imp.name)
	}
	return zl.Sugar()
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}

	return &impl{
		name:  newName,
		level: NewAtomicLevelAt(imp.level.Get()),
		core:  imp.core,
	}
}

func (imp *impl) Sync() error {
	return imp.core.Sync()
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Debugw(msg, keysAndValues...)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Infow(msg, keysAndValues...)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Warnw(msg, keysAndValues...)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.AsZap().Errorw(msg, keysAndValues...)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.AsZap().Debugf(template, args...)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.AsZap().Infof(template, args...)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.AsZap().Warnf(template, args...)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.AsZap().Errorf(template, args...)
}

type levelFilterCore struct {
	zapcore.Core
	level AtomicLevel
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return c.level.Enabled(lvl) && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), level: c.level}
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return ce.AddCore(entry, c)
}
