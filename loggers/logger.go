package logger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// Logger is the process-wide logger, replaced by Init.
var Logger = logrus.StandardLogger()

// Init replaces the package logger with one at the given level. Unknown
// levels fall back to info.
func Init(level string) *logrus.Logger {
	Logger = New(level)
	return Logger
}

func New(level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// GormLogger sends gorm's SQL trace through logrus.
type GormLogger struct {
	Log           *logrus.Logger
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger(l *logrus.Logger) gormLogger.Interface {
	level := gormLogger.Warn
	if l.IsLevelEnabled(logrus.DebugLevel) {
		level = gormLogger.Info
	}
	return &GormLogger{
		Log:           l,
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (g *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	clone := *g
	clone.LogLevel = level
	return &clone
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if g.LogLevel >= gormLogger.Info {
		g.Log.Infof(msg, data...)
	}
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if g.LogLevel >= gormLogger.Warn {
		g.Log.Warnf(msg, data...)
	}
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if g.LogLevel >= gormLogger.Error {
		g.Log.Errorf(msg, data...)
	}
}

func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := g.Log.WithFields(logrus.Fields{
		"source":  utils.FileWithLineNum(),
		"elapsed": elapsed,
		"rows":    rows,
	})

	switch {
	case err != nil && g.LogLevel >= gormLogger.Error && err != gormLogger.ErrRecordNotFound:
		entry.WithError(err).Error(sql)
	case elapsed > g.SlowThreshold && g.LogLevel >= gormLogger.Warn:
		entry.Warnf("slow sql: %s", sql)
	case g.LogLevel >= gormLogger.Info:
		entry.Debug(sql)
	}
}
