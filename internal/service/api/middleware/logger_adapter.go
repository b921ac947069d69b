package middleware

import (
	"io"

	applog "github.com/darkkaiser/fleet-adapter/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// EchoLogger echo 내부 로그(서버 시작 실패, 바인딩 경고 등)를 애플리케이션 로거로 보냅니다.
//
// echo의 prefix는 component 필드로 기록됩니다. Print 계열은 Info 레벨로 기록합니다.
type EchoLogger struct {
	logger    *applog.Logger
	component string
}

var _ echo.Logger = (*EchoLogger)(nil)

func NewEchoLogger(logger *applog.Logger, component string) *EchoLogger {
	return &EchoLogger{logger: logger, component: component}
}

func (l *EchoLogger) entry() *applog.Entry {
	return l.logger.WithField("component", l.component)
}

func (l *EchoLogger) with(j log.JSON) *applog.Entry {
	return l.entry().WithFields(applog.Fields(j))
}

func (l *EchoLogger) Output() io.Writer       { return l.logger.Out }
func (l *EchoLogger) SetOutput(w io.Writer)   { l.logger.SetOutput(w) }
func (l *EchoLogger) Prefix() string          { return l.component }
func (l *EchoLogger) SetPrefix(prefix string) { l.component = prefix }

// SetHeader gommon 헤더 템플릿은 logrus 포매터가 대신하므로 무시합니다.
func (l *EchoLogger) SetHeader(string) {}

// Level Trace는 DEBUG로, Fatal과 Panic만 남긴 설정은 OFF로 보입니다.
func (l *EchoLogger) Level() log.Lvl {
	switch lvl := l.logger.GetLevel(); {
	case lvl >= applog.DebugLevel:
		return log.DEBUG
	case lvl == applog.InfoLevel:
		return log.INFO
	case lvl == applog.WarnLevel:
		return log.WARN
	case lvl == applog.ErrorLevel:
		return log.ERROR
	default:
		return log.OFF
	}
}

func (l *EchoLogger) SetLevel(lvl log.Lvl) {
	levels := map[log.Lvl]applog.Level{
		log.DEBUG: applog.DebugLevel,
		log.INFO:  applog.InfoLevel,
		log.WARN:  applog.WarnLevel,
		log.ERROR: applog.ErrorLevel,
	}
	if level, ok := levels[lvl]; ok {
		l.logger.SetLevel(level)
	}
}

func (l *EchoLogger) Print(i ...any)                 { l.entry().Info(i...) }
func (l *EchoLogger) Printf(format string, a ...any) { l.entry().Infof(format, a...) }
func (l *EchoLogger) Printj(j log.JSON)              { l.with(j).Info() }

func (l *EchoLogger) Debug(i ...any)                 { l.entry().Debug(i...) }
func (l *EchoLogger) Debugf(format string, a ...any) { l.entry().Debugf(format, a...) }
func (l *EchoLogger) Debugj(j log.JSON)              { l.with(j).Debug() }

func (l *EchoLogger) Info(i ...any)                 { l.entry().Info(i...) }
func (l *EchoLogger) Infof(format string, a ...any) { l.entry().Infof(format, a...) }
func (l *EchoLogger) Infoj(j log.JSON)              { l.with(j).Info() }

func (l *EchoLogger) Warn(i ...any)                 { l.entry().Warn(i...) }
func (l *EchoLogger) Warnf(format string, a ...any) { l.entry().Warnf(format, a...) }
func (l *EchoLogger) Warnj(j log.JSON)              { l.with(j).Warn() }

func (l *EchoLogger) Error(i ...any)                 { l.entry().Error(i...) }
func (l *EchoLogger) Errorf(format string, a ...any) { l.entry().Errorf(format, a...) }
func (l *EchoLogger) Errorj(j log.JSON)              { l.with(j).Error() }

func (l *EchoLogger) Fatal(i ...any)                 { l.entry().Fatal(i...) }
func (l *EchoLogger) Fatalf(format string, a ...any) { l.entry().Fatalf(format, a...) }
func (l *EchoLogger) Fatalj(j log.JSON)              { l.with(j).Fatal() }

func (l *EchoLogger) Panic(i ...any)                 { l.entry().Panic(i...) }
func (l *EchoLogger) Panicf(format string, a ...any) { l.entry().Panicf(format, a...) }
func (l *EchoLogger) Panicj(j log.JSON)              { l.with(j).Panic() }
