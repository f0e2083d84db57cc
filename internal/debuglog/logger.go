// Package debuglog records diagnostic messages for the token client.
package debuglog

import (
	"unicode/utf8"

	loggregator "code.cloudfoundry.org/go-loggregator"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxResponseText = 2000
	sourceType             = "POW"
)

// LogClient forwards log lines to loggregator.
type LogClient interface {
	EmitLog(message string, opts ...loggregator.EmitLogOption)
}

// Logger writes info and error records to a logrus logger and optionally
// forwards them to loggregator.
type Logger struct {
	log             logrus.FieldLogger
	maxResponseText int

	logClient LogClient
	appInfo   loggregator.EmitLogOption
}

type Option func(*Logger)

// WithLogClient forwards every record to c, tagged with the given source id
// and instance.
func WithLogClient(c LogClient, sourceID, instance string) Option {
	return func(l *Logger) {
		l.logClient = c
		l.appInfo = loggregator.WithAppInfo(sourceID, sourceType, instance)
	}
}

// WithMaxResponseText limits how much of a response body is kept in an
// error record.
func WithMaxResponseText(n int) Option {
	return func(l *Logger) {
		l.maxResponseText = n
	}
}

func New(log logrus.FieldLogger, opts ...Option) *Logger {
	l := &Logger{
		log:             log,
		maxResponseText: defaultMaxResponseText,
	}

	for _, o := range opts {
		o(l)
	}

	return l
}

func (l *Logger) LogInfo(message string) {
	l.log.Info(message)
	l.emit(message)
}

func (l *Logger) LogError(errorMessage string, statusCode int, responseText, source string) {
	l.log.WithFields(logrus.Fields{
		"status_code":   statusCode,
		"response_text": l.truncate(responseText),
		"source":        source,
	}).Error(errorMessage)
	l.emit("ERROR: " + errorMessage)
}

func (l *Logger) emit(message string) {
	if l.logClient == nil {
		return
	}
	l.logClient.EmitLog(message, l.appInfo)
}

func (l *Logger) truncate(s string) string {
	if l.maxResponseText <= 0 || len(s) <= l.maxResponseText {
		return s
	}

	n := l.maxResponseText
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
