package core

// Logger is implemented by the logging services.
// args may hold errors, maps of extra data and the user.User the log entry is about.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type discardLogger struct{}

// DiscardLogger drops everything. Fatal does not exit.
var DiscardLogger Logger = discardLogger{}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Fatal(string, ...interface{}) {}
