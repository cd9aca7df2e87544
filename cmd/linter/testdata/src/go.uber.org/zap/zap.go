// Package zap содержит минимальную заглушку для тестовых данных анализатора.
package zap

type Logger struct{}

func NewNop() *Logger { return &Logger{} }

func (l *Logger) Error(msg string) {}

func (l *Logger) Fatal(msg string) {}

func (l *Logger) Sugar() *SugaredLogger { return &SugaredLogger{} }

type SugaredLogger struct{}

func (s *SugaredLogger) Fatalf(template string, args ...interface{}) {}
