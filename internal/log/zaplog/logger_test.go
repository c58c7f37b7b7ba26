package zaplog

import (
	"testing"

	"github.com/ridgewayhq/ridgeway/pkg/log"
)

func TestNewLoggerImplementsInterface(t *testing.T) {
	l, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var _ log.Logger = l

	l.Info("hello", log.String("k", "v"))
	child := l.With(log.String("component", "test"))
	child.Warn("warned")
}
