package shared

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/DaniilsFirgers/dzivoklitis/internal/contextkeys"
	"github.com/DaniilsFirgers/dzivoklitis/internal/core/port"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Info(msg string, fields port.Fields)  {}
func (l *recordingLogger) Debug(msg string, fields port.Fields) {}
func (l *recordingLogger) Warn(msg string, fields port.Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *recordingLogger) Error(msg string, err error, fields port.Fields) {}
func (l *recordingLogger) WithFields(fields port.Fields) port.LoggerPort   { return l }

func TestDecodeHead(t *testing.T) {
	type head struct {
		ID   string `json:"id"`
		Date string `json:"date"`
	}

	t.Run("valid", func(t *testing.T) {
		logger := &recordingLogger{}
		ctx := contextkeys.ContextWithLogger(context.Background(), logger)

		var h head
		DecodeHead(ctx, json.RawMessage(`{"id":"a1","date":"2024-03-05"}`), &h)
		if h.ID != "a1" || h.Date != "2024-03-05" {
			t.Errorf("got %+v", h)
		}
		if len(logger.warns) != 0 {
			t.Errorf("unexpected warnings %v", logger.warns)
		}
	})

	t.Run("type mismatch is logged", func(t *testing.T) {
		logger := &recordingLogger{}
		ctx := contextkeys.ContextWithLogger(context.Background(), logger)

		var h head
		DecodeHead(ctx, json.RawMessage(`{"id":"a1","date":5}`), &h)
		if len(logger.warns) != 1 {
			t.Fatalf("warnings: got %d, want 1", len(logger.warns))
		}
	})
}
