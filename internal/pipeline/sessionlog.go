package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SessionLogger writes structured JSONL logs for one pipeline run.
type SessionLogger struct {
	mu   sync.Mutex
	file *os.File
}

type logRecord struct {
	Timestamp   string `json:"ts"`
	Event       string `json:"event"`
	SessionID   string `json:"session_id"`
	RecordingID string `json:"recording_id,omitempty"`
	State       string `json:"state,omitempty"`
	Language    string `json:"language,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// NewSessionLogger creates a logger under logDir. An empty logDir
// disables logging; all methods on a nil logger are no-ops.
func NewSessionLogger(logDir, sessionID string, started time.Time) (*SessionLogger, error) {
	if logDir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, err
	}
	shortID := sessionID
	if len(sessionID) > 8 {
		shortID = sessionID[:8]
	}
	filename := filepath.Join(logDir, fmt.Sprintf("%s_pipeline_%s.jsonl", started.Format("20060102_150405"), shortID))
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &SessionLogger{file: f}, nil
}

// Event appends one log line.
func (sl *SessionLogger) Event(event, sessionID, recordingID, state, language, detail string) {
	if sl == nil {
		return
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file == nil {
		return
	}

	rec := logRecord{
		Timestamp:   time.Now().UTC().Format(time.RFC3339Nano),
		Event:       event,
		SessionID:   sessionID,
		RecordingID: recordingID,
		State:       state,
		Language:    language,
		Detail:      detail,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return
	}
	sl.file.Write(append(line, '\n'))
}

// Close closes the underlying file.
func (sl *SessionLogger) Close() error {
	if sl == nil {
		return nil
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file != nil {
		err := sl.file.Close()
		sl.file = nil
		return err
	}
	return nil
}
