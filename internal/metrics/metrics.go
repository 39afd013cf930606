package metrics

import (
	"fmt"
	"sync"
	"time"
)

// SessionMetrics tracks one transcription pipeline run.
type SessionMetrics struct {
	SessionID        string
	RecordingID      string
	StartTime        time.Time
	EndTime          time.Time
	AudioBytes       int64
	PollAttempts     int
	TranscriptLength int
	TranslatedLength int
	CacheHit         bool
	FirstResultTime  *time.Time
	mu               sync.Mutex
}

func NewSessionMetrics(sessionID, recordingID string) *SessionMetrics {
	return &SessionMetrics{
		SessionID:   sessionID,
		RecordingID: recordingID,
		StartTime:   time.Now(),
	}
}

func (m *SessionMetrics) AddAudioBytes(bytes int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AudioBytes += bytes
}

func (m *SessionMetrics) SetPollAttempts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PollAttempts = n
}

func (m *SessionMetrics) SetCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHit = true
}

func (m *SessionMetrics) AddTranscript(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FirstResultTime == nil {
		now := time.Now()
		m.FirstResultTime = &now
	}
	m.TranscriptLength += len(text)
}

func (m *SessionMetrics) AddTranslation(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TranslatedLength += len(text)
}

func (m *SessionMetrics) Finalize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

func (m *SessionMetrics) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.EndTime.Sub(m.StartTime)
	var latency time.Duration
	if m.FirstResultTime != nil {
		latency = m.FirstResultTime.Sub(m.StartTime)
	}

	return fmt.Sprintf(
		"Session: %s\n"+
			"Recording: %s\n"+
			"Duration: %v\n"+
			"Audio Bytes Uploaded: %d\n"+
			"Poll Attempts: %d\n"+
			"Cache Hit: %v\n"+
			"Transcript Length: %d chars\n"+
			"Translated Length: %d chars\n"+
			"First Result Latency: %v\n",
		m.SessionID,
		m.RecordingID,
		duration,
		m.AudioBytes,
		m.PollAttempts,
		m.CacheHit,
		m.TranscriptLength,
		m.TranslatedLength,
		latency,
	)
}
