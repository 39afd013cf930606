package metrics

import (
	"strings"
	"testing"
)

func TestSessionMetrics(t *testing.T) {
	m := NewSessionMetrics("sess-1", "rec-1")

	m.AddAudioBytes(1024)
	m.AddAudioBytes(512)
	m.SetPollAttempts(4)
	m.AddTranscript("hello world")
	m.AddTranslation("hola mundo!")
	m.Finalize()

	if m.AudioBytes != 1536 {
		t.Errorf("audio bytes = %d, want 1536", m.AudioBytes)
	}
	if m.PollAttempts != 4 {
		t.Errorf("poll attempts = %d, want 4", m.PollAttempts)
	}
	if m.TranscriptLength != len("hello world") {
		t.Errorf("transcript length = %d", m.TranscriptLength)
	}
	if m.TranslatedLength != len("hola mundo!") {
		t.Errorf("translated length = %d", m.TranslatedLength)
	}
	if m.FirstResultTime == nil {
		t.Error("first result time not set")
	}
	if m.EndTime.Before(m.StartTime) {
		t.Error("end time before start time")
	}

	summary := m.Summary()
	for _, want := range []string{"sess-1", "rec-1", "Poll Attempts: 4", "Cache Hit: false"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestSessionMetricsCacheHit(t *testing.T) {
	m := NewSessionMetrics("sess-1", "rec-1")
	m.SetCacheHit()
	m.Finalize()
	if !strings.Contains(m.Summary(), "Cache Hit: true") {
		t.Error("summary does not report the cache hit")
	}
}
