package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jatadi/clarity/internal/store"
	"github.com/jatadi/clarity/internal/synth"
	"github.com/jatadi/clarity/internal/transcribe"
	"github.com/jatadi/clarity/internal/translate"
)

// fakeTranscriptAPI serves the upload/submit/poll endpoints with a fixed
// terminal job payload.
func fakeTranscriptAPI(t *testing.T, terminal map[string]any, onPoll func()) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/upload":
			json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/a"})
		case r.URL.Path == "/transcript" && r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
		default:
			if onPoll != nil {
				onPoll()
			}
			json.NewEncoder(w).Encode(terminal)
		}
	}))
}

// stateCollector records every observed pipeline state.
type stateCollector struct {
	mu     sync.Mutex
	states []State
}

func (c *stateCollector) notify(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.states = append(c.states, u.State)
}

func (c *stateCollector) saw(s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, got := range c.states {
		if got == s {
			return true
		}
	}
	return false
}

type testEnv struct {
	store     *store.Store
	rec       *store.Recording
	collector *stateCollector
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"), dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}

	path := filepath.Join(dir, "memo.m4a")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	rec := &store.Recording{Filename: "memo.m4a", Filepath: path}
	if err := st.SaveRecording(rec, ""); err != nil {
		t.Fatalf("save recording: %v", err)
	}

	return &testEnv{store: st, rec: rec, collector: &stateCollector{}}
}

func (e *testEnv) orchestrator(transcriptURL, translateURL, synthURL string) *Orchestrator {
	transcriber := transcribe.NewClient(transcriptURL, "k", time.Millisecond, 10)
	translator := translate.NewClient(translateURL, "k")
	synthesizer := synth.NewClient(synthURL, "k", filepath.Dir(e.rec.Filepath))
	return New(transcriber, translator, synthesizer, e.store, nil, "", e.collector.notify)
}

func TestProcessEnglish(t *testing.T) {
	env := newTestEnv(t)

	api := fakeTranscriptAPI(t, map[string]any{
		"id": "job-1", "status": transcribe.StatusCompleted,
		"text": "hello world", "language_code": "en", "confidence": 0.9,
	}, nil)
	defer api.Close()

	deepl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("translator must not be called for English audio")
	}))
	defer deepl.Close()

	o := env.orchestrator(api.URL, deepl.URL, "")
	outcome, err := o.Process(context.Background(), env.rec)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if outcome.Text != "hello world" || outcome.Translated != "" {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Display() != "hello world" {
		t.Errorf("Display() = %q", outcome.Display())
	}

	for _, s := range []State{StateUploading, StateTranscribing, StateDone} {
		if !env.collector.saw(s) {
			t.Errorf("state %s never observed", s)
		}
	}
	if env.collector.saw(StateTranslating) {
		t.Error("translating state observed for English audio")
	}

	tr, err := env.store.TranscriptionFor(env.rec.ID)
	if err != nil {
		t.Fatalf("TranscriptionFor: %v", err)
	}
	if tr == nil || tr.Text != "hello world" || tr.Language != "en" {
		t.Errorf("stored transcription = %+v", tr)
	}
}

func TestProcessTranslatesNonEnglish(t *testing.T) {
	env := newTestEnv(t)

	api := fakeTranscriptAPI(t, map[string]any{
		"id": "job-1", "status": transcribe.StatusCompleted,
		"text": "hola mundo", "language_code": "es", "confidence": 0.88,
	}, nil)
	defer api.Close()

	deepl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{{"text": "hello world"}},
		})
	}))
	defer deepl.Close()

	o := env.orchestrator(api.URL, deepl.URL, "")
	outcome, err := o.Process(context.Background(), env.rec)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if outcome.Text != "hola mundo" || outcome.Translated != "hello world" {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Display() != "hello world" {
		t.Errorf("Display() = %q, want translation", outcome.Display())
	}
	if !env.collector.saw(StateTranslating) {
		t.Error("translating state never observed")
	}

	// The English rendition is appended last, so it wins the latest read.
	tr, err := env.store.TranscriptionFor(env.rec.ID)
	if err != nil {
		t.Fatalf("TranscriptionFor: %v", err)
	}
	if tr == nil || tr.Text != "hello world" || tr.Language != "en" {
		t.Errorf("latest stored transcription = %+v", tr)
	}
}

func TestProcessTranslationFailureKeepsOriginal(t *testing.T) {
	env := newTestEnv(t)

	api := fakeTranscriptAPI(t, map[string]any{
		"id": "job-1", "status": transcribe.StatusCompleted,
		"text": "hola mundo", "language_code": "es",
	}, nil)
	defer api.Close()

	deepl := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer deepl.Close()

	o := env.orchestrator(api.URL, deepl.URL, "")
	outcome, err := o.Process(context.Background(), env.rec)
	if err != nil {
		t.Fatalf("Process should not fail when translation fails: %v", err)
	}

	if outcome.Translated != "" {
		t.Errorf("translated = %q, want empty", outcome.Translated)
	}
	if outcome.Display() != "hola mundo" {
		t.Errorf("Display() = %q, want original text", outcome.Display())
	}

	tr, err := env.store.TranscriptionFor(env.rec.ID)
	if err != nil {
		t.Fatalf("TranscriptionFor: %v", err)
	}
	if tr == nil || tr.Text != "hola mundo" || tr.Language != "es" {
		t.Errorf("stored transcription = %+v", tr)
	}
}

func TestProcessSoftFailure(t *testing.T) {
	env := newTestEnv(t)

	api := fakeTranscriptAPI(t, map[string]any{
		"id": "job-1", "status": transcribe.StatusError, "error": "audio too short",
	}, nil)
	defer api.Close()

	o := env.orchestrator(api.URL, "", "")
	outcome, err := o.Process(context.Background(), env.rec)
	if err != nil {
		t.Fatalf("soft failure must not surface as an error: %v", err)
	}

	if outcome.SoftErr != "audio too short" || outcome.Text != "" {
		t.Errorf("outcome = %+v", outcome)
	}

	// Nothing is persisted for a failed transcription.
	tr, err := env.store.TranscriptionFor(env.rec.ID)
	if err != nil {
		t.Fatalf("TranscriptionFor: %v", err)
	}
	if tr != nil {
		t.Errorf("stored transcription = %+v, want none", tr)
	}
}

func TestProcessSupersededDiscardsResult(t *testing.T) {
	env := newTestEnv(t)

	var o *Orchestrator
	// A newer session starts while the first one is still polling.
	api := fakeTranscriptAPI(t, map[string]any{
		"id": "job-1", "status": transcribe.StatusCompleted,
		"text": "late result", "language_code": "en",
	}, func() {
		o.mu.Lock()
		o.current = "newer-session"
		o.mu.Unlock()
	})
	defer api.Close()

	o = env.orchestrator(api.URL, "", "")
	_, err := o.Process(context.Background(), env.rec)
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	tr, err := env.store.TranscriptionFor(env.rec.ID)
	if err != nil {
		t.Fatalf("TranscriptionFor: %v", err)
	}
	if tr != nil {
		t.Errorf("superseded result was persisted: %+v", tr)
	}
}

func TestEnhance(t *testing.T) {
	env := newTestEnv(t)
	if err := env.store.SaveTranscription(env.rec.ID, "hello world", "en", 0.9); err != nil {
		t.Fatalf("SaveTranscription: %v", err)
	}

	eleven := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("mp3 bytes"))
	}))
	defer eleven.Close()

	o := env.orchestrator("", "", eleven.URL)
	ea, err := o.Enhance(context.Background(), env.rec, "voice-1")
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if ea.VoiceID != "voice-1" {
		t.Errorf("voice id = %q", ea.VoiceID)
	}
	if _, err := os.Stat(ea.Filepath); err != nil {
		t.Errorf("enhanced file missing: %v", err)
	}

	latest, err := env.store.LatestEnhancedAudio(env.rec.ID)
	if err != nil {
		t.Fatalf("LatestEnhancedAudio: %v", err)
	}
	if latest == nil || latest.ID != ea.ID {
		t.Errorf("latest = %+v, want %s", latest, ea.ID)
	}

	if !env.collector.saw(StateSynthesizing) || !env.collector.saw(StateReady) {
		t.Error("synthesizing/ready states never observed")
	}
}

func TestEnhanceWithoutTranscription(t *testing.T) {
	env := newTestEnv(t)

	o := env.orchestrator("", "", "")
	if _, err := o.Enhance(context.Background(), env.rec, "voice-1"); err == nil {
		t.Fatal("expected error when no transcription is stored")
	}
}

func TestNeedsTranslation(t *testing.T) {
	cases := []struct {
		lang string
		want bool
	}{
		{"en", false},
		{"en_us", false},
		{"EN", false},
		{"es", true},
		{"de", true},
		{"", false},
	}
	for _, tc := range cases {
		if got := needsTranslation(tc.lang); got != tc.want {
			t.Errorf("needsTranslation(%q) = %v, want %v", tc.lang, got, tc.want)
		}
	}
}
