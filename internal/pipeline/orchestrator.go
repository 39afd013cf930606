// Package pipeline sequences the cloud transcription flow for one
// recording: upload, transcribe with language detection, translate to
// English when needed, and on demand re-synthesize the transcript as
// audio. State transitions are pushed to an observer so the presentation
// layer can show partial results while later stages run.
package pipeline

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jatadi/clarity/internal/metrics"
	"github.com/jatadi/clarity/internal/store"
	"github.com/jatadi/clarity/internal/synth"
	"github.com/jatadi/clarity/internal/transcribe"
	"github.com/jatadi/clarity/internal/translate"
)

// State is one step of the per-recording state machine.
type State string

const (
	StateIdle         State = "idle"
	StateUploading    State = "uploading"
	StateTranscribing State = "transcribing"
	StateTranslating  State = "translating"
	StateDone         State = "done"
	StateSynthesizing State = "synthesizing"
	StateReady        State = "ready"
)

// ErrSuperseded is returned when a newer session started while this one
// was still polling; its results are discarded, not applied.
var ErrSuperseded = errors.New("session superseded")

// Outcome is the result of a pipeline run. SoftErr set with empty Text
// means the job finished without a usable transcript; the recording
// itself is still saved and playable.
type Outcome struct {
	Text       string // original-language transcript
	Translated string // English text, "" when no translation happened
	Language   string
	Confidence float64
	SoftErr    string
}

// Display returns the text to show: the translation when present,
// otherwise the original transcript.
func (o *Outcome) Display() string {
	if o.Translated != "" {
		return o.Translated
	}
	return o.Text
}

// Update is pushed to the observer on every state transition. Outcome is
// non-nil once partial results exist, so the original-language text is
// visible while translation is still running.
type Update struct {
	SessionID string
	State     State
	Outcome   *Outcome
}

// Notify observes pipeline progress. Calls happen on the pipeline's
// goroutine; observers should not block.
type Notify func(Update)

// Orchestrator wires the remote clients and the store together.
type Orchestrator struct {
	transcriber *transcribe.Client
	translator  *translate.Client
	synthesizer *synth.Client
	store       *store.Store
	cache       *transcribe.Cache
	logDir      string
	notify      Notify

	mu      sync.Mutex
	current string // id of the active session; stale results are dropped
}

// New creates an orchestrator. cache may be nil; notify may be nil.
func New(transcriber *transcribe.Client, translator *translate.Client, synthesizer *synth.Client,
	st *store.Store, cache *transcribe.Cache, logDir string, notify Notify) *Orchestrator {
	if notify == nil {
		notify = func(Update) {}
	}
	return &Orchestrator{
		transcriber: transcriber,
		translator:  translator,
		synthesizer: synthesizer,
		store:       st,
		cache:       cache,
		logDir:      logDir,
		notify:      notify,
	}
}

// Process runs upload, transcription and (for non-English audio)
// translation for the recording, persists the transcription rows, and
// returns the outcome. Starting a new Process supersedes any session
// still in flight: the old session's results are discarded when they
// arrive.
func (o *Orchestrator) Process(ctx context.Context, rec *store.Recording) (*Outcome, error) {
	sessionID := uuid.NewString()
	o.mu.Lock()
	o.current = sessionID
	o.mu.Unlock()

	started := time.Now()
	m := metrics.NewSessionMetrics(sessionID, rec.ID)
	slog, err := NewSessionLogger(o.logDir, sessionID, started)
	if err != nil {
		log.Printf("Failed to open session log: %v", err)
	}
	defer slog.Close()
	defer func() {
		m.Finalize()
		log.Printf("Pipeline session finished:\n%s", m.Summary())
	}()

	slog.Event("start", sessionID, rec.ID, string(StateIdle), "", rec.Filename)

	result, err := o.transcribeStage(ctx, sessionID, rec, m, slog)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Text:       result.Text,
		Language:   result.Language,
		Confidence: result.Confidence,
		SoftErr:    result.Err,
	}

	if result.Failed() {
		slog.Event("soft_failure", sessionID, rec.ID, string(StateDone), "", result.Err)
		o.finish(sessionID, rec, outcome, slog)
		return outcome, nil
	}
	m.AddTranscript(result.Text)

	if needsTranslation(result.Language) {
		// Partial result first: the original text is displayable while
		// the translation call runs.
		o.emit(sessionID, StateTranslating, outcome)
		slog.Event("translating", sessionID, rec.ID, string(StateTranslating), result.Language, "")

		translated, err := o.translator.ToEnglish(ctx, result.Text, result.Language)
		if err != nil {
			// Non-fatal: keep showing the original-language transcript.
			log.Printf("Translation failed for %s: %v", rec.Filename, err)
			slog.Event("translate_failed", sessionID, rec.ID, string(StateTranslating), result.Language, err.Error())
		} else {
			outcome.Translated = translated
			m.AddTranslation(translated)
		}
	}

	return outcome, o.applyResult(sessionID, rec, outcome, slog)
}

// transcribeStage covers cache lookup, upload, submission and polling.
func (o *Orchestrator) transcribeStage(ctx context.Context, sessionID string, rec *store.Recording,
	m *metrics.SessionMetrics, slog *SessionLogger) (*transcribe.Result, error) {

	var cacheKey string
	if o.cache != nil {
		key, err := o.cache.Key(rec.Filepath)
		if err == nil {
			cacheKey = key
			if cached := o.cache.Get(cacheKey); cached != nil {
				m.SetCacheHit()
				slog.Event("cache_hit", sessionID, rec.ID, string(StateTranscribing), cached.Language, "")
				return cached, nil
			}
		}
	}

	o.emit(sessionID, StateUploading, nil)
	slog.Event("uploading", sessionID, rec.ID, string(StateUploading), "", "")

	if info, err := os.Stat(rec.Filepath); err == nil {
		m.AddAudioBytes(info.Size())
	}

	uploadURL, err := o.transcriber.Upload(ctx, rec.Filepath)
	if err != nil {
		return nil, err
	}

	jobID, err := o.transcriber.SubmitJob(ctx, uploadURL)
	if err != nil {
		return nil, err
	}

	o.emit(sessionID, StateTranscribing, nil)
	slog.Event("transcribing", sessionID, rec.ID, string(StateTranscribing), "", jobID)

	result, err := o.transcriber.PollUntilDone(ctx, jobID)
	if err != nil {
		return nil, err
	}
	m.SetPollAttempts(result.Attempts)

	if cacheKey != "" && !result.Failed() {
		if err := o.cache.Put(cacheKey, result); err != nil {
			log.Printf("Failed to cache transcript: %v", err)
		}
	}
	return result, nil
}

// applyResult persists the transcription rows, unless the session has
// been superseded in the meantime.
func (o *Orchestrator) applyResult(sessionID string, rec *store.Recording, outcome *Outcome, slog *SessionLogger) error {
	if o.stale(sessionID) {
		slog.Event("discarded", sessionID, rec.ID, "", "", "superseded by newer session")
		return ErrSuperseded
	}

	if err := o.store.SaveTranscription(rec.ID, outcome.Text, outcome.Language, outcome.Confidence); err != nil {
		return err
	}
	if outcome.Translated != "" {
		// Append the English rendition; latest-by-created_at wins on read.
		if err := o.store.SaveTranscription(rec.ID, outcome.Translated, "en", outcome.Confidence); err != nil {
			return err
		}
	}

	o.finish(sessionID, rec, outcome, slog)
	return nil
}

func (o *Orchestrator) finish(sessionID string, rec *store.Recording, outcome *Outcome, slog *SessionLogger) {
	o.emit(sessionID, StateDone, outcome)
	slog.Event("done", sessionID, rec.ID, string(StateDone), outcome.Language, "")
}

// Enhance synthesizes the recording's latest transcript as new audio and
// records it. Requires a stored transcription.
func (o *Orchestrator) Enhance(ctx context.Context, rec *store.Recording, voiceID string) (*store.EnhancedAudio, error) {
	t, err := o.store.TranscriptionFor(rec.ID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.Text == "" {
		return nil, errors.New("recording has no transcription to synthesize")
	}

	sessionID := uuid.NewString()
	o.emit(sessionID, StateSynthesizing, nil)

	path, err := o.synthesizer.Synthesize(ctx, t.Text, voiceID)
	if err != nil {
		return nil, err
	}

	ea, err := o.store.SaveEnhancedAudio(rec.ID, voiceID, path)
	if err != nil {
		// Orphaned file would otherwise linger next to real memos.
		os.Remove(path)
		return nil, err
	}

	o.emit(sessionID, StateReady, nil)
	return ea, nil
}

func (o *Orchestrator) emit(sessionID string, state State, outcome *Outcome) {
	o.notify(Update{SessionID: sessionID, State: state, Outcome: outcome})
}

func (o *Orchestrator) stale(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current != sessionID
}

// needsTranslation reports whether the detected language requires the
// translation stage. Unknown languages are left untranslated.
func needsTranslation(lang string) bool {
	if lang == "" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(lang), "en")
}
