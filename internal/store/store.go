package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var (
	// ErrPersistence wraps database failures surfaced to the caller.
	ErrPersistence = errors.New("persistence error")

	// ErrNotFound is returned when a recording id or filename matches no row.
	ErrNotFound = errors.New("recording not found")
)

// audioExtensions filters which files in the storage directory count as
// recordings.
var audioExtensions = map[string]bool{
	".m4a": true,
	".wav": true,
	".mp3": true,
}

// Store provides access to the metadata database and the audio directory.
type Store struct {
	db       *sql.DB
	audioDir string
}

// Open opens (or creates) the database with WAL enabled. The pragmas go
// in the DSN so every pooled connection gets them, not just the first.
func Open(dbPath, audioDir string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrPersistence, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", ErrPersistence, err)
	}
	return &Store{db: db, audioDir: audioDir}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init idempotently ensures the schema exists. Safe to call on every
// startup; existing data is untouched.
func (s *Store) Init() error {
	schema := `
		CREATE TABLE IF NOT EXISTS recordings (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL UNIQUE,
			filepath TEXT NOT NULL,
			duration INTEGER NOT NULL DEFAULT 0,
			created_at REAL NOT NULL,
			is_starred INTEGER NOT NULL DEFAULT 0,
			starred_at REAL
		);

		CREATE TABLE IF NOT EXISTS transcriptions (
			id TEXT PRIMARY KEY,
			recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT '',
			confidence_score REAL NOT NULL DEFAULT 0,
			created_at REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS enhanced_audio (
			id TEXT PRIMARY KEY,
			recording_id TEXT NOT NULL REFERENCES recordings(id) ON DELETE CASCADE,
			voice_id TEXT NOT NULL,
			filepath TEXT NOT NULL,
			created_at REAL NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrPersistence, err)
	}
	return nil
}

// ListRecordings enumerates audio files in the storage directory and
// reconciles them against the metadata table. Files without a row get a
// default row persisted so later reads see the same id. Rows whose file
// disappeared are pruned. Sort order: starred first (most recently
// starred first), then unstarred newest first.
func (s *Store) ListRecordings() ([]Recording, error) {
	files, err := s.listAudioFiles()
	if err != nil {
		return nil, err
	}

	rows, err := s.loadRecordingRows()
	if err != nil {
		return nil, err
	}

	byFilename := make(map[string]*Recording, len(rows))
	for i := range rows {
		byFilename[rows[i].Filename] = &rows[i]
	}

	var out []Recording
	seen := make(map[string]bool, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		seen[name] = true

		if rec, ok := byFilename[name]; ok {
			out = append(out, *rec)
			continue
		}

		// File with no metadata: fabricate and persist a default row.
		rec := Recording{
			ID:        uuid.NewString(),
			Filename:  name,
			Filepath:  path,
			CreatedAt: time.Now(),
		}
		if err := s.insertRecording(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	// The directory is authoritative: drop rows for vanished files.
	for name, rec := range byFilename {
		if !seen[name] {
			if _, err := s.db.Exec(`DELETE FROM recordings WHERE id = ?`, rec.ID); err != nil {
				log.Printf("Failed to prune orphan row for %s: %v", name, err)
			}
		}
	}

	sortRecordings(out)
	return out, nil
}

func sortRecordings(recs []Recording) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.IsStarred != b.IsStarred {
			return a.IsStarred
		}
		if a.IsStarred && b.IsStarred {
			at, bt := timeOrZero(a.StarredAt), timeOrZero(b.StarredAt)
			return at.After(bt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (s *Store) listAudioFiles() ([]string, error) {
	entries, err := os.ReadDir(s.audioDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio directory: %v", ErrPersistence, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !audioExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		// Synthesized output shares the directory but is not a memo.
		if strings.HasPrefix(name, "enhanced_") {
			continue
		}
		files = append(files, filepath.Join(s.audioDir, name))
	}
	return files, nil
}

func (s *Store) loadRecordingRows() ([]Recording, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.filename, r.filepath, r.duration, r.created_at, r.is_starred, r.starred_at,
			COALESCE((
				SELECT t.text FROM transcriptions t
				WHERE t.recording_id = r.id
				ORDER BY t.created_at DESC LIMIT 1
			), '')
		FROM recordings r
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query recordings: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []Recording
	for rows.Next() {
		var rec Recording
		var durationMs int64
		var createdAt float64
		var starredAt sql.NullFloat64
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Filepath, &durationMs,
			&createdAt, &rec.IsStarred, &starredAt, &rec.Transcription); err != nil {
			return nil, fmt.Errorf("%w: scan recording: %v", ErrPersistence, err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.CreatedAt = timeFromUnix(createdAt)
		if starredAt.Valid {
			t := timeFromUnix(starredAt.Float64)
			rec.StarredAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) insertRecording(rec *Recording) error {
	_, err := s.db.Exec(`
		INSERT INTO recordings (id, filename, filepath, duration, created_at, is_starred, starred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Filename, rec.Filepath, rec.Duration.Milliseconds(),
		unixFromTime(rec.CreatedAt), rec.IsStarred, nullFromTime(rec.StarredAt))
	if err != nil {
		return fmt.Errorf("%w: insert recording: %v", ErrPersistence, err)
	}
	return nil
}

// SaveRecording inserts a recording row and, when transcription text is
// supplied, an associated transcription row.
func (s *Store) SaveRecording(rec *Recording, transcriptionText string) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.insertRecording(rec); err != nil {
		return err
	}
	if transcriptionText != "" {
		return s.SaveTranscription(rec.ID, transcriptionText, "", 0)
	}
	return nil
}

// SaveTranscription appends a transcription row for the recording.
func (s *Store) SaveTranscription(recordingID, text, language string, confidence float64) error {
	_, err := s.db.Exec(`
		INSERT INTO transcriptions (id, recording_id, text, language, confidence_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), recordingID, text, language, confidence, unixFromTime(time.Now()))
	if err != nil {
		return fmt.Errorf("%w: insert transcription: %v", ErrPersistence, err)
	}
	return nil
}

// TranscriptionFor returns the most recent transcription for the
// recording, or nil when none exists.
func (s *Store) TranscriptionFor(idOrFilename string) (*Transcription, error) {
	rec, err := s.Get(idOrFilename)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
		SELECT id, recording_id, text, language, confidence_score, created_at
		FROM transcriptions
		WHERE recording_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, rec.ID)

	var t Transcription
	var createdAt float64
	if err := row.Scan(&t.ID, &t.RecordingID, &t.Text, &t.Language, &t.Confidence, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: scan transcription: %v", ErrPersistence, err)
	}
	t.CreatedAt = timeFromUnix(createdAt)
	return &t, nil
}

// Get resolves a recording by id or filename.
func (s *Store) Get(idOrFilename string) (*Recording, error) {
	row := s.db.QueryRow(`
		SELECT r.id, r.filename, r.filepath, r.duration, r.created_at, r.is_starred, r.starred_at,
			COALESCE((
				SELECT t.text FROM transcriptions t
				WHERE t.recording_id = r.id
				ORDER BY t.created_at DESC LIMIT 1
			), '')
		FROM recordings r
		WHERE r.id = ? OR r.filename = ?
	`, idOrFilename, idOrFilename)

	var rec Recording
	var durationMs int64
	var createdAt float64
	var starredAt sql.NullFloat64
	if err := row.Scan(&rec.ID, &rec.Filename, &rec.Filepath, &durationMs,
		&createdAt, &rec.IsStarred, &starredAt, &rec.Transcription); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scan recording: %v", ErrPersistence, err)
	}
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	rec.CreatedAt = timeFromUnix(createdAt)
	if starredAt.Valid {
		t := timeFromUnix(starredAt.Float64)
		rec.StarredAt = &t
	}
	return &rec, nil
}

// DeleteRecording removes the recording row, its dependent rows and
// files, and the audio file itself. Missing rows and missing files are
// not errors, so calling it twice is safe.
func (s *Store) DeleteRecording(idOrFilename string) error {
	rec, err := s.Get(idOrFilename)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Enhanced audio files must go before their rows cascade away.
	enhanced, err := s.enhancedAudioFor(rec.ID)
	if err != nil {
		return err
	}
	for _, ea := range enhanced {
		removeFileBestEffort(ea.Filepath)
	}

	if _, err := s.db.Exec(`DELETE FROM recordings WHERE id = ?`, rec.ID); err != nil {
		return fmt.Errorf("%w: delete recording: %v", ErrPersistence, err)
	}

	removeFileBestEffort(rec.Filepath)
	return nil
}

// StarRecording sets or clears the star on a recording.
func (s *Store) StarRecording(idOrFilename string, starred bool) error {
	rec, err := s.Get(idOrFilename)
	if err != nil {
		return err
	}

	var starredAt any
	if starred {
		starredAt = unixFromTime(time.Now())
	}
	if _, err := s.db.Exec(`
		UPDATE recordings SET is_starred = ?, starred_at = ? WHERE id = ?
	`, starred, starredAt, rec.ID); err != nil {
		return fmt.Errorf("%w: update star: %v", ErrPersistence, err)
	}
	return nil
}

// RenameRecording renames the underlying file and then updates the row.
// If the file move fails the row is left untouched; if the row update
// fails the move is rolled back, so file and metadata never diverge.
func (s *Store) RenameRecording(idOrFilename, newName string) error {
	rec, err := s.Get(idOrFilename)
	if err != nil {
		return err
	}

	if filepath.Ext(newName) == "" {
		newName += filepath.Ext(rec.Filename)
	}
	newPath := filepath.Join(filepath.Dir(rec.Filepath), newName)

	if err := os.Rename(rec.Filepath, newPath); err != nil {
		return fmt.Errorf("%w: rename file: %v", ErrPersistence, err)
	}

	if _, err := s.db.Exec(`
		UPDATE recordings SET filename = ?, filepath = ? WHERE id = ?
	`, newName, newPath, rec.ID); err != nil {
		if rbErr := os.Rename(newPath, rec.Filepath); rbErr != nil {
			log.Printf("Failed to roll back rename of %s: %v", newPath, rbErr)
		}
		return fmt.Errorf("%w: update recording name: %v", ErrPersistence, err)
	}
	return nil
}

// SaveEnhancedAudio records a synthesized audio file for the recording.
func (s *Store) SaveEnhancedAudio(recordingID, voiceID, path string) (*EnhancedAudio, error) {
	ea := &EnhancedAudio{
		ID:          uuid.NewString(),
		RecordingID: recordingID,
		VoiceID:     voiceID,
		Filepath:    path,
		CreatedAt:   time.Now(),
	}
	_, err := s.db.Exec(`
		INSERT INTO enhanced_audio (id, recording_id, voice_id, filepath, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, ea.ID, ea.RecordingID, ea.VoiceID, ea.Filepath, unixFromTime(ea.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("%w: insert enhanced audio: %v", ErrPersistence, err)
	}
	return ea, nil
}

// LatestEnhancedAudio returns the most recent enhanced audio for the
// recording, or nil when none exists.
func (s *Store) LatestEnhancedAudio(recordingID string) (*EnhancedAudio, error) {
	row := s.db.QueryRow(`
		SELECT id, recording_id, voice_id, filepath, created_at
		FROM enhanced_audio
		WHERE recording_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, recordingID)

	var ea EnhancedAudio
	var createdAt float64
	if err := row.Scan(&ea.ID, &ea.RecordingID, &ea.VoiceID, &ea.Filepath, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: scan enhanced audio: %v", ErrPersistence, err)
	}
	ea.CreatedAt = timeFromUnix(createdAt)
	return &ea, nil
}

// DeleteEnhancedAudio removes one enhanced audio row and its file.
func (s *Store) DeleteEnhancedAudio(id string) error {
	row := s.db.QueryRow(`SELECT filepath FROM enhanced_audio WHERE id = ?`, id)
	var path string
	if err := row.Scan(&path); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("%w: scan enhanced audio: %v", ErrPersistence, err)
	}

	if _, err := s.db.Exec(`DELETE FROM enhanced_audio WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete enhanced audio: %v", ErrPersistence, err)
	}
	removeFileBestEffort(path)
	return nil
}

func (s *Store) enhancedAudioFor(recordingID string) ([]EnhancedAudio, error) {
	rows, err := s.db.Query(`
		SELECT id, recording_id, voice_id, filepath, created_at
		FROM enhanced_audio
		WHERE recording_id = ?
	`, recordingID)
	if err != nil {
		return nil, fmt.Errorf("%w: query enhanced audio: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []EnhancedAudio
	for rows.Next() {
		var ea EnhancedAudio
		var createdAt float64
		if err := rows.Scan(&ea.ID, &ea.RecordingID, &ea.VoiceID, &ea.Filepath, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan enhanced audio: %v", ErrPersistence, err)
		}
		ea.CreatedAt = timeFromUnix(createdAt)
		out = append(out, ea)
	}
	return out, rows.Err()
}

// removeFileBestEffort logs instead of failing: a vanished file must not
// block a metadata delete.
func removeFileBestEffort(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove file %s: %v", path, err)
	}
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func nullFromTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return unixFromTime(*t)
}
