// Package store keeps recording metadata in SQLite next to a flat
// directory of audio files. The directory is authoritative for which
// recordings exist; the database is a secondary index that self-heals
// on read.
package store

import "time"

// Recording is one voice memo in the library.
type Recording struct {
	ID            string
	Filename      string
	Filepath      string
	Duration      time.Duration
	CreatedAt     time.Time
	IsStarred     bool
	StarredAt     *time.Time
	Transcription string // latest transcription text, "" if none
}

// Transcription is a stored transcription of a recording. Rows are
// append-only; reads return the latest by creation time.
type Transcription struct {
	ID          string
	RecordingID string
	Text        string
	Language    string
	Confidence  float64
	CreatedAt   time.Time
}

// EnhancedAudio is a synthesized re-voicing of a recording's transcript.
// The latest row per recording is the active one.
type EnhancedAudio struct {
	ID          string
	RecordingID string
	VoiceID     string
	Filepath    string
	CreatedAt   time.Time
}
