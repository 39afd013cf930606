// Package transcribe talks to an AssemblyAI-compatible speech-to-text
// provider: byte upload, asynchronous job submission, and status polling.
package transcribe

// Job statuses reported by the provider.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// Word is a single recognized word inside an utterance.
type Word struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Utterance is one diarized speaker turn.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
}

// job mirrors the provider's transcript resource. It only lives for the
// duration of one polling session.
type job struct {
	ID           string      `json:"id"`
	Status       string      `json:"status"`
	Text         string      `json:"text"`
	LanguageCode string      `json:"language_code"`
	Confidence   float64     `json:"confidence"`
	Utterances   []Utterance `json:"utterances"`
	Error        string      `json:"error"`
}

// Result is the outcome of a transcription. A set Err with empty Text is
// a soft failure: the job finished without usable text and the caller
// should degrade gracefully instead of aborting.
type Result struct {
	Text       string
	Language   string
	Confidence float64
	Utterances []Utterance
	Err        string
	Attempts   int // poll requests made before the job resolved
}

// Failed reports whether the result carries no usable transcript.
func (r *Result) Failed() bool {
	return r.Err != "" && r.Text == ""
}
