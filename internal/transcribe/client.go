package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

var (
	// ErrUpload means the audio bytes never reached the provider.
	ErrUpload = errors.New("upload failed")

	// ErrSubmission means the transcription job could not be created.
	ErrSubmission = errors.New("job submission failed")

	// ErrTimeout means the job did not reach a terminal status within the
	// polling budget.
	ErrTimeout = errors.New("transcription timed out")
)

// Client submits audio to the provider and polls jobs to completion.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	maxAttempts  int
}

// NewClient constructs a client. Credentials are injected here, never
// read from globals.
func NewClient(baseURL, apiKey string, pollInterval time.Duration, maxAttempts int) *Client {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	if maxAttempts <= 0 {
		maxAttempts = 60
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
		maxAttempts:  maxAttempts,
	}
}

// Upload sends the local audio file as an opaque byte stream and returns
// the provider's upload URL.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: http %d: %s", ErrUpload, resp.StatusCode, body)
	}

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpload, err)
	}
	return out.UploadURL, nil
}

// SubmitJob requests transcription of the uploaded audio with language
// auto-detection and speaker diarization enabled, returning the job id.
func (c *Client) SubmitJob(ctx context.Context, uploadURL string) (string, error) {
	payload := map[string]any{
		"audio_url":          uploadURL,
		"language_detection": true,
		"speaker_labels":     true,
		"format_text":        true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: http %d: %s", ErrSubmission, resp.StatusCode, b)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrSubmission, err)
	}
	return out.ID, nil
}

// PollUntilDone queries the job at a fixed interval until it completes,
// fails, or the attempt budget is exhausted. A job that ends in the error
// status (or a poll request that itself fails) yields a soft-failure
// Result rather than an error, so callers can render the condition
// without aborting. Cancelling the context stops the loop immediately;
// superseded jobs are cancelled this way.
func (c *Client) PollUntilDone(ctx context.Context, jobID string) (*Result, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		j, err := c.getJob(ctx, jobID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("Poll attempt %d for job %s failed: %v", attempt, jobID, err)
			return &Result{Err: err.Error(), Attempts: attempt}, nil
		}

		switch j.Status {
		case StatusCompleted:
			r := resultFromJob(j)
			r.Attempts = attempt
			return r, nil
		case StatusError:
			msg := j.Error
			if msg == "" {
				msg = "transcription failed"
			}
			return &Result{Err: msg, Attempts: attempt}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return nil, fmt.Errorf("%w: job %s after %d attempts", ErrTimeout, jobID, c.maxAttempts)
}

func (c *Client) getJob(ctx context.Context, jobID string) (*job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("poll http %d: %s", resp.StatusCode, b)
	}

	var j job
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &j, nil
}

// resultFromJob converts a completed job, rendering diarized utterances
// as "Speaker N:" lines when present.
func resultFromJob(j *job) *Result {
	r := &Result{
		Text:       j.Text,
		Language:   j.LanguageCode,
		Confidence: j.Confidence,
		Utterances: j.Utterances,
	}
	if len(j.Utterances) > 0 {
		r.Text = FormatUtterances(j.Utterances)
	}
	return r
}
