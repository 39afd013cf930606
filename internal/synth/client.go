// Package synth calls an ElevenLabs-compatible text-to-speech API to
// produce "enhanced audio" versions of transcripts.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrSynthesis wraps every failure of the synthesis call.
var ErrSynthesis = errors.New("speech synthesis failed")

// Voice is one selectable synthesis voice.
type Voice struct {
	ID   string `json:"voice_id"`
	Name string `json:"name"`
}

// Client sends text to a voice-scoped endpoint and writes the returned
// audio bytes to local storage.
type Client struct {
	baseURL    string
	apiKey     string
	outputDir  string
	httpClient *http.Client
}

// NewClient constructs a client writing synthesized files into outputDir.
func NewClient(baseURL, apiKey, outputDir string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		outputDir:  outputDir,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize converts text to speech with the given voice and returns
// the local path of the written audio file. The response body is treated
// as an opaque blob and written byte-for-byte.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	body, err := json.Marshal(synthesizeRequest{
		Text:          text,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.5},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", c.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: http %d: %s", ErrSynthesis, resp.StatusCode, b)
	}

	path := filepath.Join(c.outputDir, fmt.Sprintf("enhanced_%d.mp3", time.Now().UnixMilli()))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("%w: write audio: %v", ErrSynthesis, err)
	}
	return path, nil
}

// Voices lists the voices available for synthesis.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: http %d: %s", ErrSynthesis, resp.StatusCode, b)
	}

	var out struct {
		Voices []Voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSynthesis, err)
	}
	return out.Voices, nil
}
