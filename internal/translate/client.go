// Package translate calls a DeepL-compatible translation API to turn
// non-English transcripts into English.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrTranslation wraps every failure of the translation call. Callers
// treat it as non-fatal and keep showing the original-language text.
var ErrTranslation = errors.New("translation failed")

// Client is a thin client for the /translate endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a client with the injected API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type translateRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// ToEnglish translates text from the detected source language into
// English with a single synchronous call.
func (c *Client) ToEnglish(ctx context.Context, text, sourceLang string) (string, error) {
	body, err := json.Marshal(translateRequest{
		Text:       []string{text},
		SourceLang: strings.ToUpper(sourceLang),
		TargetLang: "EN-US",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslation, err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranslation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: http %d: %s", ErrTranslation, resp.StatusCode, b)
	}

	var out translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrTranslation, err)
	}
	if len(out.Translations) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrTranslation)
	}
	return out.Translations[0].Text, nil
}
