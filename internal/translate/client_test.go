package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestToEnglish(t *testing.T) {
	var gotAuth string
	var gotReq translateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" {
			t.Errorf("path = %s, want /translate", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"translations": []map[string]string{{"text": "good morning"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "deepl-key")
	got, err := c.ToEnglish(context.Background(), "buenos dias", "es")
	if err != nil {
		t.Fatalf("ToEnglish: %v", err)
	}
	if got != "good morning" {
		t.Errorf("translated = %q", got)
	}
	if gotAuth != "DeepL-Auth-Key deepl-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if len(gotReq.Text) != 1 || gotReq.Text[0] != "buenos dias" {
		t.Errorf("request text = %v", gotReq.Text)
	}
	if gotReq.SourceLang != "ES" {
		t.Errorf("source lang = %q, want ES (uppercased)", gotReq.SourceLang)
	}
	if gotReq.TargetLang != "EN-US" {
		t.Errorf("target lang = %q", gotReq.TargetLang)
	}
}

func TestToEnglishServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if _, err := c.ToEnglish(context.Background(), "hola", "es"); !errors.Is(err, ErrTranslation) {
		t.Errorf("expected ErrTranslation, got %v", err)
	}
}

func TestToEnglishEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"translations": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	if _, err := c.ToEnglish(context.Background(), "hola", "es"); !errors.Is(err, ErrTranslation) {
		t.Errorf("expected ErrTranslation, got %v", err)
	}
}
