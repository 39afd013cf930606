package transcribe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Cache stores finished transcripts in Redis keyed by the audio file's
// content hash, so re-transcribing an unchanged file is free. A nil
// *Cache is valid and disables caching.
type Cache struct {
	client *redis.Client
	prefix string
}

// NewCache connects to Redis at addr. Keys are namespaced with prefix.
func NewCache(addr, prefix string) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

// Key hashes the audio file contents.
func (c *Cache) Key(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash audio file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash audio file: %w", err)
	}
	return c.prefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached result for the key, or nil on miss or error.
// Cache errors are never fatal; the caller falls through to the provider.
func (c *Cache) Get(key string) *Result {
	if c == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil || len(fields) == 0 || fields["text"] == "" {
		return nil
	}

	confidence, _ := strconv.ParseFloat(fields["confidence"], 64)
	return &Result{
		Text:       fields["text"],
		Language:   fields["language"],
		Confidence: confidence,
	}
}

// Put stores a successful result. Failures are logged by the caller if
// it cares; the pipeline treats the cache as best-effort.
func (c *Cache) Put(key string, r *Result) error {
	if c == nil || r == nil || r.Failed() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()

	return c.client.HSet(ctx, key, map[string]any{
		"text":       r.Text,
		"language":   r.Language,
		"confidence": strconv.FormatFloat(r.Confidence, 'f', -1, 64),
	}).Err()
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
