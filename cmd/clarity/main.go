package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/jatadi/clarity/internal/audio"
	"github.com/jatadi/clarity/internal/cli"
	"github.com/jatadi/clarity/internal/config"
	"github.com/jatadi/clarity/internal/pipeline"
	"github.com/jatadi/clarity/internal/recorder"
	"github.com/jatadi/clarity/internal/store"
	"github.com/jatadi/clarity/internal/synth"
	"github.com/jatadi/clarity/internal/transcribe"
	"github.com/jatadi/clarity/internal/translate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.Storage.DBPath, cfg.Storage.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Init(); err != nil {
		return err
	}

	guard := audio.NewSessionGuard()
	rec := recorder.New(cfg.Storage.Dir, guard)
	player := audio.NewPlayer(guard)

	transcriber := transcribe.NewClient(
		cfg.Transcription.BaseURL,
		cfg.Transcription.APIKey,
		cfg.PollInterval(),
		cfg.Transcription.MaxAttempts,
	)
	translator := translate.NewClient(cfg.Translation.BaseURL, cfg.Translation.APIKey)
	synthesizer := synth.NewClient(cfg.Synthesis.BaseURL, cfg.Synthesis.APIKey, cfg.Storage.Dir)

	var cache *transcribe.Cache
	if cfg.Redis.Addr != "" {
		cache = transcribe.NewCache(cfg.Redis.Addr, cfg.Redis.Prefix)
		defer cache.Close()
		log.Printf("Transcript cache enabled at %s", cfg.Redis.Addr)
	}

	orchestrator := pipeline.New(transcriber, translator, synthesizer, st, cache, cfg.LogDir, cli.PrintProgress)

	deps := &cli.Dependencies{
		Config:       cfg,
		Store:        st,
		Recorder:     rec,
		Player:       player,
		Guard:        guard,
		Orchestrator: orchestrator,
		Synth:        synthesizer,
	}

	return cli.NewRootCmd(deps).Execute()
}

func configPath() string {
	if p := os.Getenv("CLARITY_CONFIG"); p != "" {
		return p
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "clarity", "config.yaml")
	}
	return ""
}
