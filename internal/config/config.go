package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application settings. API keys are injected here and
// passed to clients at construction; nothing reads credentials globally.
type Config struct {
	Storage struct {
		Dir    string `yaml:"dir"`     // recordings + enhanced audio live here
		DBPath string `yaml:"db_path"` // defaults to <dir>/clarity.db
	} `yaml:"storage"`

	Transcription struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		PollInterval string `yaml:"poll_interval"` // duration string, default 3s
		MaxAttempts  int    `yaml:"max_attempts"`  // default 60
	} `yaml:"transcription"`

	Translation struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"translation"`

	Synthesis struct {
		BaseURL      string `yaml:"base_url"`
		APIKey       string `yaml:"api_key"`
		DefaultVoice string `yaml:"default_voice"`
	} `yaml:"synthesis"`

	Redis struct {
		Addr   string `yaml:"addr"` // empty disables the transcript cache
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	LogDir string `yaml:"log_dir"` // pipeline session logs (JSONL)
}

const (
	defaultTranscriptionURL = "https://api.assemblyai.com/v2"
	defaultTranslationURL   = "https://api-free.deepl.com/v2"
	defaultSynthesisURL     = "https://api.elevenlabs.io/v1"
	defaultVoiceID          = "21m00Tcm4TlvDq8ikWAM"
)

// Load reads the YAML config file (missing file is fine, defaults apply),
// merges .env and environment overrides, and ensures the storage directory
// exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	// .env is optional; real keys usually come from the environment
	_ = godotenv.Load()
	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := os.MkdirAll(cfg.Storage.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	return decoder.Decode(cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLARITY_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = expandTilde(v)
	}
	if v := os.Getenv("CLARITY_ASSEMBLYAI_API_KEY"); v != "" {
		cfg.Transcription.APIKey = v
	}
	if v := os.Getenv("CLARITY_DEEPL_API_KEY"); v != "" {
		cfg.Translation.APIKey = v
	}
	if v := os.Getenv("CLARITY_ELEVENLABS_API_KEY"); v != "" {
		cfg.Synthesis.APIKey = v
	}
	if v := os.Getenv("CLARITY_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Storage.Dir = filepath.Join(home, ".clarity", "recordings")
		} else {
			cfg.Storage.Dir = filepath.Join(".", "recordings")
		}
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(cfg.Storage.Dir, "clarity.db")
	}
	if cfg.Transcription.BaseURL == "" {
		cfg.Transcription.BaseURL = defaultTranscriptionURL
	}
	if cfg.Transcription.PollInterval == "" {
		cfg.Transcription.PollInterval = "3s"
	}
	if cfg.Transcription.MaxAttempts == 0 {
		cfg.Transcription.MaxAttempts = 60
	}
	if cfg.Translation.BaseURL == "" {
		cfg.Translation.BaseURL = defaultTranslationURL
	}
	if cfg.Synthesis.BaseURL == "" {
		cfg.Synthesis.BaseURL = defaultSynthesisURL
	}
	if cfg.Synthesis.DefaultVoice == "" {
		cfg.Synthesis.DefaultVoice = defaultVoiceID
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "clarity:transcript:"
	}
}

// PollInterval parses the configured poll interval, falling back to 3s.
func (c *Config) PollInterval() time.Duration {
	d, err := time.ParseDuration(c.Transcription.PollInterval)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
