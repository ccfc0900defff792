// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ai-video-orchestrator/internal/domain"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Addr           string        `yaml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Workers        int           `yaml:"workers"`      // async generation/upload jobs
	SubmitLimit    int           `yaml:"submit_limit"` // POSTs per subject per window; needs redis
	SubmitWindow   time.Duration `yaml:"submit_window"`
}

type PollConfig struct {
	FastAttempts int           `yaml:"fast_attempts"`
	FastInterval time.Duration `yaml:"fast_interval"`
	SlowInterval time.Duration `yaml:"slow_interval"`
	MaxAttempts  int           `yaml:"max_attempts"`
}

type GenerationConfig struct {
	Provider      string     `yaml:"provider"` // gemini|replicate|noop
	GeminiKey     string     `yaml:"gemini_key"`
	GeminiModel   string     `yaml:"gemini_model"`
	ReplicateKey  string     `yaml:"replicate_key"`
	ReplicateURL  string     `yaml:"replicate_url"`
	ReplicateVer  string     `yaml:"replicate_version"`
	MaxConcurrent int        `yaml:"max_concurrent"`
	Poll          PollConfig `yaml:"poll"`

	// RefImageMaxSide bounds reference images before they are sent.
	RefImageMaxSide int `yaml:"ref_image_max_side"`
}

type UploadConfig struct {
	Host            string        `yaml:"host"` // youtube|s3|noop
	MaxFileBytes    int64         `yaml:"max_file_bytes"`
	ChunkMultiplier int           `yaml:"chunk_multiplier"`
	ProgressTick    time.Duration `yaml:"progress_tick"`
	ProgressStep    int           `yaml:"progress_step"`
	ProgressCeiling int           `yaml:"progress_ceiling"`
}

type ProcessingConfig struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type SchedulerConfig struct {
	Tick         time.Duration `yaml:"tick"`
	Backend      string        `yaml:"backend"` // memory|redis|postgres
	HistorySize  int           `yaml:"history_size"`
	DeleteSource *bool         `yaml:"delete_source"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	QueueKey string `yaml:"queue_key"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type YouTubeConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
	TokenFile    string `yaml:"token_file"`
	TokenKey     string `yaml:"token_key"` // optional; encrypts the token file
}

type S3Config struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	PathStyle     bool   `yaml:"path_style"`
	Prefix        string `yaml:"prefix"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type MediaConfig struct {
	FFmpegPath string        `yaml:"ffmpeg_path"`
	Timeout    time.Duration `yaml:"timeout"`
	OutputDir  string        `yaml:"output_dir"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	HTTP       HTTPConfig       `yaml:"http"`
	Generation GenerationConfig `yaml:"generation"`
	Upload     UploadConfig     `yaml:"upload"`
	Processing ProcessingConfig `yaml:"processing"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Redis      RedisConfig      `yaml:"redis"`
	Database   DatabaseConfig   `yaml:"database"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	S3         S3Config         `yaml:"s3"`
	Media      MediaConfig      `yaml:"media"`
	Notify     NotifyConfig     `yaml:"notify"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies defaults and validates the
// settings the selected backends depend on.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Parse decodes raw YAML and applies defaults.
func Parse(b []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.TokenTTL <= 0 {
		c.HTTP.TokenTTL = 24 * time.Hour
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 30 * time.Second
	}
	if c.HTTP.Workers <= 0 {
		c.HTTP.Workers = 4
	}
	if c.HTTP.SubmitLimit <= 0 {
		c.HTTP.SubmitLimit = 30
	}
	if c.HTTP.SubmitWindow <= 0 {
		c.HTTP.SubmitWindow = time.Minute
	}

	g := &c.Generation
	g.Provider = strings.ToLower(strings.TrimSpace(g.Provider))
	if g.Provider == "" {
		g.Provider = "noop"
	}
	if g.GeminiModel == "" {
		g.GeminiModel = "veo-2.0-generate-001"
	}
	if g.ReplicateURL == "" {
		g.ReplicateURL = "https://api.replicate.com/v1"
	}
	if g.MaxConcurrent <= 0 {
		g.MaxConcurrent = 4
	}
	if g.Poll.FastAttempts <= 0 {
		g.Poll.FastAttempts = 10
	}
	if g.Poll.FastInterval <= 0 {
		g.Poll.FastInterval = time.Second
	}
	if g.Poll.SlowInterval <= 0 {
		g.Poll.SlowInterval = 5 * time.Second
	}
	if g.Poll.MaxAttempts <= 0 {
		g.Poll.MaxAttempts = 240
	}
	if g.RefImageMaxSide <= 0 {
		g.RefImageMaxSide = 1280
	}

	u := &c.Upload
	u.Host = strings.ToLower(strings.TrimSpace(u.Host))
	if u.Host == "" {
		u.Host = "noop"
	}
	if u.MaxFileBytes <= 0 {
		u.MaxFileBytes = 2 << 30
	}
	if u.ChunkMultiplier <= 0 {
		u.ChunkMultiplier = 4
	}
	if u.ProgressTick <= 0 {
		u.ProgressTick = time.Second
	}
	if u.ProgressStep <= 0 {
		u.ProgressStep = 2
	}
	if u.ProgressCeiling <= 0 || u.ProgressCeiling > 90 {
		u.ProgressCeiling = 90
	}

	if c.Processing.Interval <= 0 {
		c.Processing.Interval = 5 * time.Second
	}
	if c.Processing.MaxAttempts <= 0 {
		c.Processing.MaxAttempts = 24
	}

	s := &c.Scheduler
	if s.Tick <= 0 {
		s.Tick = time.Minute
	}
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = "memory"
	}
	if s.HistorySize <= 0 {
		s.HistorySize = 100
	}
	if s.DeleteSource == nil {
		on := true
		s.DeleteSource = &on
	}

	if c.Redis.QueueKey == "" {
		c.Redis.QueueKey = "scheduled_uploads"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.RedirectURL == "" {
		c.YouTube.RedirectURL = "http://localhost:8090/oauth2/callback"
	}
	if c.S3.Region == "" {
		c.S3.Region = "us-east-1"
	}
	if c.Media.FFmpegPath == "" {
		c.Media.FFmpegPath = "ffmpeg"
	}
	if c.Media.Timeout <= 0 {
		c.Media.Timeout = 10 * time.Minute
	}
}

// Minimal validation
func (c *Config) validate() error {
	switch c.Generation.Provider {
	case "gemini", "replicate", "noop":
	default:
		return fmt.Errorf("generation.provider %q is not supported", c.Generation.Provider)
	}
	switch c.Upload.Host {
	case "youtube", "s3", "noop":
	default:
		return fmt.Errorf("upload.host %q is not supported", c.Upload.Host)
	}
	switch c.Scheduler.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for scheduler.backend=redis")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for scheduler.backend=postgres")
		}
	default:
		return fmt.Errorf("scheduler.backend %q is not supported", c.Scheduler.Backend)
	}
	if c.Upload.Host == "s3" && c.S3.Bucket == "" {
		return errors.New("s3.bucket is required for upload.host=s3")
	}
	return nil
}

// Credential returns a named secret. Missing values wrap domain.ErrValidation.
func (c *Config) Credential(name string) (string, error) {
	var v string
	switch name {
	case "gemini_key":
		v = c.Generation.GeminiKey
	case "replicate_key":
		v = c.Generation.ReplicateKey
	case "youtube_client_id":
		v = c.YouTube.ClientID
	case "youtube_client_secret":
		v = c.YouTube.ClientSecret
	case "youtube_token_key":
		v = c.YouTube.TokenKey
	case "telegram_token":
		v = c.Notify.Telegram.Token
	case "jwt_secret":
		v = c.HTTP.JWTSecret
	default:
		return "", fmt.Errorf("%w: unknown credential %q", domain.ErrValidation, name)
	}
	if strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%w: credential %q is not configured", domain.ErrValidation, name)
	}
	return v, nil
}
