package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	LMS        LMSConfig
	Plagiarism PlagiarismConfig
	Teams      TeamConfig
	Redis      RedisConfig
	Search     SearchConfig
	JWT        JWTConfig
	Log        LogConfig
}

// LMSConfig describes how to reach the Canvas REST API.
type LMSConfig struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	PerPage   int
	CourseURL string
}

// PlagiarismConfig holds the similarity detection wiring re-asserted on every correction.
type PlagiarismConfig struct {
	Tool             string
	ToolType         string
	ReportVisibility string
}

// TeamConfig controls team category naming and partition bounds.
type TeamConfig struct {
	MinSize        int
	MaxSize        int
	CategoryName   string
	LegacyCategory string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// SearchConfig toggles caching of course search results.
type SearchConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.LMS = LMSConfig{
		BaseURL:   strings.TrimRight(v.GetString("LMS_BASE_URL"), "/"),
		Token:     v.GetString("LMS_TOKEN"),
		Timeout:   parseDuration(v.GetString("LMS_TIMEOUT"), 30*time.Second),
		PerPage:   v.GetInt("LMS_PER_PAGE"),
		CourseURL: v.GetString("LMS_COURSE_URL"),
	}

	cfg.Plagiarism = PlagiarismConfig{
		Tool:             v.GetString("PLAGIARISM_TOOL"),
		ToolType:         v.GetString("PLAGIARISM_TOOL_TYPE"),
		ReportVisibility: v.GetString("PLAGIARISM_REPORT_VISIBILITY"),
	}

	cfg.Teams = TeamConfig{
		MinSize:        v.GetInt("TEAM_MIN_SIZE"),
		MaxSize:        v.GetInt("TEAM_MAX_SIZE"),
		CategoryName:   v.GetString("TEAM_CATEGORY_NAME"),
		LegacyCategory: v.GetString("LEGACY_CATEGORY_NAME"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Search = SearchConfig{
		CacheEnabled: v.GetBool("SEARCH_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("SEARCH_CACHE_TTL"), 30*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

// Validate reports configuration that would make every LMS call fail.
func (c *Config) Validate() error {
	if c.LMS.BaseURL == "" {
		return errors.New("LMS_BASE_URL is required")
	}
	if c.LMS.Token == "" {
		return errors.New("LMS_TOKEN is required")
	}
	if c.Teams.MinSize < 1 {
		return fmt.Errorf("TEAM_MIN_SIZE must be >= 1, got %d", c.Teams.MinSize)
	}
	if c.Teams.MaxSize <= c.Teams.MinSize {
		return fmt.Errorf("TEAM_MAX_SIZE (%d) must be greater than TEAM_MIN_SIZE (%d)", c.Teams.MaxSize, c.Teams.MinSize)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("LMS_BASE_URL", "https://canvas.uautonoma.cl/api/v1")
	v.SetDefault("LMS_TOKEN", "")
	v.SetDefault("LMS_TIMEOUT", "30s")
	v.SetDefault("LMS_PER_PAGE", 100)
	v.SetDefault("LMS_COURSE_URL", "https://canvas.uautonoma.cl/courses/%d")

	v.SetDefault("PLAGIARISM_TOOL", "Lti::MessageHandler_123")
	v.SetDefault("PLAGIARISM_TOOL_TYPE", "Lti::MessageHandler")
	v.SetDefault("PLAGIARISM_REPORT_VISIBILITY", "immediate")

	v.SetDefault("TEAM_MIN_SIZE", 3)
	v.SetDefault("TEAM_MAX_SIZE", 4)
	v.SetDefault("TEAM_CATEGORY_NAME", "Equipo de trabajo")
	v.SetDefault("LEGACY_CATEGORY_NAME", "Project Groups")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SEARCH_CACHE_ENABLED", false)
	v.SetDefault("SEARCH_CACHE_TTL", "30m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "8h")
	v.SetDefault("JWT_ISSUER", "lms-auditor")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
