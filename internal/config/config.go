package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	// Europe/Madrid must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"

	"guardia/internal/logger"
	"guardia/pkg/models"
)

type Config struct {
	// Calendar Configuration
	Timezone        string
	DateColumnRatio float64
	RegionURLs      map[models.RegionID]string
	CodesFile       string
	ZoneNames       []string

	// Document Cache Configuration
	CacheDir    string
	HTTPTimeout time.Duration
	DownloadRPS float64
	LoadTimeout time.Duration
	UserAgent   string

	// Google Sheets Configuration
	GoogleSheetURL        string
	GoogleSheetWorksheet  string
	GoogleCredentialsFile string
	GoogleCredentialsJSON string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		Timezone:              getEnv("GUARDIA_TIMEZONE", "Europe/Madrid"),
		CodesFile:             getEnv("GUARDIA_CODES_FILE", ""),
		ZoneNames:             splitList(getEnv("GUARDIA_ZONE_NAMES", "")),
		CacheDir:              getEnv("GUARDIA_CACHE_DIR", defaultCacheDir()),
		UserAgent:             getEnv("GUARDIA_USER_AGENT", "guardia/1.0"),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet:  getEnv("GOOGLE_SHEET_WORKSHEET", "Guardias"),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		GoogleCredentialsJSON: getEnv("GOOGLE_CREDENTIALS", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:         getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:             getEnv("LOG_OUTPUT", "stderr"),
		RegionURLs:            make(map[models.RegionID]string),
	}

	var err error
	if config.DateColumnRatio, err = getFloat("GUARDIA_DATE_COLUMN_RATIO", 0.25); err != nil {
		return nil, err
	}
	if config.DownloadRPS, err = getFloat("GUARDIA_DOWNLOAD_RPS", 1); err != nil {
		return nil, err
	}
	if config.HTTPTimeout, err = getDuration("GUARDIA_HTTP_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if config.LoadTimeout, err = getDuration("GUARDIA_LOAD_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	for _, r := range models.Regions() {
		config.RegionURLs[r.ID] = getEnv(regionURLKey(r.ID), r.DocumentURL)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("GUARDIA_TIMEZONE %q is not a valid location: %w", c.Timezone, err)
	}
	if c.DateColumnRatio <= 0 || c.DateColumnRatio >= 1 {
		return fmt.Errorf("GUARDIA_DATE_COLUMN_RATIO must be between 0 and 1, got %v", c.DateColumnRatio)
	}
	if c.DownloadRPS <= 0 {
		return fmt.Errorf("GUARDIA_DOWNLOAD_RPS must be positive, got %v", c.DownloadRPS)
	}
	if c.HTTPTimeout <= 0 || c.LoadTimeout <= 0 {
		return fmt.Errorf("GUARDIA_HTTP_TIMEOUT and GUARDIA_LOAD_TIMEOUT must be positive")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("GUARDIA_CACHE_DIR is required")
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Regions returns the served regions with their configured document URLs.
func (c *Config) Regions() []models.Region {
	regions := models.Regions()
	for i := range regions {
		if url, ok := c.RegionURLs[regions[i].ID]; ok {
			regions[i].DocumentURL = url
		}
	}
	return regions
}

// Region looks a region up by ID or name and applies the configured URL.
func (c *Config) Region(key string) (models.Region, error) {
	r, err := models.LookupRegion(key)
	if err != nil {
		return models.Region{}, err
	}
	if url, ok := c.RegionURLs[r.ID]; ok {
		r.DocumentURL = url
	}
	return r, nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// regionURLKey maps "segovia-capital" to GUARDIA_URL_SEGOVIA_CAPITAL.
func regionURLKey(id models.RegionID) string {
	return "GUARDIA_URL_" + strings.ToUpper(strings.ReplaceAll(string(id), "-", "_"))
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "guardia")
	}
	return filepath.Join(dir, "guardia")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) (float64, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
