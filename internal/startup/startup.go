package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"snapstream/internal/logging"

	"github.com/joho/godotenv"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	// Port serves the front-end application; APIPort serves the
	// persistence API (snapstream-api).
	Port     string
	APIPort  string
	DataDir  string
	CacheDir string
	MediaDir string

	// Persistence API the upload pipeline talks to. When unreachable
	// the pipeline falls back to the local cache in CacheDir.
	APIBase    string
	APITimeout time.Duration

	// Analysis provider. An empty key means the deterministic mock is
	// used without attempting any network call.
	AnalysisURL     string
	AnalysisAPIKey  string
	AnalysisTimeout time.Duration

	ThumbnailTimeout time.Duration

	MetricsEnabled  bool
	LogHealthChecks bool

	// Derived paths
	DatabasePath  string
	CacheFile     string
	UserCacheFile string
}

// loadDotEnv loads .env files if present. System environment variables
// take precedence since godotenv.Load does not override existing keys.
func loadDotEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			if err := godotenv.Load(name); err != nil {
				logging.Warn("Failed to load %s: %v", name, err)
			}
		}
	}
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	loadDotEnv()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	port := getEnv("PORT", "8080")
	apiPort := getEnv("API_PORT", "5000")
	dataDir := getEnv("DATA_DIR", "./data")
	cacheDir := getEnv("CACHE_DIR", "./cache")
	mediaDir := getEnv("MEDIA_DIR", "./media")
	apiBase := getEnv("API_BASE", "http://localhost:"+apiPort+"/api")
	analysisURL := getEnv("ANALYSIS_URL", "")
	analysisAPIKey := getEnv("ANALYSIS_API_KEY", "")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", false)

	logging.Info("  PORT:               %s", port)
	logging.Info("  API_PORT:           %s", apiPort)
	logging.Info("  DATA_DIR:           %s", dataDir)
	logging.Info("  CACHE_DIR:          %s", cacheDir)
	logging.Info("  MEDIA_DIR:          %s", mediaDir)
	logging.Info("  API_BASE:           %s", apiBase)
	logging.Info("  ANALYSIS_URL:       %s", analysisURL)
	logging.Info("  ANALYSIS_API_KEY:   %s", maskSecret(analysisAPIKey))
	logging.Info("  METRICS_ENABLED:    %v", metricsEnabled)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())

	cfg := &Config{
		Port:             port,
		APIPort:          apiPort,
		DataDir:          dataDir,
		CacheDir:         cacheDir,
		MediaDir:         mediaDir,
		APIBase:          strings.TrimRight(apiBase, "/"),
		APITimeout:       getEnvDuration("API_TIMEOUT", 10*time.Second),
		AnalysisURL:      analysisURL,
		AnalysisAPIKey:   analysisAPIKey,
		AnalysisTimeout:  getEnvDuration("ANALYSIS_TIMEOUT", 60*time.Second),
		ThumbnailTimeout: getEnvDuration("THUMBNAIL_TIMEOUT", 15*time.Second),
		MetricsEnabled:   metricsEnabled,
		LogHealthChecks:  logHealthChecks,
	}

	for _, dir := range []string{cfg.DataDir, cfg.CacheDir, cfg.MediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	cfg.DatabasePath = filepath.Join(cfg.DataDir, "snapstream.db")
	cfg.CacheFile = filepath.Join(cfg.CacheDir, "snapstream_mock_media.json")
	cfg.UserCacheFile = filepath.Join(cfg.CacheDir, "snapstream_mock_users.json")

	return cfg, nil
}

// maskSecret hides all but a short prefix of a credential for logging.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + strings.Repeat("*", len(s)-4)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default: %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("  Invalid %s=%q, using default: %s", key, value, fallback)
		return fallback
	}
	return parsed
}
