// Package config loads signlens settings from the environment and an optional .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the translator.
type Config struct {
	Addr      string
	Endpoint  string
	CameraID  int
	DataDir   string
	PluginDir string
	WebDir    string
	LogLevel  string
	Tray      bool

	TargetFPS           int
	RequestTimeout      time.Duration
	FrameTimeout        time.Duration
	MaxCameraRetries    int
	ConfidenceThreshold float64
	SmoothingFrames     int
	MinStability        int
	HistorySize         int
	MaxConsecutiveFails int
	PluginTimeout       time.Duration
}

// Load reads .env (if present) and then SIGNLENS_* environment variables.
// Missing or unparsable values fall back to defaults.
func Load() *Config {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	dataDir := getEnv("SIGNLENS_DATA_DIR", defaultDataDir())

	return &Config{
		Addr:      getEnv("SIGNLENS_ADDR", ":8080"),
		Endpoint:  getEnv("SIGNLENS_ENDPOINT", "http://127.0.0.1:5000/api/process_frame"),
		CameraID:  getEnvAsInt("SIGNLENS_CAMERA", 0),
		DataDir:   dataDir,
		PluginDir: getEnv("SIGNLENS_PLUGIN_DIR", filepath.Join(dataDir, "plugins")),
		WebDir:    getEnv("SIGNLENS_WEB_DIR", ""),
		LogLevel:  getEnv("SIGNLENS_LOG_LEVEL", "info"),
		Tray:      getEnvAsBool("SIGNLENS_TRAY", false),

		TargetFPS:           getEnvAsInt("SIGNLENS_TARGET_FPS", 30),
		RequestTimeout:      getEnvAsDuration("SIGNLENS_REQUEST_TIMEOUT", 5*time.Second),
		FrameTimeout:        getEnvAsDuration("SIGNLENS_FRAME_TIMEOUT", 8*time.Second),
		MaxCameraRetries:    getEnvAsInt("SIGNLENS_MAX_CAMERA_RETRIES", 3),
		ConfidenceThreshold: getEnvAsFloat("SIGNLENS_CONFIDENCE_THRESHOLD", 0.75),
		SmoothingFrames:     getEnvAsInt("SIGNLENS_SMOOTHING_FRAMES", 4),
		MinStability:        getEnvAsInt("SIGNLENS_MIN_STABILITY", 2),
		HistorySize:         getEnvAsInt("SIGNLENS_HISTORY_SIZE", 10),
		MaxConsecutiveFails: getEnvAsInt("SIGNLENS_MAX_CONSECUTIVE_FAILS", 5),
		PluginTimeout:       getEnvAsDuration("SIGNLENS_PLUGIN_TIMEOUT", 5*time.Second),
	}
}

// DBPath returns the sqlite database location inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "signlens.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".signlens"
	}
	return filepath.Join(home, ".signlens")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
