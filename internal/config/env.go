package config

import (
	"errors"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Blank detection methods.
const (
	BlankStdDev = "stddev"
	BlankTrim   = "trim"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ToolsConfig names the external executables.
type ToolsConfig struct {
	Deskew      string
	Convert     string
	Identify    string
	Unpaper     string
	Ghostscript string
	PdfSandwich string
	Scanadf     string
	Logger      string
}

// JobConfig defines one scan job: what to run and how each page is finished.
type JobConfig struct {
	Scan    bool
	Finish  bool
	PDFFile string

	DPI        int
	Device     string
	TmpDir     string
	KeepTmpDir bool
	// DiscardOnFailure removes the working directory even after a fatal error.
	DiscardOnFailure bool

	FaceUp            bool
	Rotate180         bool
	Crop              bool
	KeepBlanks        bool
	BlankThreshold    float64
	BlankMethod       string
	MinResidualPixels int
	PostProcess       bool
	TextRecognize     bool
	ColorQuality      int

	Workers            int
	ToolTimeout        time.Duration
	MaxConcurrentTools int
}

// MetricsConfig defines Pushgateway export.
type MetricsConfig struct {
	PushURL  string
	Job      string
	Instance string
}

// StatusConfig defines the optional job status feed.
type StatusConfig struct {
	RedisURL string
	TTL      time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Tools   ToolsConfig
	Job     JobConfig
	Metrics MetricsConfig
	Status  StatusConfig
}

// LoadDotEnv loads variables from the given .env files when present.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "warn"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", "true")),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "20"), 20),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "5"), 5),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_scanpdf",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Tools = ToolsConfig{
		Deskew:      getEnv("SCANPDF_DESKEW_BIN", "deskew"),
		Convert:     getEnv("SCANPDF_CONVERT_BIN", "convert"),
		Identify:    getEnv("SCANPDF_IDENTIFY_BIN", "identify"),
		Unpaper:     getEnv("SCANPDF_UNPAPER_BIN", "unpaper"),
		Ghostscript: getEnv("SCANPDF_GS_BIN", "gs"),
		PdfSandwich: getEnv("SCANPDF_PDFSANDWICH_BIN", "pdfsandwich"),
		Scanadf:     getEnv("SCANPDF_SCANADF_BIN", "scanadf"),
		Logger:      getEnv("SCANPDF_LOGGER_BIN", "logger"),
	}

	workers := parseInt(getEnv("SCANPDF_WORKERS", ""), runtime.NumCPU())
	cfg.Job = JobConfig{
		DPI:                parseInt(getEnv("SCANPDF_DPI", "300"), 300),
		Device:             getEnv("SCANBD_DEVICE", ""),
		TmpDir:             getEnv("SCANPDF_TMPDIR", ""),
		FaceUp:             parseBool(getEnv("SCANPDF_FACE_UP", "true")),
		Rotate180:          parseBool(getEnv("SCANPDF_ROTATE_180", "false")),
		BlankThreshold:     parseFloat(getEnv("SCANPDF_BLANK_THRESHOLD", "0.97"), 0.97),
		BlankMethod:        strings.ToLower(getEnv("SCANPDF_BLANK_METHOD", BlankStdDev)),
		MinResidualPixels:  parseInt(getEnv("SCANPDF_MIN_RESIDUAL_PX", "10"), 10),
		ColorQuality:       parseInt(getEnv("SCANPDF_JPEG_QUALITY", "85"), 85),
		Workers:            workers,
		ToolTimeout:        parseDuration(getEnv("SCANPDF_TOOL_TIMEOUT", "5m"), 5*time.Minute),
		MaxConcurrentTools: parseInt(getEnv("SCANPDF_MAX_TOOLS", ""), 0),
	}

	cfg.Metrics = MetricsConfig{
		PushURL:  getEnv("PUSHGATEWAY_URL", ""),
		Job:      getEnv("PUSHGATEWAY_JOB", "scanpdf"),
		Instance: getEnv("PUSHGATEWAY_INSTANCE", hostname()),
	}

	cfg.Status = StatusConfig{
		RedisURL: getEnv("REDIS_URL", ""),
		TTL:      parseDuration(getEnv("STATUS_TTL", "24h"), 24*time.Hour),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || strings.TrimSpace(h) == "" {
		return "unknown"
	}
	return h
}
