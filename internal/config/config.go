package config

import (
	_ "embed"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Verification VerificationConfig `yaml:"verification"`
	FaceAPI      FaceAPIConfig      `yaml:"face_api"`
	Extraction   ExtractionConfig   `yaml:"extraction"`
	S3           S3Config           `yaml:"s3"`
	Database     DatabaseConfig     `yaml:"database"`
	Log          LogConfig          `yaml:"log"`
	Web          WebConfig          `yaml:"web"`
}

type VerificationConfig struct {
	MinFaceConfidence float64 `yaml:"min_face_confidence"`
	MatchThreshold    float64 `yaml:"match_threshold"` // cosine distance, smaller is more similar
	MinFaceSize       int     `yaml:"min_face_size"`   // pixels
	MinAreaRatio      float64 `yaml:"min_area_ratio"`
	MaxAreaRatio      float64 `yaml:"max_area_ratio"`
	EnableRotation    bool    `yaml:"enable_rotation"`
	RotationAngles    []int   `yaml:"rotation_angles"`
	Concurrency       int     `yaml:"concurrency"`
}

type FaceAPIConfig struct {
	URL            string        `yaml:"url"`
	Timeout        time.Duration `yaml:"-"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	MaxInFlight    int           `yaml:"max_inflight"` // concurrent requests to the face service
}

type ExtractionConfig struct {
	PDFDPI       int    `yaml:"pdf_dpi"`
	PDFToPPMPath string `yaml:"pdftoppm_path"`
	DatasetDir   string `yaml:"dataset_dir"` // where s3:// documents are downloaded
}

type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // custom endpoint for S3-compatible stores
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type DatabaseConfig struct {
	URL          string `yaml:"-"`              // PostgreSQL connection URL, empty disables persistence
	MaxOpenConns int    `yaml:"max_open_conns"` // Maximum open connections (default 25)
	MaxIdleConns int    `yaml:"max_idle_conns"` // Maximum idle connections (default 5)
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS origins besides localhost
}

// Defaults returns the configuration embedded in the binary, without any
// environment overrides.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	cfg.FaceAPI.Timeout = time.Duration(cfg.FaceAPI.TimeoutSeconds) * time.Second
	return &cfg
}

// Load returns the defaults overridden by environment variables. Invalid
// values fall back to the defaults.
func Load() *Config {
	d := Defaults()

	return &Config{
		Verification: VerificationConfig{
			MinFaceConfidence: envFloat("FACE_MIN_CONFIDENCE", d.Verification.MinFaceConfidence),
			MatchThreshold:    envFloat("FACE_MATCH_THRESHOLD", d.Verification.MatchThreshold),
			MinFaceSize:       envInt("FACE_MIN_SIZE", d.Verification.MinFaceSize),
			MinAreaRatio:      envFloat("FACE_MIN_AREA_RATIO", d.Verification.MinAreaRatio),
			MaxAreaRatio:      envFloat("FACE_MAX_AREA_RATIO", d.Verification.MaxAreaRatio),
			EnableRotation:    envBool("FACE_ENABLE_ROTATION", d.Verification.EnableRotation),
			RotationAngles:    envIntList("FACE_ROTATION_ANGLES", d.Verification.RotationAngles),
			Concurrency:       envInt("VERIFY_CONCURRENCY", d.Verification.Concurrency),
		},
		FaceAPI: FaceAPIConfig{
			URL:         envString("FACE_API_URL", d.FaceAPI.URL),
			Timeout:     envDuration("FACE_API_TIMEOUT", d.FaceAPI.Timeout),
			MaxInFlight: envInt("FACE_API_MAX_INFLIGHT", d.FaceAPI.MaxInFlight),
		},
		Extraction: ExtractionConfig{
			PDFDPI:       envInt("PDF_DPI", d.Extraction.PDFDPI),
			PDFToPPMPath: envString("PDFTOPPM_PATH", d.Extraction.PDFToPPMPath),
			DatasetDir:   envString("DATASET_DIR", d.Extraction.DatasetDir),
		},
		S3: S3Config{
			Region:    envString("AWS_REGION", d.S3.Region),
			Endpoint:  envString("S3_ENDPOINT", d.S3.Endpoint),
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", d.Log.Level),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", d.Web.Host),
			Port: envInt("WEB_PORT", d.Web.Port),

			AllowedOrigins: envStringList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
	}
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

// envStringList reads a comma-separated list, dropping empty elements.
func envStringList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if strings.TrimSpace(s) == "" {
		return defaultVal
	}
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a non-negative finite float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return defaultVal
	}
	return f
}

func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// envIntList reads a comma-separated list of integers such as "0,90,180".
// Any invalid element discards the whole value.
func envIntList(key string, defaultVal []int) []int {
	s := os.Getenv(key)
	if strings.TrimSpace(s) == "" {
		return defaultVal
	}
	var out []int
	for part := range strings.SplitSeq(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultVal
		}
		out = append(out, n)
	}
	return out
}
