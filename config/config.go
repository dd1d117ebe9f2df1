package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backend names, also used as provenance tags.
const (
	BackendTesseract   = "tesseract"
	BackendVision      = "vision"
	BackendPassportEye = "passport-eye"
	BackendTextract    = "textract"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	OCR        OCRConfig        `yaml:"ocr"`
	Tesseract  TesseractConfig  `yaml:"tesseract"`
	Vision     VisionConfig     `yaml:"vision"`
	MRZService MRZServiceConfig `yaml:"mrz_service"`
	Textract   TextractConfig   `yaml:"textract"`
	MRZ        MRZConfig        `yaml:"mrz"`
	Barcode    BarcodeConfig    `yaml:"barcode"`
	Gates      GatesConfig      `yaml:"gates"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	MaxFileSize     int64         `yaml:"max_file_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig enables the bearer-token guard on /api/v1 when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// OCRConfig selects the engine behind the general adapter.
type OCRConfig struct {
	Engine string `yaml:"engine"` // tesseract or vision
}

type TesseractConfig struct {
	DataPath string `yaml:"data_path"`
	Language string `yaml:"language"`
}

type VisionConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
}

// MRZServiceConfig points at the EasyOCR/PassportEye sidecar.
type MRZServiceConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

type TextractConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

type MRZConfig struct {
	// StatesFile is an optional YAML list of accepted issuing-state codes.
	StatesFile string `yaml:"states_file"`
}

type BarcodeConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GateConfig is a backend's confidence floor; 0 disables it. Records with
// no structured fields are rejected regardless.
type GateConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

type GatesConfig struct {
	Tesseract   GateConfig `yaml:"tesseract"`
	Vision      GateConfig `yaml:"vision"`
	PassportEye GateConfig `yaml:"passport-eye"`
	Textract    GateConfig `yaml:"textract"`
}

// For returns the gate configured for a backend.
func (g GatesConfig) For(backend string) GateConfig {
	switch backend {
	case BackendTesseract:
		return g.Tesseract
	case BackendVision:
		return g.Vision
	case BackendPassportEye:
		return g.PassportEye
	case BackendTextract:
		return g.Textract
	}
	return GateConfig{}
}

type TimeoutConfig struct {
	Availability time.Duration `yaml:"availability"`
	Scan         time.Duration `yaml:"scan"`
	Cloud        time.Duration `yaml:"cloud"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			MaxFileSize:     10 * 1024 * 1024, // 10 MB
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		OCR: OCRConfig{Engine: BackendTesseract},
		Tesseract: TesseractConfig{
			DataPath: "/usr/share/tesseract-ocr/5/tessdata/",
			Language: "eng",
		},
		MRZService: MRZServiceConfig{Enabled: true, URL: "http://localhost:3002"},
		Textract:   TextractConfig{Enabled: true},
		Barcode:    BarcodeConfig{Enabled: true},
		Gates: GatesConfig{
			Tesseract:   GateConfig{MinConfidence: 40},
			Vision:      GateConfig{MinConfidence: 40},
			PassportEye: GateConfig{},
			Textract:    GateConfig{},
		},
		Timeouts: TimeoutConfig{
			Availability: 3 * time.Second,
			Scan:         30 * time.Second,
			Cloud:        45 * time.Second,
		},
	}
}

// LoadConfig builds the configuration from defaults, an optional YAML file
// and environment variables, in that order. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "SERVER_PORT")
	setString(&c.Tesseract.DataPath, "TESSDATA_PREFIX")
	setString(&c.OCR.Engine, "OCR_ENGINE")
	setString(&c.MRZService.URL, "MRZ_SERVICE_URL")
	setString(&c.Textract.Region, "AWS_REGION")
	setString(&c.Textract.Endpoint, "TEXTRACT_ENDPOINT")
	setString(&c.Vision.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	setString(&c.MRZ.StatesFile, "MRZ_STATES_FILE")

	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_FILE_SIZE %q: %w", v, err)
		}
		c.Server.MaxFileSize = n
	}
	return nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.OCR.Engine {
	case BackendTesseract, BackendVision:
	default:
		return fmt.Errorf("unsupported ocr engine %q (want %s or %s)", c.OCR.Engine, BackendTesseract, BackendVision)
	}
	if c.Server.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}
	if c.Timeouts.Availability <= 0 || c.Timeouts.Scan <= 0 || c.Timeouts.Cloud <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
