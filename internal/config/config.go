package config

import (
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv            = "FEEDBACK_ANALYZER_CONFIG"
	secretKeyEnv             = "SECRET_KEY"
	databasePathEnv          = "DATABASE_PATH"
	corsOriginsEnv           = "CORS_ORIGINS"
	httpAddrEnv              = "HTTP_ADDR"
	audioDirEnv              = "AUDIO_DIR"
	textAnalyticsEndpointEnv = "AZURE_TEXT_ANALYTICS_ENDPOINT"
	textAnalyticsKeyEnv      = "AZURE_TEXT_ANALYTICS_KEY"
	openAIKeyEnv             = "OPENAI_API_KEY"
	openAIModelEnv           = "OPENAI_MODEL"
	speechKeyEnv             = "AZURE_SPEECH_KEY"
	speechRegionEnv          = "AZURE_SPEECH_REGION"
	blobBucketEnv            = "BLOB_BUCKET"
	awsRegionEnv             = "AWS_REGION"
)

// Config holds high-level settings required across the application.
type Config struct {
	SecretKey     string              `yaml:"secretKey"`
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	Logging       LoggingConfig       `yaml:"logging"`
	TextAnalytics TextAnalyticsConfig `yaml:"textAnalytics"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Speech        SpeechConfig        `yaml:"speech"`
	Blob          BlobConfig          `yaml:"blob"`
	AudioDir      string              `yaml:"audioDir"`
}

// HTTPConfig describes the listen address and allowed CORS origins.
type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// DatabaseConfig describes the SQLite database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// TextAnalyticsConfig wires the sentiment analysis endpoint.
type TextAnalyticsConfig struct {
	Endpoint string `yaml:"endpoint"`
	Key      string `yaml:"key"`
}

// Configured reports whether credentials are present.
func (c TextAnalyticsConfig) Configured() bool {
	return c.Endpoint != "" && c.Key != ""
}

// OpenAIConfig defines how to contact the response-generation API.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// Configured reports whether credentials are present.
func (c OpenAIConfig) Configured() bool {
	return c.APIKey != ""
}

// SpeechConfig defines the speech synthesis region and key.
type SpeechConfig struct {
	Key    string `yaml:"key"`
	Region string `yaml:"region"`
}

// Configured reports whether credentials are present.
func (c SpeechConfig) Configured() bool {
	return c.Key != "" && c.Region != ""
}

// BlobConfig names the bucket holding synthesized audio.
type BlobConfig struct {
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// Configured reports whether a bucket was assigned.
func (c BlobConfig) Configured() bool {
	return c.Bucket != ""
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(secretKeyEnv); v != "" {
		c.SecretKey = v
	}

	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(corsOriginsEnv); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		c.HTTP.CORSOrigins = origins
	}

	if v := os.Getenv(audioDirEnv); v != "" {
		c.AudioDir = v
	}

	if v := os.Getenv(textAnalyticsEndpointEnv); v != "" {
		c.TextAnalytics.Endpoint = v
	}
	if v := os.Getenv(textAnalyticsKeyEnv); v != "" {
		c.TextAnalytics.Key = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(speechKeyEnv); v != "" {
		c.Speech.Key = v
	}
	if v := os.Getenv(speechRegionEnv); v != "" {
		c.Speech.Region = v
	}

	if v := os.Getenv(blobBucketEnv); v != "" {
		c.Blob.Bucket = v
	}
	if v := os.Getenv(awsRegionEnv); v != "" {
		c.Blob.Region = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.SecretKey != "" {
		base.SecretKey = override.SecretKey
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if len(override.HTTP.CORSOrigins) > 0 {
		base.HTTP.CORSOrigins = override.HTTP.CORSOrigins
	}

	if override.Database.Path != "" {
		base.Database.Path = override.Database.Path
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.TextAnalytics.Endpoint != "" {
		base.TextAnalytics.Endpoint = override.TextAnalytics.Endpoint
	}
	if override.TextAnalytics.Key != "" {
		base.TextAnalytics.Key = override.TextAnalytics.Key
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}

	if override.Speech.Key != "" {
		base.Speech.Key = override.Speech.Key
	}
	if override.Speech.Region != "" {
		base.Speech.Region = override.Speech.Region
	}

	if override.Blob.Bucket != "" {
		base.Blob.Bucket = override.Blob.Bucket
	}
	if override.Blob.Region != "" {
		base.Blob.Region = override.Blob.Region
	}

	if override.AudioDir != "" {
		base.AudioDir = override.AudioDir
	}

	return base
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{Path: "feedback_analysis.db"},
		Logging:  LoggingConfig{Level: "info"},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o",
		},
		AudioDir: "audio_files",
	}
}
