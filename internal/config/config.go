package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the relay server settings.
type Config struct {
	// Server
	Port       string
	Env        string
	CORSOrigin string

	// Gemini AI
	GeminiAPIKey         string
	GeminiChatModel      string
	GeminiConcurrentReqs int

	// Abuse protection
	RateLimitPerMinute int
	RedisURL           string

	Log LogConfig
}

// ClientConfig holds the settings of the terminal front-end and its clients.
type ClientConfig struct {
	RelayURL string

	GeminiAPIKey         string
	GeminiInsightModel   string
	GeminiExpansionModel string
	GeminiImageModel     string
	GeminiSpeechModel    string
	GeminiVoice          string

	Language  string
	Speech    bool
	OutputDir string
	Player    string

	Log LogConfig
}

// LogConfig selects where and how structured logs are written.
type LogConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads the relay configuration. A missing Gemini key is not fatal here:
// the relay starts and answers /api/chat with a misconfiguration error.
func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		CORSOrigin:           getEnvOrDefault("CORS_ORIGIN", "*"),
		GeminiAPIKey:         geminiAPIKey(),
		GeminiChatModel:      getEnvOrDefault("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		RateLimitPerMinute:   getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		Log:                  loadLogConfig(),
	}

	return cfg
}

// LoadClient reads the terminal front-end configuration.
func LoadClient() *ClientConfig {
	godotenv.Load()

	return &ClientConfig{
		RelayURL:             strings.TrimRight(getEnvOrDefault("RELAY_URL", "http://localhost:8080"), "/"),
		GeminiAPIKey:         geminiAPIKey(),
		GeminiInsightModel:   getEnvOrDefault("GEMINI_INSIGHT_MODEL", "gemini-2.0-flash"),
		GeminiExpansionModel: getEnvOrDefault("GEMINI_EXPANSION_MODEL", "gemini-3-flash-preview"),
		GeminiImageModel:     getEnvOrDefault("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiSpeechModel:    getEnvOrDefault("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		GeminiVoice:          getEnvOrDefault("GEMINI_VOICE", "Puck"),
		Language:             getEnvOrDefault("ORACLE_LANG", "fr"),
		Speech:               getEnvAsBoolOrDefault("ORACLE_SPEECH", true),
		OutputDir:            getEnvOrDefault("ORACLE_OUTPUT_DIR", "./visions"),
		Player:               getEnvOrDefault("ORACLE_PLAYER", ""),
		Log:                  loadLogConfig(),
	}
}

// IsProduction reports whether the relay runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
		File:   getEnvOrDefault("LOG_FILE", ""),
	}
}

// geminiAPIKey prefers GEMINI_API_KEY and falls back to VITE_GEMINI_API_KEY
// used by front-end deployments.
func geminiAPIKey() string {
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key
	}
	return strings.TrimSpace(os.Getenv("VITE_GEMINI_API_KEY"))
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
