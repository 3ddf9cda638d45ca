package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the GEOINT analysis service
type Config struct {
	// Server configuration
	Port string

	// LLM provider: "gemini", "openai" or "stub"
	LLMProvider string

	// Gemini configuration
	GeminiAPIKey   string
	GeminiModel    string
	GroundingModel string
	TTSModel       string
	TTSVoice       string

	// OpenAI configuration (alternate provider)
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAITTSModel string
	OpenAITTSVoice string

	// Region lookup (Nominatim reverse geocoding)
	NominatimBaseURL string

	// Session configuration
	SystemLogCapacity int
	ChatCapacity      int

	// Comparison renderer
	FlickerInterval time.Duration

	// Demo imagery (Wikimedia Commons)
	DemoAnomalyURL      string
	DemoChangeBeforeURL string
	DemoChangeAfterURL  string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		LLMProvider: getEnv("LLM_PROVIDER", "gemini"),

		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-3-pro-preview"),
		GroundingModel: getEnv("GROUNDING_MODEL", "gemini-2.5-flash"),
		TTSModel:       getEnv("TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		TTSVoice:       getEnv("TTS_VOICE", "Kore"),

		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o"),
		OpenAITTSModel: getEnv("OPENAI_TTS_MODEL", "gpt-4o-mini-tts"),
		OpenAITTSVoice: getEnv("OPENAI_TTS_VOICE", "alloy"),

		NominatimBaseURL: getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),

		SystemLogCapacity: getIntEnv("SYSTEM_LOG_CAPACITY", 500),
		ChatCapacity:      getIntEnv("CHAT_CAPACITY", 200),

		FlickerInterval: getDurationEnv("FLICKER_INTERVAL", 500*time.Millisecond),

		DemoAnomalyURL:      getEnv("DEMO_ANOMALY_URL", "https://upload.wikimedia.org/wikipedia/commons/thumb/d/d8/Mars_surface.jpg/800px-Mars_surface.jpg"),
		DemoChangeBeforeURL: getEnv("DEMO_CHANGE_BEFORE_URL", "https://upload.wikimedia.org/wikipedia/commons/thumb/0/07/Muir_Glacier_1941.jpg/640px-Muir_Glacier_1941.jpg"),
		DemoChangeAfterURL:  getEnv("DEMO_CHANGE_AFTER_URL", "https://upload.wikimedia.org/wikipedia/commons/thumb/b/b6/Muir_Glacier_2004.jpg/640px-Muir_Glacier_2004.jpg"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
