package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	LLMProvider     string
	GeminiAPIKey    string
	OpenAIAPIKey    string
	QdrantAddr      string
	VectorNamespace string
	RetrievalTopK   int
	DocsDir         string
	DatabaseURL     string
	HTTPPort        string
	LogLevel        string
	JWTSecret       string
	DailyLimit      int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		LLMProvider:     getEnv("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		QdrantAddr:      getEnv("QDRANT_ADDR", "localhost:6334"),
		VectorNamespace: getEnv("VECTOR_NAMESPACE", "all_webpages"),
		RetrievalTopK:   getEnvAsInt("RETRIEVAL_TOP_K", 5),
		DocsDir:         getEnv("DOCS_DIR", "files/extracted_pages"),
		DatabaseURL:     getEnv("DATABASE_URL", "langchat.db"),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		DailyLimit:      getEnvAsInt("DAILY_MESSAGE_LIMIT", 4),
	}

	switch AppConfig.LLMProvider {
	case "gemini":
		if AppConfig.GeminiAPIKey == "" {
			log.Fatal("GEMINI_API_KEY environment variable is required when LLM_PROVIDER=gemini")
		}
	case "openai":
		if AppConfig.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when LLM_PROVIDER=openai")
		}
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q (expected \"gemini\" or \"openai\")", AppConfig.LLMProvider)
	}

	if AppConfig.JWTSecret == "" {
		log.Fatal("JWT_SECRET environment variable is required")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
