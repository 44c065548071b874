package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Keys       APIKeys
	Ai         AIConfig
	View       ViewConfig
	Confidence ConfidenceConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	HubLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
	OtelEndpoint       string
	ServiceName        string
}

type DatabaseConfig struct {
	Connection string // empty selects the in-memory store
}

type APIKeys struct {
	JWTSecret   string // empty disables the bearer guard
	HuggingFace string
}

type AIConfig struct {
	LLMProvider      string // "ollama" or "huggingface"
	LLMModel         string
	OllamaBaseURL    string
	RequestTimeout   time.Duration
	UseAIRecommender bool
	BatchRunes       int
	EmbeddingModel   string // empty disables embedding similarity
}

type ViewConfig struct {
	InclusionThreshold float64
	ConfidenceFloor    float64
	DefaultView        string

	PrimaryTimeout   time.Duration
	SecondaryTimeout time.Duration
	DocumentTimeout  time.Duration
	SegmentTimeout   time.Duration
	DispatchDelay    time.Duration

	Workers       int
	DispatchTopic string
	MaxSegment    int

	CacheTTL  time.Duration
	StatusTTL time.Duration
}

type ConfidenceConfig struct {
	BaseWeight          float64
	RetrievalWeight     float64
	SimilarityWeight    float64
	ConcentrationWeight float64
	ConsistencyWeight   float64
	HighThreshold       float64
	MediumThreshold     float64
	OutOfScopeRatio     float64
	OutOfScopePenalty   float64
	NegationDensity     float64
	NegationPenalty     float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			HubLogFilePath:     getEnv("HUB_LOG_FILE_PATH", "hub.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:        getEnv("OTEL_SERVICE_NAME", "ai-docview-be"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			JWTSecret:   getEnv("JWT_SECRET", ""),
			HuggingFace: getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:      getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:         getEnv("LLM_MODEL", "qwen2.5"),
			OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			RequestTimeout:   getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
			UseAIRecommender: getEnvAsBool("VIEW_AI_RECOMMENDER", true),
			BatchRunes:       getEnvAsInt("QA_BATCH_RUNES", 4000),
			EmbeddingModel:   getEnv("EMBEDDING_MODEL", ""),
		},
		View: ViewConfig{
			InclusionThreshold: getEnvAsFloat("VIEW_INCLUSION_THRESHOLD", 0.3),
			ConfidenceFloor:    getEnvAsFloat("VIEW_CONFIDENCE_FLOOR", 0.5),
			DefaultView:        getEnv("VIEW_DEFAULT", "qa"),

			PrimaryTimeout:   getEnvAsDuration("VIEW_PRIMARY_TIMEOUT", 3*time.Minute),
			SecondaryTimeout: getEnvAsDuration("VIEW_SECONDARY_TIMEOUT", 5*time.Minute),
			DocumentTimeout:  getEnvAsDuration("VIEW_DOCUMENT_TIMEOUT", 4*time.Minute),
			SegmentTimeout:   getEnvAsDuration("VIEW_SEGMENT_TIMEOUT", 2*time.Second),
			DispatchDelay:    getEnvAsDuration("VIEW_DISPATCH_DELAY", 0),

			Workers:       getEnvAsInt("VIEW_WORKERS", 4),
			DispatchTopic: getEnv("VIEW_DISPATCH_TOPIC", "view.ready"),
			MaxSegment:    getEnvAsInt("VIEW_MAX_SEGMENT_RUNES", 1200),

			CacheTTL:  getEnvAsDuration("VIEW_CACHE_TTL", 24*time.Hour),
			StatusTTL: getEnvAsDuration("VIEW_STATUS_TTL", 6*time.Hour),
		},
		Confidence: ConfidenceConfig{
			BaseWeight:          getEnvAsFloat("CONFIDENCE_BASE_WEIGHT", 0.4),
			RetrievalWeight:     getEnvAsFloat("CONFIDENCE_RETRIEVAL_WEIGHT", 0.3),
			SimilarityWeight:    getEnvAsFloat("CONFIDENCE_SIMILARITY_WEIGHT", 0.2),
			ConcentrationWeight: getEnvAsFloat("CONFIDENCE_CONCENTRATION_WEIGHT", 0.2),
			ConsistencyWeight:   getEnvAsFloat("CONFIDENCE_CONSISTENCY_WEIGHT", 0.3),
			HighThreshold:       getEnvAsFloat("CONFIDENCE_HIGH_THRESHOLD", 75),
			MediumThreshold:     getEnvAsFloat("CONFIDENCE_MEDIUM_THRESHOLD", 40),
			OutOfScopeRatio:     getEnvAsFloat("CONFIDENCE_OUT_OF_SCOPE_RATIO", 0.3),
			OutOfScopePenalty:   getEnvAsFloat("CONFIDENCE_OUT_OF_SCOPE_PENALTY", 20),
			NegationDensity:     getEnvAsFloat("CONFIDENCE_NEGATION_DENSITY", 0.1),
			NegationPenalty:     getEnvAsFloat("CONFIDENCE_NEGATION_PENALTY", 5),
		},
	}
}

func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
