package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by VERIGRAPH_ENV (or .env by
// default), then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("VERIGRAPH_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func GroqAPIKey() string {
	return os.Getenv("GROQ_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}

// LLMProvider returns the configured inference provider.
// Defaults to "groq" if not set. Valid values: groq, gemini, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "groq"
	}
	return p
}

// LLMAPIKey returns the API key for the configured inference provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "gemini":
		return GeminiAPIKey()
	case "mock":
		return ""
	default:
		return GroqAPIKey()
	}
}

// APIKey returns the static bearer key for the HTTP API. Empty disables
// authentication.
func APIKey() string {
	return os.Getenv("API_KEY")
}

// RetrievalURL returns the search endpoint of the retrieval service.
func RetrievalURL() string {
	u := os.Getenv("RETRIEVAL_URL")
	if u == "" {
		return "http://localhost:8000/query/search"
	}
	return u
}

func RetrievalTopK() int {
	return intEnv("RETRIEVAL_TOP_K", 20)
}

func FollowupTopK() int {
	return intEnv("FOLLOWUP_TOP_K", 15)
}

func MaxFollowupQueries() int {
	return intEnv("MAX_FOLLOWUP_QUERIES", 2)
}

// Expert voting weights. They should sum to 1; the gauntlet does not
// renormalize.
func SourceMatcherWeight() float64 {
	return floatEnv("SOURCE_MATCHER_WEIGHT", 0.4)
}

func HallucinationHunterWeight() float64 {
	return floatEnv("HALLUCINATION_HUNTER_WEIGHT", 0.3)
}

func LogicExpertWeight() float64 {
	return floatEnv("LOGIC_EXPERT_WEIGHT", 0.3)
}

func AcceptThreshold() float64 {
	return floatEnv("ACCEPT_THRESHOLD", 0.65)
}

func ExpertTimeout() time.Duration {
	return durationEnv("EXPERT_TIMEOUT", 5*time.Second)
}

func MaxExpertFailures() int {
	return intEnv("MAX_EXPERT_FAILURES", 3)
}

func MaxPaths() int {
	return intEnv("MAX_PATHS", 2)
}

func MaxDepth() int {
	return intEnv("MAX_DEPTH", 2)
}

func MaxCandidatesPerStep() int {
	return intEnv("MAX_CANDIDATES_PER_STEP", 4)
}

func MaxGauntletCalls() int {
	return intEnv("MAX_GAUNTLET_CALLS", 24)
}

// QueryBudget returns the wall-clock budget for one query.
func QueryBudget() time.Duration {
	return durationEnv("QUERY_BUDGET", 60*time.Second)
}

func MaxAnswerNodes() int {
	return intEnv("MAX_ANSWER_NODES", 6)
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func floatEnv(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
