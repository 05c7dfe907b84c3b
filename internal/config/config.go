package config

import (
	"fmt"
	"time"
)

// DefaultNewsFeeds are "url|category" pairs read when NEWS_FEEDS is unset.
var DefaultNewsFeeds = []string{
	"https://news.yahoo.co.jp/rss/topics/it.xml|IT・テクノロジー",
	"https://news.yahoo.co.jp/rss/topics/business.xml|ビジネス",
	"https://news.yahoo.co.jp/rss/topics/entertainment.xml|エンタメ",
	"https://news.yahoo.co.jp/rss/topics/domestic.xml|国内",
	"https://b.hatena.ne.jp/hotentry/it.rss|はてブ IT",
}

type Config struct {
	AppEnv string
	Port   string
	AppURL string

	DatabaseURL string
	RedisURL    string
	AMQPURL     string

	JWTSecret    string
	JWTExpiresIn time.Duration

	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIURL    string
	GeminiAPIKey string
	GeminiModel  string

	XAPIKey      string
	XAPISecret   string
	XBearerToken string
	XAPIURL      string
	ThreadsURL   string

	GoogleTrendsFeedURL string
	NewsFeeds           []string

	SlackWebhookURL string
	CORSOrigins     []string

	ScheduleTimezone     string
	SchedulerInterval    time.Duration
	AutopilotConcurrency int
	CollaboratorTimeout  time.Duration
	CollaboratorRetries  int
	RunLockTTL           time.Duration
	TrendCacheTTL        time.Duration

	LogFile string
}

// Load reads the process environment. Call LoadEnv first to pick up .env.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv: GetEnv("APP_ENV", "development"),
		Port:   GetEnv("PORT", "8000"),
		AppURL: GetEnv("APP_URL", "http://localhost:8000"),

		DatabaseURL: GetEnv("DATABASE_URL", databaseURLFromParts()),
		RedisURL:    GetEnv("REDIS_URL", ""),
		AMQPURL:     GetEnv("AMQP_URL", ""),

		JWTSecret:    GetEnv("JWT_SECRET_KEY", ""),
		JWTExpiresIn: time.Duration(GetEnvInt("JWT_EXPIRE_MINUTES", 1440)) * time.Minute,

		OpenAIAPIKey: GetEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  GetEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIURL:    GetEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey: GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:  GetEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		XAPIKey:      GetEnv("X_API_KEY", ""),
		XAPISecret:   GetEnv("X_API_SECRET", ""),
		XBearerToken: GetEnv("X_BEARER_TOKEN", ""),
		XAPIURL:      GetEnv("X_API_BASE_URL", "https://api.twitter.com"),
		ThreadsURL:   GetEnv("THREADS_API_BASE_URL", "https://graph.threads.net/v1.0"),

		GoogleTrendsFeedURL: GetEnv("GOOGLE_TRENDS_FEED_URL", "https://trends.google.co.jp/trending/rss?geo=JP"),
		NewsFeeds:           GetEnvList("NEWS_FEEDS", DefaultNewsFeeds),

		SlackWebhookURL: GetEnv("SLACK_WEBHOOK_URL", ""),
		CORSOrigins:     GetEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),

		ScheduleTimezone:     GetEnv("SCHEDULE_TIMEZONE", "Asia/Tokyo"),
		SchedulerInterval:    GetEnvDuration("SCHEDULER_INTERVAL", time.Minute),
		AutopilotConcurrency: GetEnvInt("AUTOPILOT_CONCURRENCY", 4),
		CollaboratorTimeout:  GetEnvDuration("COLLABORATOR_TIMEOUT", 30*time.Second),
		CollaboratorRetries:  GetEnvInt("COLLABORATOR_RETRIES", 1),
		RunLockTTL:           GetEnvDuration("RUN_LOCK_TTL", 10*time.Minute),
		TrendCacheTTL:        GetEnvDuration("TREND_CACHE_TTL", 5*time.Minute),

		LogFile: GetEnv("LOG_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.AppEnv != "development" {
			return fmt.Errorf("JWT_SECRET_KEY is required when APP_ENV=%s", c.AppEnv)
		}
		c.JWTSecret = "dev-secret-change-me"
	}
	if c.AutopilotConcurrency <= 0 {
		return fmt.Errorf("AUTOPILOT_CONCURRENCY must be positive, got %d", c.AutopilotConcurrency)
	}
	if c.CollaboratorRetries < 0 {
		return fmt.Errorf("COLLABORATOR_RETRIES must not be negative, got %d", c.CollaboratorRetries)
	}
	if c.SchedulerInterval <= 0 {
		c.SchedulerInterval = time.Minute
	}
	// The API and the worker each take the run lock, so it has to be shared.
	if c.AMQPURL != "" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when AMQP_URL is set")
	}
	return nil
}

// Location resolves ScheduleTimezone; hosts without tzdata get a fixed JST offset.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ScheduleTimezone)
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}

func databaseURLFromParts() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		GetEnv("DB_USER", "postgres"),
		GetEnv("DB_PASSWORD", "postgres"),
		GetEnv("DB_HOST", "localhost"),
		GetEnv("DB_PORT", "5432"),
		GetEnv("DB_NAME", "autobuzz"),
	)
}
