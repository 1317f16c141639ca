package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"    validate:"required"`
	Gateway  GatewayConfig  `mapstructure:"gateway"  validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Pool     PoolConfig     `mapstructure:"pool"     validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker"   validate:"required"`
}

// ServerConfig contains all HTTP-server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// AuthConfig contains authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`

	// AdminKeyHash is the bcrypt hash of the key guarding admin endpoints.
	// Empty disables the admin surface.
	AdminKeyHash string `mapstructure:"admin_key_hash"`
}

// RedisConfig contains settings for the cookie/credential store.
type RedisConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// GatewayConfig locates the browser-worker gateway sessions are opened
// against.
type GatewayConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains resume-tailoring LLM settings. Optional: with an empty
// API key the generate-resume task kind is rejected at submission.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds"`
}

// PoolConfig contains session-pool settings.
type PoolConfig struct {
	// MaxGlobalSessions is the system-wide live-session ceiling.
	MaxGlobalSessions int `mapstructure:"max_global_sessions" validate:"required,gt=0"`

	// DefaultPerUserSessions is the free-tier per-user cap, used when no
	// subscription row exists.
	DefaultPerUserSessions int `mapstructure:"default_per_user_sessions" validate:"required,gt=0"`

	// IdleTimeoutSeconds is how long a session may sit idle before the
	// reaper destroys it.
	IdleTimeoutSeconds int `mapstructure:"idle_timeout_seconds" validate:"required,gt=0"`

	// ReapIntervalSeconds is how often the reaper scans.
	ReapIntervalSeconds int `mapstructure:"reap_interval_seconds" validate:"required,gt=0"`
}

// WorkerConfig contains task-engine settings.
type WorkerConfig struct {
	Count     int `mapstructure:"count"      validate:"required,gt=0"`
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`

	// MaxAttempts is the total attempt budget per task, first attempt included.
	MaxAttempts int `mapstructure:"max_attempts" validate:"required,gt=0"`

	// BaseDelayMs and MaxDelayMs bound the pre-jitter backoff delay.
	BaseDelayMs int `mapstructure:"base_delay_ms" validate:"required,gt=0"`
	MaxDelayMs  int `mapstructure:"max_delay_ms"  validate:"required,gt=0"`

	// AcquireBaseDelayMs is the longer backoff base used after session
	// capacity exhaustion.
	AcquireBaseDelayMs int `mapstructure:"acquire_base_delay_ms" validate:"required,gt=0"`
}
