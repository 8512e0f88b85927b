package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Calendar   CalendarConfig
	Solver     SolverConfig
	Compliance ComplianceConfig
	Swaps      SwapConfig
	Jobs       JobsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

// CalendarConfig anchors the academic year and the holiday table.
type CalendarConfig struct {
	AcademicYearStart string
	Holidays          map[string]string
}

// SolverConfig bounds solver invocations.
type SolverConfig struct {
	MinTimeout      time.Duration
	MaxTimeout      time.Duration
	Workers         int
	BranchLimit     int
	ResultCacheTTL  time.Duration
	IdempotencyTTL  time.Duration
	MaxRangeDays    int
	HoursPerSession float64
}

// ComplianceConfig carries the regulatory ceilings.
type ComplianceConfig struct {
	WeeklyHourCeiling float64
	RollingWeeks      int
	RestWindowDays    int
	HoursPerSession   float64
}

// SwapConfig governs the resolver.
type SwapConfig struct {
	RollbackWindow time.Duration
}

// JobsConfig tunes the async generation worker pool.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Calendar = CalendarConfig{
		AcademicYearStart: v.GetString("ACADEMIC_YEAR_START"),
		Holidays:          parseHolidays(v.GetString("HOLIDAY_TABLE")),
	}

	cfg.Solver = SolverConfig{
		MinTimeout:      parseDuration(v.GetString("SOLVER_MIN_TIMEOUT"), 5*time.Second),
		MaxTimeout:      parseDuration(v.GetString("SOLVER_MAX_TIMEOUT"), 300*time.Second),
		Workers:         v.GetInt("SOLVER_WORKERS"),
		BranchLimit:     v.GetInt("SOLVER_BRANCH_LIMIT"),
		ResultCacheTTL:  parseDuration(v.GetString("SOLVER_RESULT_CACHE_TTL"), time.Hour),
		IdempotencyTTL:  parseDuration(v.GetString("SOLVER_IDEMPOTENCY_TTL"), 24*time.Hour),
		MaxRangeDays:    v.GetInt("SOLVER_MAX_RANGE_DAYS"),
		HoursPerSession: v.GetFloat64("SOLVER_HOURS_PER_SESSION"),
	}

	cfg.Compliance = ComplianceConfig{
		WeeklyHourCeiling: v.GetFloat64("COMPLIANCE_WEEKLY_HOUR_CEILING"),
		RollingWeeks:      v.GetInt("COMPLIANCE_ROLLING_WEEKS"),
		RestWindowDays:    v.GetInt("COMPLIANCE_REST_WINDOW_DAYS"),
		HoursPerSession:   v.GetFloat64("SOLVER_HOURS_PER_SESSION"),
	}

	cfg.Swaps = SwapConfig{
		RollbackWindow: parseDuration(v.GetString("SWAP_ROLLBACK_WINDOW"), 24*time.Hour),
	}

	cfg.Jobs = JobsConfig{
		Workers:    v.GetInt("JOBS_WORKERS"),
		BufferSize: v.GetInt("JOBS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("JOBS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("JOBS_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "gme_rota")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ACADEMIC_YEAR_START", "")
	v.SetDefault("HOLIDAY_TABLE", "01-01=New Year's Day,07-04=Independence Day,12-25=Christmas Day")

	v.SetDefault("SOLVER_MIN_TIMEOUT", "5s")
	v.SetDefault("SOLVER_MAX_TIMEOUT", "300s")
	v.SetDefault("SOLVER_WORKERS", 4)
	v.SetDefault("SOLVER_BRANCH_LIMIT", 3)
	v.SetDefault("SOLVER_RESULT_CACHE_TTL", "1h")
	v.SetDefault("SOLVER_IDEMPOTENCY_TTL", "24h")
	v.SetDefault("SOLVER_MAX_RANGE_DAYS", 366)
	v.SetDefault("SOLVER_HOURS_PER_SESSION", 6.0)

	v.SetDefault("COMPLIANCE_WEEKLY_HOUR_CEILING", 80.0)
	v.SetDefault("COMPLIANCE_ROLLING_WEEKS", 4)
	v.SetDefault("COMPLIANCE_REST_WINDOW_DAYS", 7)

	v.SetDefault("SWAP_ROLLBACK_WINDOW", "24h")

	v.SetDefault("JOBS_WORKERS", 1)
	v.SetDefault("JOBS_BUFFER_SIZE", 8)
	v.SetDefault("JOBS_MAX_RETRIES", 1)
	v.SetDefault("JOBS_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseHolidays reads "MM-DD=Name" pairs separated by commas.
func parseHolidays(raw string) map[string]string {
	result := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		name := strings.TrimSpace(kv[1])
		if key == "" || name == "" {
			continue
		}
		result[key] = name
	}
	return result
}
