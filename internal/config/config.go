package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

type Config struct {
	App         AppConfig
	Target      TargetConfig
	Browser     BrowserConfig
	Scrape      ScrapeConfig
	Session     SessionConfig
	Diagnostics DiagnosticsConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Database    DatabaseConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type TargetConfig struct {
	BaseURL   string
	LoginPath string
}

type BrowserConfig struct {
	Headless  bool
	ExecPath  string
	UserAgent string
}

type ScrapeConfig struct {
	NavigationTimeout time.Duration
	SettleDelay       time.Duration
	LoginSettleDelay  time.Duration
	RequestDelay      time.Duration
	RegionWindow      int
	NoDataPhrases     []string
	NoActivePattern   string
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
}

type DiagnosticsConfig struct {
	Key string
}

type StorageConfig struct {
	JobStore        string
	ActivityLogPath string
	ExportDir       string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout time.Duration
	PoolMaxConns   int32
}

// Enabled reports whether a Postgres connection was configured.
func (c DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(c.DBHost) != ""
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{}

	var missing []string
	var invalid []string
	req := func(key string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return def
		}
		return v
	}
	dur := func(key string, def time.Duration) time.Duration {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return def
		}
		d, err := ParseDuration(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return d
	}
	num := func(key string, def int) int {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			invalid = append(invalid, key)
			return def
		}
		return v
	}
	flag := func(key string, def bool) bool {
		raw := strings.TrimSpace(getenv(key))
		if raw == "" {
			return def
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			invalid = append(invalid, key)
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Target = TargetConfig{
		BaseURL:   strings.TrimRight(opt("TARGET_BASE_URL", "https://www.padsplit.com"), "/"),
		LoginPath: opt("TARGET_LOGIN_PATH", "/login"),
	}

	cfg.Browser = BrowserConfig{
		Headless:  flag("BROWSER_HEADLESS", true),
		ExecPath:  opt("BROWSER_EXEC_PATH", ""),
		UserAgent: opt("BROWSER_USER_AGENT", DefaultUserAgent),
	}

	cfg.Scrape = ScrapeConfig{
		NavigationTimeout: dur("NAVIGATION_TIMEOUT", 60*time.Second),
		SettleDelay:       dur("SETTLE_DELAY", 3*time.Second),
		LoginSettleDelay:  dur("LOGIN_SETTLE_DELAY", 5*time.Second),
		RequestDelay:      dur("REQUEST_DELAY", 2*time.Second),
		RegionWindow:      num("REGION_WINDOW", 800),
		NoDataPhrases:     splitList(getenv("NO_DATA_PHRASES")),
		NoActivePattern:   strings.TrimSpace(getenv("NO_ACTIVE_PATTERN")),
	}

	cfg.Session = SessionConfig{
		Secret: req("SESSION_SECRET"),
		TTL:    dur("SESSION_TTL", time.Hour),
	}

	cfg.Diagnostics = DiagnosticsConfig{Key: opt("DIAGNOSTICS_KEY", "")}

	cfg.Storage = StorageConfig{
		JobStore:        strings.ToLower(opt("JOB_STORE", "memory")),
		ActivityLogPath: opt("ACTIVITY_LOG_PATH", "./data/activity.log"),
		ExportDir:       opt("EXPORT_DIR", "./exports"),
	}
	if cfg.Storage.JobStore != "memory" && cfg.Storage.JobStore != "redis" {
		invalid = append(invalid, "JOB_STORE")
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: strings.TrimSpace(getenv("REDIS_PASSWORD")),
		TTL:      dur("REDIS_TTL", 600*time.Second),
	}

	cfg.Database = DatabaseConfig{
		DBHost:         opt("DB_HOST", ""),
		DBPort:         opt("DB_PORT", "5432"),
		DBName:         opt("DB_NAME", ""),
		DBUser:         opt("DB_USER", ""),
		DBPassword:     strings.TrimSpace(getenv("DB_PASSWORD")),
		DBSSLMode:      opt("DB_SSL_MODE", "disable"),
		ConnectTimeout: dur("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:   int32(num("DB_POOL_MAX_CONNS", 4)),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// ParseDuration accepts Go duration syntax ("90s", "1h") or a bare number of seconds.
func ParseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative duration: %s", raw)
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration: %s", raw)
	}
	return d, nil
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
