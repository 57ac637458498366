// Package config provides application configuration loaded from environment
// variables with defaults and validation. It covers the backend (server
// timeouts, logging, database and key paths, the bot process, probes, rate
// limiting, observability) and the console client (backend URL, load
// timeout, polling cadence, save policy).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "lotto-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BotConfig describes the purchase worker process.
type BotConfig struct {
	Command   []string       // BOT_COMMAND, split on whitespace
	Dir       string         // BOT_WORKDIR
	PIDPath   string         // BOT_PID_PATH
	LogPath   string         // BOT_LOG_PATH
	TailLines int            // LOG_TAIL_LINES
	Location  *time.Location // SCHEDULE_TZ
}

// ProbeConfig describes the login and deposit check commands.
type ProbeConfig struct {
	LoginCommand   []string      // PROBE_LOGIN_COMMAND
	DepositCommand []string      // PROBE_DEPOSIT_COMMAND
	Timeout        time.Duration // PROBE_TIMEOUT
}

// Config holds all configuration values for the backend.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DBPath        string // SQLite path
	SecretKeyPath string // key file for sealing passwords
	MaskSecrets   bool   // hide passwords in GET /config

	// Worker
	Bot   BotConfig
	Probe ProbeConfig

	// Notifications
	DiscordTimeout time.Duration

	// Rate limiting
	RateRPS    float64 // tokens per second (>= 0)
	RateBurst  int     // bucket size (>= 1)
	ProbeRPS   float64 // per route and client, bot control and probes
	ProbeBurst int

	// IdempotencyTTL is how long a replayed reply is kept.
	IdempotencyTTL time.Duration

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "5000"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 3*time.Minute),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api")),

		// Storage
		DBPath:        getenv("DB_PATH", "lotto.db"),
		SecretKeyPath: getenv("SECRET_KEY_PATH", "secret.key"),
		MaskSecrets:   getbool("MASK_SECRETS", false),

		// Worker
		Bot: BotConfig{
			Command:   strings.Fields(getenv("BOT_COMMAND", "")),
			Dir:       getenv("BOT_WORKDIR", ""),
			PIDPath:   getenv("BOT_PID_PATH", "bot.pid"),
			LogPath:   getenv("BOT_LOG_PATH", "bot.log"),
			TailLines: getint("LOG_TAIL_LINES", 50),
		},
		Probe: ProbeConfig{
			LoginCommand:   strings.Fields(getenv("PROBE_LOGIN_COMMAND", "")),
			DepositCommand: strings.Fields(getenv("PROBE_DEPOSIT_COMMAND", "")),
			Timeout:        getdur("PROBE_TIMEOUT", 2*time.Minute),
		},

		DiscordTimeout: getdur("DISCORD_TIMEOUT", 10*time.Second),

		// Rate limiting
		RateRPS:    getfloat("RATE_RPS", 5.0),
		RateBurst:  getint("RATE_BURST", 10),
		ProbeRPS:   getfloat("PROBE_RATE_RPS", 0.2),
		ProbeBurst: getint("PROBE_RATE_BURST", 3),

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "lotto-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	var errs []error
	check := func(bad bool, msg string) {
		if bad {
			errs = append(errs, errors.New(msg))
		}
	}

	loc, err := loadLocation(getenv("SCHEDULE_TZ", "Local"))
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Bot.Location = loc

	if err := validLogLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	check(strings.TrimSpace(cfg.Port) == "", "PORT must not be empty")
	check(cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0,
		"timeouts must be positive durations")
	check(cfg.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0")
	check(strings.TrimSpace(cfg.DBPath) == "", "DB_PATH must not be empty")
	check(strings.TrimSpace(cfg.SecretKeyPath) == "", "SECRET_KEY_PATH must not be empty")
	check(strings.TrimSpace(cfg.Bot.PIDPath) == "", "BOT_PID_PATH must not be empty")
	check(cfg.Bot.TailLines < 1, "LOG_TAIL_LINES must be >= 1")
	check(cfg.Probe.Timeout <= 0, "PROBE_TIMEOUT must be > 0")
	check(cfg.DiscordTimeout <= 0, "DISCORD_TIMEOUT must be > 0")
	check(cfg.RateRPS < 0, "RATE_RPS must be >= 0")
	check(cfg.RateBurst < 1, "RATE_BURST must be >= 1")
	check(cfg.ProbeRPS < 0, "PROBE_RATE_RPS must be >= 0")
	check(cfg.ProbeBurst < 1, "PROBE_RATE_BURST must be >= 1")
	check(cfg.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0")
	check(cfg.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0")
	check(cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]")

	if len(errs) > 0 {
		return cfg, errors.Join(errs...)
	}
	return cfg, nil
}

// ClientConfig holds the console client's settings.
type ClientConfig struct {
	APIURL           string        // LOTTO_API_URL, e.g. http://localhost:5000/api
	LoadTimeout      time.Duration // LOAD_TIMEOUT, bound on the initial fetch
	RequestTimeout   time.Duration // REQUEST_TIMEOUT, bound on every other call
	StatusEvery      time.Duration // STATUS_POLL_INTERVAL
	LogsEvery        time.Duration // LOG_POLL_INTERVAL
	SaveStrategy     string        // SAVE_STRATEGY: full|section
	KeepBlankSecrets bool          // KEEP_BLANK_SECRETS, on unless set to a false value
	LogLevel         string
	LogPretty        bool
}

// LoadClient reads the console client's configuration.
func LoadClient() (ClientConfig, error) {
	cfg := ClientConfig{
		APIURL:           strings.TrimRight(getenv("LOTTO_API_URL", "http://localhost:5000/api"), "/"),
		LoadTimeout:      getdur("LOAD_TIMEOUT", 5*time.Second),
		RequestTimeout:   getdur("REQUEST_TIMEOUT", 3*time.Minute),
		StatusEvery:      getdur("STATUS_POLL_INTERVAL", 5*time.Second),
		LogsEvery:        getdur("LOG_POLL_INTERVAL", 3*time.Second),
		SaveStrategy:     strings.ToLower(getenv("SAVE_STRATEGY", "full")),
		KeepBlankSecrets: getbool("KEEP_BLANK_SECRETS", true),
		LogLevel:         strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:        getbool("LOG_PRETTY", true),
	}
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	if err := validLogLevel(cfg.LogLevel); err != nil {
		return cfg, err
	}
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return cfg, errors.New("LOTTO_API_URL must be an http(s) URL")
	}
	if cfg.LoadTimeout <= 0 || cfg.RequestTimeout <= 0 {
		return cfg, errors.New("LOAD_TIMEOUT and REQUEST_TIMEOUT must be > 0")
	}
	if cfg.StatusEvery < time.Second || cfg.LogsEvery < time.Second {
		return cfg, errors.New("poll intervals must be at least 1s")
	}
	switch cfg.SaveStrategy {
	case "full", "section":
	default:
		return cfg, errors.New("SAVE_STRATEGY must be one of: full, section")
	}
	return cfg, nil
}

func validLogLevel(l string) error {
	switch l {
	case "debug", "info", "warn", "error", "fatal", "panic":
		return nil
	}
	return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("SCHEDULE_TZ: %w", err)
	}
	return loc, nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
