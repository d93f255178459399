package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/footycharts/footycharts/internal/platform/logging"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the ingestion processes.
type Config struct {
	AppEnv         string
	ServiceName    string
	ServiceVersion string

	DBURL                   string
	DBDisablePreparedBinary bool

	FeedBaseURL               string
	FeedTimeout               time.Duration
	FeedMaxRetries            int
	FeedCircuitEnabled        bool
	FeedCircuitFailureCount   int
	FeedCircuitOpenTimeout    time.Duration
	FeedCircuitHalfOpenMaxReq int

	PollInterval         time.Duration
	InactiveProbeDivisor int
	InactiveHourStart    int
	Timezone             *time.Location
	LastHomeAwayRound    int

	BroadcastEnabled               bool
	BroadcastIngressURL            string
	BroadcastToken                 string
	BroadcastTimeout               time.Duration
	BroadcastCircuitEnabled        bool
	BroadcastCircuitFailureCount   int
	BroadcastCircuitOpenTimeout    time.Duration
	BroadcastCircuitHalfOpenMaxReq int

	// BackfillSeasonIDRanges maps a season year to its inclusive feed id
	// range, e.g. "2024:400-610,2025:611-830".
	BackfillSeasonIDRanges map[int]IDRange
	BackfillWorkers        int

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	PprofEnabled bool
	PprofAddr    string

	LogLevel logging.Level
}

type IDRange struct {
	Start int
	End   int
}

func Load() (Config, error) {
	cfg := Config{}

	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}
	cfg.AppEnv = appEnv
	cfg.ServiceName = getEnv("SERVICE_NAME", "footycharts-ingest")
	cfg.ServiceVersion = getEnv("SERVICE_VERSION", "dev")

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	cfg.DBDisablePreparedBinary, err = getEnvAsBool("DB_DISABLE_PREPARED_BINARY", false)
	if err != nil {
		return Config{}, err
	}

	cfg.FeedBaseURL = strings.TrimSpace(getEnv("FEED_BASE_URL", ""))
	cfg.FeedTimeout, err = getEnvAsDuration("FEED_TIMEOUT", 15*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FeedMaxRetries, err = getEnvAsInt("FEED_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_MAX_RETRIES: %w", err)
	}
	cfg.FeedCircuitEnabled, err = getEnvAsBool("FEED_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.FeedCircuitFailureCount, err = getEnvAsInt("FEED_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	cfg.FeedCircuitOpenTimeout, err = getEnvAsDuration("FEED_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.FeedCircuitHalfOpenMaxReq, err = getEnvAsInt("FEED_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	cfg.PollInterval, err = getEnvAsDuration("POLL_INTERVAL", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("POLL_INTERVAL must be positive")
	}
	cfg.InactiveProbeDivisor, err = getEnvAsInt("INACTIVE_PROBE_DIVISOR", 30)
	if err != nil {
		return Config{}, fmt.Errorf("parse INACTIVE_PROBE_DIVISOR: %w", err)
	}
	if cfg.InactiveProbeDivisor < 1 {
		return Config{}, fmt.Errorf("INACTIVE_PROBE_DIVISOR must be at least 1")
	}
	cfg.InactiveHourStart, err = getEnvAsInt("INACTIVE_HOUR_START", 12)
	if err != nil {
		return Config{}, fmt.Errorf("parse INACTIVE_HOUR_START: %w", err)
	}
	if cfg.InactiveHourStart < 0 || cfg.InactiveHourStart > 23 {
		return Config{}, fmt.Errorf("INACTIVE_HOUR_START must be between 0 and 23")
	}

	tzName := getEnv("TIMEZONE", "Australia/Melbourne")
	cfg.Timezone, err = time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("load TIMEZONE %q: %w", tzName, err)
	}

	cfg.LastHomeAwayRound, err = getEnvAsInt("LAST_HOME_AWAY_ROUND", 24)
	if err != nil {
		return Config{}, fmt.Errorf("parse LAST_HOME_AWAY_ROUND: %w", err)
	}
	if cfg.LastHomeAwayRound < 1 {
		return Config{}, fmt.Errorf("LAST_HOME_AWAY_ROUND must be at least 1")
	}

	cfg.BroadcastEnabled, err = getEnvAsBool("BROADCAST_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.BroadcastIngressURL = strings.TrimSpace(getEnv("BROADCAST_INGRESS_URL", ""))
	if cfg.BroadcastEnabled && cfg.BroadcastIngressURL == "" {
		return Config{}, fmt.Errorf("BROADCAST_INGRESS_URL is required when BROADCAST_ENABLED=true")
	}
	cfg.BroadcastToken = strings.TrimSpace(getEnv("BROADCAST_TOKEN", ""))
	cfg.BroadcastTimeout, err = getEnvAsDuration("BROADCAST_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.BroadcastCircuitEnabled, err = getEnvAsBool("BROADCAST_CIRCUIT_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.BroadcastCircuitFailureCount, err = getEnvAsInt("BROADCAST_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	cfg.BroadcastCircuitOpenTimeout, err = getEnvAsDuration("BROADCAST_CIRCUIT_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.BroadcastCircuitHalfOpenMaxReq, err = getEnvAsInt("BROADCAST_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse BROADCAST_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	cfg.BackfillSeasonIDRanges, err = parseSeasonIDRanges(getEnv("BACKFILL_SEASON_ID_RANGES", ""))
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKFILL_SEASON_ID_RANGES: %w", err)
	}
	cfg.BackfillWorkers, err = getEnvAsInt("BACKFILL_WORKERS", 8)
	if err != nil {
		return Config{}, fmt.Errorf("parse BACKFILL_WORKERS: %w", err)
	}

	cfg.UptraceEnabled, err = getEnvAsBool("UPTRACE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	cfg.PyroscopeEnabled, err = getEnvAsBool("PYROSCOPE_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate, err = getEnvAsDuration("PYROSCOPE_UPLOAD_RATE", 15*time.Second)
	if err != nil {
		return Config{}, err
	}

	cfg.PprofEnabled, err = getEnvAsBool("PPROF_ENABLED", false)
	if err != nil {
		return Config{}, err
	}
	cfg.PprofAddr = getEnv("PPROF_ADDR", "127.0.0.1:6060")

	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// parseSeasonIDRanges parses "2024:400-610,2025:611-830" into a season map.
func parseSeasonIDRanges(raw string) (map[int]IDRange, error) {
	out := make(map[int]IDRange)
	for _, part := range strings.Split(raw, ",") {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid item %q, expected season:start-end", item)
		}
		season, err := strconv.Atoi(strings.TrimSpace(segments[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid season in item %q: %w", item, err)
		}

		bounds := strings.SplitN(strings.TrimSpace(segments[1]), "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid range in item %q, expected start-end", item)
		}
		start, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid range start in item %q: %w", item, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid range end in item %q: %w", item, err)
		}
		if start <= 0 || end < start {
			return nil, fmt.Errorf("range must satisfy 0 < start <= end in item %q", item)
		}

		out[season] = IDRange{Start: start, End: end}
	}
	return out, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsBool(key string, fallback bool) (bool, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	return out, nil
}
