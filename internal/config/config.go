package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultPort = 8080

type Config struct {
	Addr         string // listen address; API_ADDR, else ":"+PORT, else ":"+config file port, else ":8080"
	ConfigPath   string // runtime config file served at /config.json
	RegistryPath string // servers registry served at /servers.json
	PublicDir    string // static dashboard
	LogDir       string // logs directory

	DatabaseURL string // postgres uptime cache + alert state when set
	RedisURL    string // redis uptime cache when set (and no DATABASE_URL)

	AllowedOrigins []string // CORS; empty allows all
	TrustProxy     bool     // honour X-Forwarded-For / X-Real-IP
	ProbeRPM       int      // per-IP limit on probe routes, 0 disables
	ProbeBurst     int

	ConnectTimeout time.Duration
	RaceTimeout    time.Duration
	HealthTimeout  time.Duration

	CheckInterval   time.Duration // background sweep, 0 disables
	MaxConcurrent   int
	SlackWebhook    string
	AlertCooldown   time.Duration
	AlertOnRecovery bool
}

// FileConfig is the subset of the runtime config file the server reads.
// The file is YAML or JSON (JSON parses as YAML).
type FileConfig struct {
	Port any `yaml:"port"`
}

// LoadFile reads the runtime config file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// FilePort returns the configured port, or 0 when absent or invalid.
func (fc FileConfig) FilePort() int {
	switch v := fc.Port.(type) {
	case int:
		return validPort(v)
	case float64:
		if v == float64(int(v)) {
			return validPort(int(v))
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return validPort(n)
	}
	return 0
}

func validPort(p int) int {
	if p > 0 && p <= 65535 {
		return p
	}
	return 0
}

func FromEnv() Config {
	configPath := envString("CONFIG_PATH", "config.json")

	// Port precedence: env, then config file, then default.
	// A missing or broken config file is not fatal.
	port := DefaultPort
	if fc, err := LoadFile(configPath); err == nil && fc.FilePort() != 0 {
		port = fc.FilePort()
	}
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && validPort(n) != 0 {
			port = n
		}
	}
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = ":" + strconv.Itoa(port)
	}

	return Config{
		Addr:         addr,
		ConfigPath:   configPath,
		RegistryPath: envString("SERVERS_PATH", "servers.json"),
		PublicDir:    envString("PUBLIC_DIR", "public"),
		LogDir:       envString("LOG_DIR", "logs"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		AllowedOrigins: splitCSV(os.Getenv("ALLOWED_ORIGINS")),
		TrustProxy:     envBool("TRUST_PROXY", false),
		ProbeRPM:       envInt("PROBE_RPM", 600, 0),
		ProbeBurst:     envInt("PROBE_BURST", 60, 1),

		ConnectTimeout: envMillis("CONNECT_TIMEOUT_MS", 2000*time.Millisecond),
		RaceTimeout:    envMillis("RACE_TIMEOUT_MS", 1500*time.Millisecond),
		HealthTimeout:  envMillis("HEALTH_TIMEOUT_MS", 1500*time.Millisecond),

		CheckInterval:   envMillis("CHECK_INTERVAL_MS", 0),
		MaxConcurrent:   envInt("MAX_CONCURRENT_CHECKS", 4, 1),
		SlackWebhook:    os.Getenv("SLACK_WEBHOOK_URL"),
		AlertCooldown:   envMillis("ALERT_COOLDOWN_MS", 5*time.Minute),
		AlertOnRecovery: envBool("ALERT_ON_RECOVERY", true),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envInt falls back to def when unset, unparsable or below min.
func envInt(key string, def, min int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= min {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
