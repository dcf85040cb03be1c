// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/hamed0406/serverprobe/internal/config"
	"github.com/hamed0406/serverprobe/internal/registry"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg := config.FromEnv()

	if fc, err := config.LoadFile(cfg.ConfigPath); err != nil {
		warn(fmt.Sprintf("%s unreadable (%v); /config.json will 404 and the port falls back to env/default.", cfg.ConfigPath, err))
	} else if fc.FilePort() == 0 && fc.Port != nil {
		warn(fmt.Sprintf("%s has an invalid port %v; ignoring it.", cfg.ConfigPath, fc.Port))
	} else {
		ok(cfg.ConfigPath + " readable")
	}
	ok("listen address " + cfg.Addr)

	reg, err := registry.NewLoader(cfg.RegistryPath).Load()
	if err != nil {
		fail(fmt.Sprintf("%s: %v (every probe will return 500).", cfg.RegistryPath, err))
	}
	if len(reg) == 0 {
		warn(cfg.RegistryPath + " has no servers; every probe will be rejected.")
	} else {
		ok(fmt.Sprintf("%s: %d servers", cfg.RegistryPath, len(reg)))
	}
	for i, e := range reg {
		if e.Host == "" {
			warn(fmt.Sprintf("entry %d (%q) has no host; it can never be probed.", i, e.Name))
		}
	}

	if fi, err := os.Stat(cfg.PublicDir); err != nil || !fi.IsDir() {
		warn(cfg.PublicDir + " missing; the dashboard will not be served.")
	}

	switch {
	case cfg.DatabaseURL != "":
		ok("DATABASE_URL present; uptime cache in postgres")
	case cfg.RedisURL != "":
		ok("REDIS_URL present; uptime cache in redis")
	default:
		warn("DATABASE_URL and REDIS_URL empty; uptime cache is in-memory and lost on restart.")
	}

	if len(cfg.AllowedOrigins) == 0 {
		warn("ALLOWED_ORIGINS empty; CORS allows every origin.")
	} else {
		ok("ALLOWED_ORIGINS=" + strings.Join(cfg.AllowedOrigins, ","))
	}

	if cfg.CheckInterval == 0 {
		warn("CHECK_INTERVAL_MS is 0; background sweep and alerts are off.")
	} else if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK_URL empty; alerts go to the log only.")
	}

	ok("preflight passed")
}
