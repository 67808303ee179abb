package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/labstack/gommon/log"
)

type Config struct {
	Port     string
	DataDir  string
	Workbook string
	LogLevel string
	Rate     float64
	Origins  []string
	Seed     uint64
}

func Default() Config {
	return Config{
		Port:     "8080",
		DataDir:  "data",
		LogLevel: "info",
		Seed:     42,
	}
}

// Load reads the environment first, then lets command-line flags override it.
func Load(args []string) (Config, error) {
	cfg := Default()
	if err := cfg.fromEnv(os.Getenv); err != nil {
		return cfg, err
	}

	fs := flag.NewFlagSet("bibliodash", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	fs.StringVar(&cfg.DataDir, "data", cfg.DataDir, "directory holding the snapshot files")
	fs.StringVar(&cfg.Workbook, "workbook", cfg.Workbook, "optional xlsx workbook with both datasets")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn, error or off")
	fs.Float64Var(&cfg.Rate, "rate", cfg.Rate, "requests per second per client, 0 disables limiting")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "seed for synthetic data and the Bradford simulation")
	origins := fs.String("origins", strings.Join(cfg.Origins, ","), "comma-separated CORS origins")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.Origins = splitList(*origins)

	if _, ok := levels[strings.ToLower(cfg.LogLevel)]; !ok {
		return cfg, fmt.Errorf("log level %q: unknown", cfg.LogLevel)
	}
	return cfg, nil
}

func (c *Config) fromEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := getenv("BIBLIODASH_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := getenv("BIBLIODASH_WORKBOOK"); v != "" {
		c.Workbook = v
	}
	if v := getenv("BIBLIODASH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("BIBLIODASH_ORIGINS"); v != "" {
		c.Origins = splitList(v)
	}
	if v := getenv("BIBLIODASH_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BIBLIODASH_RATE: %w", err)
		}
		c.Rate = r
	}
	if v := getenv("BIBLIODASH_SEED"); v != "" {
		s, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BIBLIODASH_SEED: %w", err)
		}
		c.Seed = s
	}
	return nil
}

var levels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
	"off":   log.OFF,
}

// Level maps LogLevel onto gommon's levels, defaulting to INFO.
func (c Config) Level() log.Lvl {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.INFO
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
