package shared

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Driver string `yaml:"driver"` // "sqlite" (default)
		DSN    string `yaml:"dsn"`    // "./reviewmate.db"
	} `yaml:"database"`

	Analysis struct {
		Policy     string   `yaml:"policy"`     // "Clean Code"
		Targets    []string `yaml:"targets"`    // ["sample.js"]
		Extensions []string `yaml:"extensions"` // used when a target is a directory
		MustExist  bool     `yaml:"must_exist"` // fail instead of skipping missing targets
		Workers    int      `yaml:"workers"`    // 1 = sequential
		Persist    bool     `yaml:"persist"`    // save each run to the database
		Waivers    bool     `yaml:"waivers"`    // apply active waivers from the database
	} `yaml:"analysis"`

	Rules struct {
		Marker   string   `yaml:"marker"`   // "// TODO"
		Enabled  []string `yaml:"enabled"`  // opt-in built-ins
		Disabled []string `yaml:"disabled"` // rule IDs to drop
		Packs    []string `yaml:"packs"`    // YAML rule pack paths
	} `yaml:"rules"`

	Reporting struct {
		OutDir string `yaml:"out_dir"` // "" = no JSON/HTML artifacts
		Color  string `yaml:"color"`   // "auto"|"always"|"never"
	} `yaml:"reporting"`

	Review struct {
		Endpoint   string `yaml:"endpoint"`    // "http://localhost:8000/analyze-diff"
		TimeoutSec int    `yaml:"timeout_sec"` // 60
	} `yaml:"review"`

	Server struct {
		Addr           string   `yaml:"addr"`            // ":8080"
		AllowedOrigins []string `yaml:"allowed_origins"` // CORS
		SessionHours   int      `yaml:"session_hours"`   // 12
	} `yaml:"server"`

	Logging struct {
		Format string `yaml:"format"` // "json"|"text"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`
}

func DefaultConfig() Config {
	var c Config
	c.Database.Driver = "sqlite"
	c.Database.DSN = "./reviewmate.db"
	c.Analysis.Policy = "Clean Code"
	c.Analysis.Targets = []string{"sample.js"}
	c.Analysis.Extensions = []string{".js", ".jsx", ".ts", ".tsx", ".go", ".py"}
	c.Analysis.Workers = 1
	c.Rules.Marker = "// TODO"
	c.Reporting.Color = "auto"
	c.Review.Endpoint = "http://localhost:8000/analyze-diff"
	c.Review.TimeoutSec = 60
	c.Server.Addr = ":8080"
	c.Server.SessionHours = 12
	c.Logging.Format = "text"
	c.Logging.Level = "warn"
	return c
}

// LoadConfig layers defaults, the YAML file at path (optional) and
// REVIEWMATE_* environment overrides. A missing file is not an error; a file
// that does not parse is.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return c, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	// Env overrides (simple, explicit)
	if v := os.Getenv("REVIEWMATE_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REVIEWMATE_POLICY"); v != "" {
		c.Analysis.Policy = v
	}
	if v := os.Getenv("REVIEWMATE_TARGETS"); v != "" {
		c.Analysis.Targets = splitList(v)
	}
	if v := os.Getenv("REVIEWMATE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.Workers = n
		}
	}
	if v := os.Getenv("REVIEWMATE_MARKER"); v != "" {
		c.Rules.Marker = v
	}
	if v := os.Getenv("REVIEWMATE_REVIEW_ENDPOINT"); v != "" {
		c.Review.Endpoint = v
	}
	if v := os.Getenv("REVIEWMATE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("REVIEWMATE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REVIEWMATE_OUT_DIR"); v != "" {
		c.Reporting.OutDir = v
	}
	return c, nil
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
