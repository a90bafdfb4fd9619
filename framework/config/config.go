package config

import (
	"errors"
	"os"
	"strings"
	"unicode"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Well-known keys.
const (
	KeyBasePath       = "app.basePath"
	KeyScanPackage    = "scanPackage"
	KeyScanExtension  = "scanExtension"
	KeyStrictScan     = "strictScan"
	KeyStrictAutowire = "strictAutowire"
	KeyStrictRoutes   = "strictRoutes"
)

// Config is the typed view over the loaded Properties.
type Config struct {
	App  AppConfig
	Scan ScanConfig
	Log  LogConfig

	props *Properties
	env   map[string]string
}

type AppConfig struct {
	Name string
	Env  string // local | production | testing
	Port string

	// BasePath prefixes every path of the route table when served.
	BasePath string
}

type ScanConfig struct {
	Package   string
	Extension string

	// Strict* turn the tolerant skip-and-warn defaults into fatal errors.
	Strict         bool
	StrictAutowire bool
	StrictRoutes   bool
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// LoadEnv reads .env files into the process environment. Missing files are
// not an error: .env may not exist in production.
func LoadEnv(envFiles ...string) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	_ = godotenv.Load(files...)
}

// FromProperties builds a Config. Every key can be overridden by an
// environment variable named after it (see EnvKey). The environment is read
// once here; later changes to it are not seen by the Config.
//
//	props, _ := config.Load(fsys, "application.properties")
//	cfg, err := config.FromProperties(props)
func FromProperties(props *Properties) (*Config, error) {
	c := &Config{props: props, env: environ()}

	c.App = AppConfig{
		Name:     c.String("app.name", "GoSpring"),
		Env:      c.String("app.env", "local"),
		Port:     c.String("app.port", "8080"),
		BasePath: strings.TrimSpace(c.String(KeyBasePath, "")),
	}
	c.Scan = ScanConfig{
		Package:        strings.TrimSpace(c.String(KeyScanPackage, "")),
		Extension:      c.String(KeyScanExtension, ".class"),
		Strict:         c.Bool(KeyStrictScan, false),
		StrictAutowire: c.Bool(KeyStrictAutowire, false),
		StrictRoutes:   c.Bool(KeyStrictRoutes, false),
	}
	c.Log = LogConfig{
		Level:      c.String("log.level", "info"),
		Format:     c.String("log.format", "console"),
		File:       c.String("log.file", ""),
		MaxSizeMB:  c.Int("log.maxSize", 100),
		MaxBackups: c.Int("log.maxBackups", 3),
		MaxAgeDays: c.Int("log.maxAge", 28),
	}

	if c.Scan.Package == "" {
		return nil, &ConfigLoadError{Resource: KeyScanPackage, Err: errors.New("no package to scan")}
	}
	return c, nil
}

// Properties returns the raw mapping the Config was built from.
func (c *Config) Properties() *Properties { return c.props }

// String returns the value for key: environment first, then properties,
// then fallback.
func (c *Config) String(key, fallback string) string {
	if v := c.env[EnvKey(key)]; v != "" {
		return v
	}
	return c.props.GetDefault(key, fallback)
}

// Int returns an int value, falling back when absent or malformed.
func (c *Config) Int(key string, fallback int) int {
	v := c.String(key, "")
	if v == "" {
		return fallback
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return fallback
	}
	return i
}

// Bool returns a bool value, falling back when absent or malformed.
func (c *Config) Bool(key string, fallback bool) bool {
	v := c.String(key, "")
	if v == "" {
		return fallback
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return fallback
	}
	return b
}

func environ() map[string]string {
	vars := os.Environ()
	env := make(map[string]string, len(vars))
	for _, kv := range vars {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// EnvKey maps a property key to its environment variable name:
// camelCase words and dots become upper snake case.
//
//	EnvKey("scanPackage") // "SCAN_PACKAGE"
//	EnvKey("log.maxSize") // "LOG_MAX_SIZE"
func EnvKey(key string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range key {
		switch {
		case r == '.' || r == '-':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r)
			prevLower = false
		default:
			b.WriteRune(unicode.ToUpper(r))
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
