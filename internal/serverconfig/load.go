package serverconfig

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "COUCHJWT"

// Options selects the sources Load reads.
type Options struct {
	// Path of a YAML file. Empty falls back to the -c/-config flag, and
	// skips the file when that is empty too.
	Path string
	// EnvFiles are loaded into the process environment without overriding
	// variables that are already set. Missing files are ignored. Nil means
	// ".env".
	EnvFiles []string
	Flags    *Flags
}

// Load builds the configuration from all sources.
func Load(opts Options) (Config, error) {
	cfg := Default()

	path := opts.Path
	if path == "" && opts.Flags != nil {
		path = opts.Flags.ConfigPath
	}
	if path != "" {
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	envFiles := opts.EnvFiles
	if envFiles == nil {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("environment: %w", err)
	}

	if opts.Flags != nil {
		opts.Flags.apply(&cfg)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Flags holds the command-line flags. Only flags present on the command
// line override other sources.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath string
	Version    bool

	values Config
}

// BindFlags registers the server flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "c", "", "path to a YAML config file")
	fs.StringVar(&f.ConfigPath, "config", "", "path to a YAML config file")
	fs.BoolVar(&f.Version, "version", false, "print the version and exit")

	fs.StringVar(&f.values.CouchDB, "couchdb", "", "CouchDB URL, optionally with admin credentials")
	fs.StringVar(&f.values.Secret, "secret", "", "token signing secret")
	fs.Var(&f.values.ExpiresIn, "expiresIn", "token lifetime (5m or seconds)")
	fs.StringVar(&f.values.Session.Store, "session.store", "", "session backend: memory, none, redis, couch, postgres")
	fs.StringVar(&f.values.Endpoint, "endpoint", "", "path serving the token API")
	fs.StringVar(&f.values.Host, "host", "", "listen host")
	fs.IntVar(&f.values.Port, "port", DefaultPort, "listen port")
	fs.BoolVar(&f.values.Production, "production", false, "enable production hardening checks")
	fs.StringVar(&f.values.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.BoolVar(&f.values.LogJSON, "log-json", false, "log as JSON")
	return f
}

func (f *Flags) apply(cfg *Config) {
	if f == nil || f.fs == nil {
		return
	}
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "couchdb":
			cfg.CouchDB = f.values.CouchDB
		case "secret":
			cfg.Secret = f.values.Secret
		case "expiresIn":
			cfg.ExpiresIn = f.values.ExpiresIn
		case "session.store":
			cfg.Session.Store = f.values.Session.Store
		case "endpoint":
			cfg.Endpoint = f.values.Endpoint
		case "host":
			cfg.Host = f.values.Host
		case "port":
			cfg.Port = f.values.Port
		case "production":
			cfg.Production = f.values.Production
		case "log-level":
			cfg.LogLevel = f.values.LogLevel
		case "log-json":
			cfg.LogJSON = f.values.LogJSON
		}
	})
}
