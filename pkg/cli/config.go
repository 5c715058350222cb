package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// DefaultSettingsFile is read from the working directory when --settings
// is not given.
const DefaultSettingsFile = "wfkit.json"

// Config holds the generator configuration.
// Priority: flags > env vars > settings file > defaults.
type Config struct {
	OutputDir   string `json:"output_dir"`
	Clean       bool   `json:"clean"`
	Concurrency int    `json:"concurrency"`
	Header      string `json:"header,omitempty"`
	LogLevel    string `json:"log_level"`
	LogJSON     bool   `json:"log_json"`
	NoColor     bool   `json:"no_color"`
}

func defaultConfig() Config {
	return Config{
		OutputDir:   workflow.WorkflowsDir,
		Concurrency: 8,
		LogLevel:    "warn",
	}
}

// loadConfig layers the settings file and WFKIT_* variables over the
// defaults. A missing default settings file is ignored; a missing file that
// was asked for explicitly is an error.
func loadConfig(path string, explicit bool, getenv func(string) string) (Config, error) {
	cfg := defaultConfig()

	// Layer 2: settings file.
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, schema.NewError(schema.ErrCodeValidation, "invalid settings file").WithPath(path).WithCause(err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return cfg, schema.NewError(schema.ErrCodeIO, "cannot read settings file").WithPath(path).WithCause(err)
	}

	// Layer 3: env vars override.
	if v := getenv("WFKIT_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("WFKIT_CLEAN"); v != "" {
		cfg.Clean = truthy(v)
	}
	if v := getenv("WFKIT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, schema.NewError(schema.ErrCodeValidation, fmt.Sprintf("WFKIT_CONCURRENCY must be a number, got %q", v))
		}
		cfg.Concurrency = n
	}
	if v := getenv("WFKIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := getenv("WFKIT_LOG_JSON"); v != "" {
		cfg.LogJSON = truthy(v)
	}
	if getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	if v := getenv("WFKIT_NO_COLOR"); v != "" {
		cfg.NoColor = truthy(v)
	}
	return cfg, nil
}

func truthy(v string) bool {
	return v == "true" || v == "1"
}

// commonFlags are accepted by every subcommand.
type commonFlags struct {
	settings  string
	outputDir string
	clean     bool
	logLevel  string
	noColor   bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.settings, "settings", DefaultSettingsFile, "settings file")
	fs.StringVar(&c.outputDir, "o", "", "output directory (shorthand)")
	fs.StringVar(&c.outputDir, "output", "", "output directory (default: .github/workflows)")
	fs.BoolVar(&c.clean, "clean", false, "empty the output directory before writing")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")
}

// resolve loads the layered config and applies the flags that were set.
func (c *commonFlags) resolve(fs *flag.FlagSet, getenv func(string) string) (Config, error) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := loadConfig(c.settings, set["settings"], getenv)
	if err != nil {
		return cfg, err
	}

	// Layer 4: flags.
	if set["o"] || set["output"] {
		cfg.OutputDir = c.outputDir
	}
	if set["clean"] {
		cfg.Clean = c.clean
	}
	if set["log-level"] {
		cfg.LogLevel = c.logLevel
	}
	if set["no-color"] {
		cfg.NoColor = c.noColor
	}
	if cfg.OutputDir == "" {
		return cfg, schema.NewError(schema.ErrCodeValidation, "output directory must not be empty")
	}
	return cfg, nil
}
