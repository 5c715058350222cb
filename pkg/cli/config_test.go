package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/wfkit/pkg/schema"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wfkit.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "wfkit.json"), false, envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Equal(t, ".github/workflows", cfg.OutputDir)
}

func TestLoadConfig_Layers(t *testing.T) {
	path := writeSettings(t, `{"output_dir": "from-file", "concurrency": 2, "log_level": "debug"}`)

	cfg, err := loadConfig(path, true, envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Concurrency)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg, err = loadConfig(path, true, envOf(map[string]string{
		"WFKIT_OUTPUT_DIR":  "from-env",
		"WFKIT_CONCURRENCY": "4",
		"WFKIT_CLEAN":       "1",
		"WFKIT_LOG_JSON":    "true",
		"NO_COLOR":          "yes",
	}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.True(t, cfg.Clean)
	assert.True(t, cfg.LogJSON)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_WfkitNoColorOverridesNoColor(t *testing.T) {
	cfg, err := loadConfig("missing.json", false, envOf(map[string]string{
		"NO_COLOR":       "1",
		"WFKIT_NO_COLOR": "false",
	}))
	require.NoError(t, err)
	assert.False(t, cfg.NoColor)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		explicit bool
		env      map[string]string
		code     string
	}{
		{
			name:     "explicit missing file",
			path:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
			explicit: true,
			code:     schema.ErrCodeIO,
		},
		{
			name: "malformed file",
			path: func(t *testing.T) string { return writeSettings(t, `{"output_dir": `) },
			code: schema.ErrCodeValidation,
		},
		{
			name: "bad concurrency",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") },
			env:  map[string]string{"WFKIT_CONCURRENCY": "many"},
			code: schema.ErrCodeValidation,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(tc.path(t), tc.explicit, envOf(tc.env))
			require.Error(t, err)
			var se *schema.Error
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.code, se.Code)
		})
	}
}

func TestCommonFlags_FlagsWin(t *testing.T) {
	path := writeSettings(t, `{"output_dir": "from-file", "clean": true, "log_level": "error"}`)
	env := envOf(map[string]string{"WFKIT_OUTPUT_DIR": "from-env"})

	fs := newFlagSet()
	var c commonFlags
	c.register(fs)
	require.NoError(t, fs.Parse([]string{"--settings", path, "-o", "from-flag", "--clean=false", "--no-color"}))

	cfg, err := c.resolve(fs, env)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.OutputDir)
	assert.False(t, cfg.Clean)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestCommonFlags_UnsetFlagsKeepLayers(t *testing.T) {
	path := writeSettings(t, `{"clean": true}`)

	fs := newFlagSet()
	var c commonFlags
	c.register(fs)
	require.NoError(t, fs.Parse([]string{"--settings", path}))

	cfg, err := c.resolve(fs, envOf(map[string]string{"WFKIT_OUTPUT_DIR": "from-env"}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.True(t, cfg.Clean)
}

func TestCommonFlags_EmptyOutput(t *testing.T) {
	fs := newFlagSet()
	var c commonFlags
	c.register(fs)
	require.NoError(t, fs.Parse([]string{"--settings", writeSettings(t, `{}`), "--output", ""}))

	_, err := c.resolve(fs, envOf(nil))
	assert.ErrorIs(t, err, &schema.Error{Code: schema.ErrCodeValidation})
}
