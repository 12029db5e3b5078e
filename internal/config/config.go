package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir   string `toml:"work_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Sync contains global synchronization settings.
type Sync struct {
	// Strategy is one of auto, first-line, scan, translation, manual.
	Strategy string `toml:"strategy"`
	// LanguagePreference picks the reference track when neither track is
	// embedded: chinese, english, or auto.
	LanguagePreference string `toml:"language_preference"`
	// Reference overrides automatic reference selection: first or second.
	Reference string `toml:"reference"`
	// MatchThreshold gates translation-assisted anchor matches.
	MatchThreshold float64 `toml:"match_threshold"`
}

// Merge contains merge behavior settings.
type Merge struct {
	// TextOrder puts the reference text first or second in combined cues.
	TextOrder string `toml:"text_order"`
	// EnhancedAlignment enables per-event alignment for external pairs even
	// when the assessor reports good synchronization.
	EnhancedAlignment bool `toml:"enhanced_alignment"`
	// AntiJitter enables the post-merge flicker cleanup pass.
	AntiJitter bool `toml:"anti_jitter"`
}

// Translation contains machine-translation API settings.
type Translation struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Batch contains batch processing settings.
type Batch struct {
	// Workers bounds the worker pool; 0 means min(4, NumCPU).
	Workers int `toml:"workers"`
	// DBPath is the sqlite file recording per-run results.
	DBPath string `toml:"db_path"`
	// Extensions lists the subtitle file extensions discovered in batch mode.
	Extensions []string `toml:"extensions"`
}

// Tools contains external binary overrides.
type Tools struct {
	FFprobe        string `toml:"ffprobe"`
	FFmpeg         string `toml:"ffmpeg"`
	Mkvextract     string `toml:"mkvextract"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subweave.
type Config struct {
	Paths       Paths       `toml:"paths"`
	Sync        Sync        `toml:"sync"`
	Merge       Merge       `toml:"merge"`
	Translation Translation `toml:"translation"`
	Batch       Batch       `toml:"batch"`
	Tools       Tools       `toml:"tools"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subweave/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("subweave.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// normalize expands and cleans every path field and trims string settings.
func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Batch.DBPath, err = expandPath(c.Batch.DBPath); err != nil {
		return err
	}

	c.Sync.Strategy = strings.ToLower(strings.TrimSpace(c.Sync.Strategy))
	c.Sync.LanguagePreference = strings.ToLower(strings.TrimSpace(c.Sync.LanguagePreference))
	c.Sync.Reference = strings.ToLower(strings.TrimSpace(c.Sync.Reference))
	c.Merge.TextOrder = strings.ToLower(strings.TrimSpace(c.Merge.TextOrder))
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	c.Translation.BaseURL = strings.TrimSpace(c.Translation.BaseURL)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	normalized := make([]string, 0, len(c.Batch.Extensions))
	for _, ext := range c.Batch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Batch.Extensions = normalized
	return nil
}

// EnsureDirectories creates the directories subweave writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Batch.DBPath); strings.TrimSpace(dir) != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create batch db directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
