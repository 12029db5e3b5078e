package config

const (
	defaultWorkDir            = "~/.local/share/subweave/work"
	defaultOutputDir          = "."
	defaultLogDir             = "~/.local/share/subweave/logs"
	defaultBatchDBPath        = "~/.local/share/subweave/runs.db"
	defaultSyncStrategy       = "auto"
	defaultLanguagePreference = "auto"
	defaultMatchThreshold     = 0.7
	defaultTextOrder          = "first"
	defaultTranslationTimeout = 15
	defaultToolTimeoutSeconds = 120
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Sync: Sync{
			Strategy:           defaultSyncStrategy,
			LanguagePreference: defaultLanguagePreference,
			MatchThreshold:     defaultMatchThreshold,
		},
		Merge: Merge{
			TextOrder:  defaultTextOrder,
			AntiJitter: true,
		},
		Translation: Translation{
			TimeoutSeconds: defaultTranslationTimeout,
		},
		Batch: Batch{
			DBPath:     defaultBatchDBPath,
			Extensions: []string{".srt"},
		},
		Tools: Tools{
			FFprobe:        "ffprobe",
			FFmpeg:         "ffmpeg",
			Mkvextract:     "mkvextract",
			TimeoutSeconds: defaultToolTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
