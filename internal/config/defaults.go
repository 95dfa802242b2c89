package config

const (
	defaultWatchDir        = "~/Downloads"
	defaultDataDir         = "~/.local/share/tidy"
	defaultLogDir          = "~/.local/share/tidy/logs"
	defaultSocketPath      = "~/.local/share/tidy/tidyd.sock"
	defaultFallback        = "Other"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultDebounceMs      = 2000
	defaultMoveRetries     = 3
	defaultRetryDelayMs    = 250
	defaultLockHoldSeconds = 300
	defaultSweepMinutes    = 30
)

var defaultIgnoreNames = []string{
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",
}

var defaultIgnoreExtensions = []string{
	"crdownload",
	"download",
	"opdownload",
	"part",
	"partial",
	"tmp",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir:   defaultWatchDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			SocketPath: defaultSocketPath,
		},
		Routes: Routes{
			Fallback: defaultFallback,
		},
		Ignore: Ignore{
			Names:      append([]string(nil), defaultIgnoreNames...),
			Extensions: append([]string(nil), defaultIgnoreExtensions...),
		},
		Watch: Watch{
			DebounceMs:      defaultDebounceMs,
			MoveRetries:     defaultMoveRetries,
			RetryDelayMs:    defaultRetryDelayMs,
			LockHoldSeconds: defaultLockHoldSeconds,
		},
		Maintenance: Maintenance{
			SweepIntervalMinutes: defaultSweepMinutes,
			SweepOnStartup:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
