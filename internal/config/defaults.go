package config

const (
	defaultDataDir   = "~/.local/share/greenhouse"
	defaultImagesDir = "~/.local/share/greenhouse/images"
	defaultLogDir    = "~/.local/share/greenhouse/logs"

	defaultGeneratorBaseURL = "https://api.studioleaf.dev/v1"
	defaultGeneratorModel   = "leaf-image-1"
	defaultGeneratorTimeout = 120

	defaultMaxConcurrent       = 1
	defaultItemDelaySeconds    = 10
	defaultPollIntervalSeconds = 5
	defaultErrorRetrySeconds   = 10
	defaultEmptyPollLimit      = 3
	defaultStuckTimeoutMinutes = 5
	defaultStuckSweepMinutes   = 1
	defaultMaintenanceEvery    = 10
	defaultRetentionHours      = 24
	defaultKeepRecent          = 50
	defaultMaxRetries          = 2

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ImagesDir: defaultImagesDir,
			LogDir:    defaultLogDir,
		},
		Generator: Generator{
			BaseURL:        defaultGeneratorBaseURL,
			Model:          defaultGeneratorModel,
			TimeoutSeconds: defaultGeneratorTimeout,
		},
		Scheduler: Scheduler{
			MaxConcurrent:       defaultMaxConcurrent,
			ItemDelaySeconds:    defaultItemDelaySeconds,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			ErrorRetrySeconds:   defaultErrorRetrySeconds,
			EmptyPollLimit:      defaultEmptyPollLimit,
			StuckTimeoutMinutes: defaultStuckTimeoutMinutes,
			StuckSweepMinutes:   defaultStuckSweepMinutes,
			MaintenanceEvery:    defaultMaintenanceEvery,
			RetentionHours:      defaultRetentionHours,
			KeepRecent:          defaultKeepRecent,
			MaxRetries:          defaultMaxRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
