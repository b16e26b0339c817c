package config

const (
	defaultDataDir             = "~/.local/share/tapline"
	defaultLogDir              = "~/.local/share/tapline/logs"
	defaultSiteYear            = "2024-2025"
	defaultAction              = "arrival"
	defaultRemoteTimeout       = 15
	defaultMessagingSender     = "TAPLINE"
	defaultMessagingTimeout    = 10
	defaultFlushInterval       = 45
	defaultProbeInterval       = 10
	defaultRefreshRetries      = 3
	defaultRefreshRetryDelayMS = 1500
	defaultSubmitRetryDelayMS  = 1000
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Site: Site{
			Year:          defaultSiteYear,
			DefaultAction: defaultAction,
		},
		Remote: Remote{
			RequestTimeout: defaultRemoteTimeout,
		},
		Messaging: Messaging{
			Enabled:        true,
			SenderName:     defaultMessagingSender,
			RequestTimeout: defaultMessagingTimeout,
		},
		Sync: Sync{
			FlushInterval:       defaultFlushInterval,
			ProbeInterval:       defaultProbeInterval,
			RefreshRetries:      defaultRefreshRetries,
			RefreshRetryDelayMS: defaultRefreshRetryDelayMS,
			SubmitRetryDelayMS:  defaultSubmitRetryDelayMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
