package config

const (
	defaultLogDir           = "~/.local/share/flashy/logs"
	defaultLsusbBinary      = "lsusb"
	defaultQDLBinary        = "qdl"
	defaultStorage          = "emmc"
	defaultPollInterval     = 1
	defaultEnumerateTimeout = 10
	defaultCancelGraceSecs  = 5
	defaultHistoryLogLimit  = 50
	defaultADBBinary        = "adb"
	defaultADBTimeout       = 10
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// qualcommVendorID is the USB vendor id assigned to Qualcomm; 05c6:9008 is the
// EDL (emergency download) product id.
const qualcommVendorID = "05c6"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Scanner: Scanner{
			LsusbBinary:      defaultLsusbBinary,
			PollInterval:     defaultPollInterval,
			EnumerateTimeout: defaultEnumerateTimeout,
			VendorIDs:        []string{qualcommVendorID},
		},
		Flasher: Flasher{
			QDLBinary:       defaultQDLBinary,
			Storage:         defaultStorage,
			CancelGraceSecs: defaultCancelGraceSecs,
			HistoryLogLimit: defaultHistoryLogLimit,
			DebugOutput:     true,
		},
		ADB: ADB{
			Enabled: true,
			Binary:  defaultADBBinary,
			Timeout: defaultADBTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
