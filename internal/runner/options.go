package runner

import (
	"os"
	"path/filepath"

	"github.com/logrusorgru/aurora/v4"
	"github.com/projectdiscovery/goflags"
	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	envutil "github.com/projectdiscovery/utils/env"
	fileutil "github.com/projectdiscovery/utils/file"
	updateutils "github.com/projectdiscovery/utils/update"
	"github.com/tangre1/OpSTEM-Scheduler/pkg/version"
)

var au = aurora.New(aurora.WithColors(true))

var (
	// retrieve home directory or fail
	HomeDir = func() string {
		home, err := os.UserHomeDir()
		if err != nil {
			gologger.Fatal().Msgf("Failed to get user home directory: %s", err)
		}
		return home
	}()

	DefaultConfigLocation = filepath.Join(HomeDir, ".config/opstem-scheduler/config.yaml")
)

var (
	BackendCmdEnv = envutil.GetEnvOrDefault("OPSTEM_BACKEND_CMD", "")
	BackendDirEnv = envutil.GetEnvOrDefault("OPSTEM_BACKEND_DIR", "")
	ManifestEnv   = envutil.GetEnvOrDefault("OPSTEM_MANIFEST", "")
	StateFileEnv  = envutil.GetEnvOrDefault("OPSTEM_STATE_FILE", "")
)

// Options contains the configuration options for the launcher
type Options struct {
	ConfigFile string
	Manifest   string

	BackendCmd       string
	BackendArgs      goflags.StringSlice
	BackendDir       string
	BackendEnv       goflags.StringSlice
	ShutdownTimeout  int
	StateFile        string
	KeepStaleBackend bool

	ShowBackend        bool
	Verbose            bool
	Silent             bool
	Version            bool
	NoColor            bool
	DisableUpdateCheck bool
}

// ParseOptions parses the command line flags provided by a user
func ParseOptions() *Options {
	options := &Options{}
	flagSet := goflags.NewFlagSet()

	flagSet.SetDescription(`opstem-scheduler is the desktop launcher for the OpSTEM Scheduler: it starts the scheduler backend service with its diagnostics attached to the launcher console, then runs the application shell`)

	flagSet.CreateGroup("config", "Config",
		flagSet.StringVar(&options.ConfigFile, "config", DefaultConfigLocation, "cli flag configuration file"),
		flagSet.StringVarP(&options.Manifest, "manifest", "m", ManifestEnv, "path to the application manifest (opstem.json)"),
	)

	flagSet.CreateGroup("backend", "Backend",
		flagSet.StringVarP(&options.BackendCmd, "backend-cmd", "bc", BackendCmdEnv, "backend executable to launch (overrides manifest)"),
		flagSet.StringSliceVarP(&options.BackendArgs, "backend-args", "ba", nil, "backend arguments (comma separated)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.StringVarP(&options.BackendDir, "backend-dir", "bd", BackendDirEnv, "backend working directory"),
		flagSet.StringSliceVarP(&options.BackendEnv, "backend-env", "be", nil, "extra KEY=VALUE environment entries for the backend (comma separated)", goflags.CommaSeparatedStringSliceOptions),
		flagSet.IntVarP(&options.ShutdownTimeout, "shutdown-timeout", "st", 10, "seconds to wait for the backend to exit before killing it"),
		flagSet.StringVarP(&options.StateFile, "state-file", "sf", StateFileEnv, "custom location for the launch state file"),
		flagSet.BoolVarP(&options.KeepStaleBackend, "keep-stale-backend", "ksb", false, "do not terminate a backend left over from a previous run"),
	)

	flagSet.CreateGroup("debug", "Debug",
		flagSet.BoolVarP(&options.ShowBackend, "show-backend", "sb", false, "show the resolved backend command then exit"),
		flagSet.BoolVar(&options.Version, "version", false, "show version of the project"),
		flagSet.CallbackVarP(GetUpdateCallback(), "self-update", "up", "update opstem-scheduler to latest version"),
		flagSet.BoolVarP(&options.Verbose, "verbose", "v", false, "show verbose output"),
		flagSet.BoolVar(&options.Silent, "silent", false, "show only errors in output"),
		flagSet.BoolVarP(&options.NoColor, "no-color", "nc", false, "disable output content coloring (ANSI escape codes)"),
		flagSet.BoolVarP(&options.DisableUpdateCheck, "disable-update-check", "duc", false, "disable automatic update check"),
	)

	if err := flagSet.Parse(); err != nil {
		gologger.Fatal().Msgf("%s\n", err)
	}

	options.configureOutput()

	showBanner()

	if options.Version {
		gologger.Info().Msgf("Current Version: %s\n", version.GetVersion())
		os.Exit(0)
	}

	if !options.DisableUpdateCheck {
		latestVersion, err := updateutils.GetToolVersionCallback("opstem-scheduler", version.GetVersion())()
		if err != nil {
			if options.Verbose {
				gologger.Error().Msgf("opstem-scheduler version check failed: %v", err.Error())
			}
		} else {
			gologger.Info().Msgf("Current opstem-scheduler version %v %v", version.GetVersion(), updateutils.GetVersionDescription(version.GetVersion(), latestVersion))
		}
	}

	if options.ConfigFile != DefaultConfigLocation {
		if err := options.loadConfigFrom(options.ConfigFile); err != nil {
			gologger.Fatal().Msgf("Could not load config file %s: %s\n", options.ConfigFile, err)
		}
	}

	return options
}

// configureOutput configures the output on the screen
func (options *Options) configureOutput() {
	// If the user desires verbose output, show verbose output
	if options.Verbose {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	}
	if options.NoColor {
		gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
		au = aurora.New(aurora.WithColors(false))
	}
	if options.Silent {
		gologger.DefaultLogger.SetMaxLevel(levels.LevelSilent)
	}
}

func (options *Options) loadConfigFrom(location string) error {
	data, err := os.ReadFile(location)
	if err != nil {
		return err
	}
	return fileutil.Unmarshal(fileutil.YAML, data, options)
}
