package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/embernet/emberd/domain/chainparams"
	"github.com/embernet/emberd/infrastructure/logger"
	"github.com/embernet/emberd/util"
	"github.com/embernet/emberd/version"
)

const (
	defaultConfigFilename = "emberd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "emberd.log"
	defaultErrLogFilename = "emberd_err.log"
	defaultMinerKeyname   = "miner.key"
)

var (
	// DefaultHomeDir is the default home directory for emberd.
	DefaultHomeDir = util.AppDataDir("emberd", false)

	defaultConfigFile   = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultMinerKeyFile = filepath.Join(DefaultHomeDir, defaultMinerKeyname)
)

// Flags defines the configuration options for emberd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion   bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile    string `short:"C" long:"configfile" description:"Path to configuration file"`
	HomeDir       string `short:"b" long:"homedir" description:"Directory to store data"`
	LogDir        string `long:"logdir" description:"Directory to log output"`
	LogLevel      string `short:"d" long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	MinerKeyFile  string `long:"minerkey" description:"File containing the hex-encoded miner private key"`
	Simnet        bool   `long:"simnet" description:"Use the simulation test network"`
	MineWhenEmpty bool   `long:"minewhenempty" description:"Keep producing blocks when the staged pool is empty"`
	Profile       string `long:"profile" description:"Enable HTTP profiling on given port -- NOTE port must be between 1024 and 65536"`
}

// Config defines the configuration options for emberd.
type Config struct {
	*Flags

	// NetParams are the chain parameters of the active network.
	NetParams *chainparams.Params
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile:   defaultConfigFile,
		HomeDir:      DefaultHomeDir,
		LogLevel:     defaultLogLevel,
		MinerKeyFile: defaultMinerKeyFile,
	}
}

// DataDir returns the directory chain and state databases live in.
func (cfg *Config) DataDir() string {
	return filepath.Join(cfg.HomeDir, defaultDataDirname, cfg.NetParams.Name)
}

// LogFiles returns the paths of the log file and the error log file.
func (cfg *Config) LogFiles() (logFile, errLogFile string) {
	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfg.HomeDir, defaultLogDirname, cfg.NetParams.Name)
	}
	return filepath.Join(logDir, defaultLogFilename), filepath.Join(logDir, defaultErrLogFilename)
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//	1) Start with a default config with sane settings
//	2) Pre-parse the command line to check for an alternative config file
//	3) Load configuration file overwriting defaults with any specified options
//	4) Parse CLI options and overwrite/add any specified options
func LoadConfig() (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file was specified.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if ok := errors.As(err, &flagsErr); ok && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
		return nil, errors.Wrap(err, "error parsing command line arguments")
	}

	appName := filepath.Base(os.Args[0])
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(cfgFlags, flags.Default)
	if fileExists(preCfg.ConfigFile) {
		err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing config file %s", preCfg.ConfigFile)
		}
	} else if preCfg.ConfigFile != defaultConfigFile {
		return nil, errors.Errorf("config file %s does not exist", preCfg.ConfigFile)
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.Parse()
	if err != nil {
		return nil, errors.Wrap(err, "error parsing command line arguments")
	}

	cfg := &Config{
		Flags:     cfgFlags,
		NetParams: &chainparams.MainnetParams,
	}
	if cfg.Simnet {
		cfg.NetParams = &chainparams.SimnetParams
	}

	if _, ok := logger.LevelFromString(cfg.LogLevel); !ok {
		return nil, errors.Errorf("the log level %s doesn't exist", cfg.LogLevel)
	}

	if cfg.Profile != "" {
		profilePort, err := strconv.Atoi(cfg.Profile)
		if err != nil || profilePort < 1024 || profilePort > 65535 {
			return nil, errors.New("the profile port must be between 1024 and 65535")
		}
	}
	return cfg, nil
}

// fileExists reports whether the named file or directory exists.
func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}
