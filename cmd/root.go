package cmd

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/remote-engine-mock/internal/config"
	"github.com/zjrosen/remote-engine-mock/internal/log"
)

// localConfigPath is checked before the user config.
var localConfigPath = filepath.Join("."+config.AppName, "config.yaml")

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	cleanupFn func()
)

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "A mock remote media-engine client",
	Long: `A mock of a remote media-engine connection handle.

Handles go through the same open, transportOpen, connected and close
notifications as a real client, hand out a fake engine capability, and
report diagnostics for the host, this process, and tracked workers.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/"+config.AppName+"/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"enable debug logging (also "+log.EnvDebug+")")
}

func initConfig() {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .remote-engine-mock/config.yaml (current directory)
		// 2. ~/.config/remote-engine-mock/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", config.AppName))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine: everything has a default.
	_ = viper.ReadInConfig()
}

func setup(_ *cobra.Command, _ []string) error {
	if debugFlag || os.Getenv(log.EnvDebug) != "" {
		logPath := os.Getenv(log.EnvLogPath)
		if logPath == "" {
			cleanupFn = log.InitWriter(os.Stderr)
		} else {
			cleanup, err := log.Init(logPath)
			if err != nil {
				return errors.Wrap(err, "initializing logging")
			}
			cleanupFn = cleanup
		}
	}

	decoded, err := config.Decode(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = decoded
	log.Debug(log.CatCLI, "Config loaded", "file", viper.ConfigFileUsed(), "address", cfg.Address)
	return nil
}

// configPath is the file the current invocation reads, or where a new one
// would be written.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	if cfgFile != "" {
		return cfgFile
	}
	return localConfigPath
}

// Execute runs the root command
func Execute() error {
	defer func() {
		if cleanupFn != nil {
			cleanupFn()
			cleanupFn = nil
		}
	}()
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
