// Package config wires application configuration for the eepy CLI.
package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eepy-explorer/eepy/pkg/appconfig"
)

var (
	cfgFile string

	// VaultOverride is the --vault flag value, taking precedence over
	// every other vault resolution source.
	VaultOverride string

	// Verbose raises the log level to Debug.
	Verbose bool
)

// InitConfig loads ~/.config/eepy/config.yaml plus EEPY_-prefixed
// environment variables into viper.
func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "eepy")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("EEPY")

	home, _ := os.UserHomeDir()
	viper.SetDefault("config_dir", filepath.Join(home, ".config", "eepy"))
	viper.SetDefault("vault", "")

	// A missing config file is normal; only an explicit --config that
	// cannot be read should be surfaced, and viper reports that on use.
	_ = viper.ReadInConfig()
}

// NewLogger returns the CLI's logger. Warnings and errors only, unless
// --verbose is set.
func NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

// Dir returns the application config directory.
func Dir() string {
	return viper.GetString("config_dir")
}

// ResolveVaultPath picks the notes vault directory: the --vault flag,
// then the configured vault, then the notes_config.json store's
// resolution chain.
func ResolveVaultPath() (string, error) {
	if VaultOverride != "" {
		return VaultOverride, nil
	}
	if v := viper.GetString("vault"); v != "" {
		return v, nil
	}

	store, err := appconfig.NewNotesStore(Dir())
	if err != nil {
		return "", err
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return store.ResolveVaultPath(home), nil
}

// AddGlobalFlags registers the persistent flags shared by every
// subcommand.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/eepy/config.yaml)")
	cmd.PersistentFlags().StringVarP(&VaultOverride, "vault", "V", "", "Override the notes vault path")
	cmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable debug logging")
}
