// Package cmd provides the bedrock command-line interface.
//
// Configuration sources, highest priority first:
//
//  1. Command-line flags (--port, --content-dir, ...)
//  2. Environment variables with the BEDROCK_ prefix
//     (BEDROCK_SERVER_PORT, BEDROCK_CONTENT_DIR, ...)
//  3. The config file: --config, then BEDROCK_CONFIG_FILE, then
//     .bedrock.yml in the working directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "bedrock",
	Short: "Block-based page server with live preview",
	Long: `Bedrock serves block-based page documents: pages are ordered lists
of typed blocks, block implementations load on demand, and connected
browsers receive rendered fragments over a websocket as soon as the
implementations settle.

Quick start:
  bedrock init                    Scaffold a content directory and config
  bedrock serve                   Start the preview server
  bedrock list                    List the available block types
  bedrock render home             Render a page to stdout`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .bedrock.yml, can also use BEDROCK_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	//nolint:errcheck // flag is registered on the line above
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig points viper at the config file and enables BEDROCK_*
// environment overrides. A missing config file is not an error; the
// defaults carry the day.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("BEDROCK_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bedrock")
	}

	viper.SetEnvPrefix("BEDROCK")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
