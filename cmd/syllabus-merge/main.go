// Package main is the entry point for the syllabus-merge service and CLI.
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/amaumene/syllabus-merge/internal/app"
	"github.com/amaumene/syllabus-merge/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the syllabus-merge CLI.
var rootCmd = &cobra.Command{
	Use:   "syllabus-merge",
	Short: "Prepend a title paragraph to a Word syllabus",
	Long: `syllabus-merge downloads a .docx syllabus, inserts a bold Cambria 11pt
title paragraph before its first paragraph, and returns the result.

Run "serve" to expose POST /merge-first-syllabus over HTTP, or "merge" to
process a single document from the command line.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./syllabus-merge.yaml or ~/.config/syllabus-merge/syllabus-merge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
}

// loadConfig resolves configuration for cmd, binding its flags over the
// environment and config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	v, err := config.New(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := bindFlags(v, cmd.Flags(), map[string]string{
		config.KeyLogLevel:         "log-level",
		config.KeyLogFormat:        "log-format",
		config.KeyHost:             "host",
		config.KeyPort:             "port",
		config.KeyFetchTimeout:     "fetch-timeout",
		config.KeyMaxDocumentBytes: "max-document-bytes",
	}); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigureLogging(cfg); err != nil {
		return nil, err
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.WithField("file", used).Debug("using config file")
	}
	return cfg, nil
}

// bindFlags binds each flag that cmd defines and the user set explicitly.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		flag := flags.Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return nil
}

func main() {
	_, _ = maxprocs.Set(maxprocs.Logger(log.Debugf))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
