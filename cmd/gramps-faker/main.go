// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gramps-faker CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/gramps-faker/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "gramps-faker/0.1"
)

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the gramps-faker CLI.
var rootCmd = &cobra.Command{
	Use:   "gramps-faker",
	Short: "Generate plausible Gramps family trees and the images to go with them",
	Long: `gramps-faker invents genealogy test data for the Gramps desktop
application. The tree command generates a multi-generation family tree and
writes it as an importable .gramps XML file, attaching any local images it
finds. The faces and photos commands build those image sets: faces downloads
AI-generated portraits, photos downloads themed stock photography from
Pexels. inspect queries a staged tree database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gramps-faker.yaml or ~/.config/gramps-faker/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gramps-faker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gramps-faker"))
		}
	}

	viper.SetEnvPrefix("GRAMPS_FAKER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
