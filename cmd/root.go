/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the entry point for every subcommand.
var rootCmd = &cobra.Command{
	Use:   "judgecore",
	Short: "An online judge backend: job intake, sandboxed judging, and contest ranking",
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to the static problem/language configuration file")
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
