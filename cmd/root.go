// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	userID      string
	endpoint    string
	accessToken string
	language    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "center-service",
	Short: "Center Service",
	Long:  `Center Service CLI for managing centers, memberships and invitation codes.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "http://localhost:8080", "HTTP server endpoint")
	rootCmd.PersistentFlags().StringVar(&userID, "user-id", "", "User ID for impersonation, only honoured when the server runs without JWT authentication")
	rootCmd.PersistentFlags().StringVar(&accessToken, "token", os.Getenv("CENTER_TOKEN"), "Bearer token, see the token command")
	rootCmd.PersistentFlags().StringVar(&language, "lang", "", "Preferred language for server messages, e.g. es")
}
