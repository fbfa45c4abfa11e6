// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/civiceye/civiceye/keystore"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the stored Google Static Maps API key",
}

var apikeySetCmd = &cobra.Command{
	Use:   "set <key>",
	Short: "Store the API key in the data directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		key := strings.TrimSpace(args[0])
		if key == "" {
			return fmt.Errorf("key must not be empty")
		}

		if err := keystore.NewFileStore(options.DataPath).Write(key); err != nil {
			return fmt.Errorf("storing key: %w", err)
		}

		fmt.Println("✅ API key stored")

		return nil
	},
}

var apikeyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show whether an API key is stored",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		key, err := keystore.NewFileStore(options.DataPath).Read()
		if err != nil {
			return fmt.Errorf("reading key: %w", err)
		}

		if key == "" {
			fmt.Println("No API key stored. Thumbnails will use the keyless fallback provider.")

			return nil
		}

		fmt.Printf("API key stored (%d characters, ends in %q)\n", len(key), tail(key, 4))

		return nil
	},
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[len(s)-n:]
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeySetCmd)
	apikeyCmd.AddCommand(apikeyShowCmd)
}
