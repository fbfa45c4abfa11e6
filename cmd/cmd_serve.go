// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civiceye/civiceye/lookup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the address lookup web server (local only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pipeline, closeFn, err := buildPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		fmt.Println("🌍 http://localhost:8080")

		return lookup.NewServer(pipeline).Run()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
