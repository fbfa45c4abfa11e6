// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/civiceye/civiceye/overpass"
	"github.com/civiceye/civiceye/utils/textutils"
)

var cacheInvalidateAll bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent lookup cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache contents",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		db, cache, err := openCacheDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := cache.Stats()
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}

		fmt.Printf("Cached lookups:    %s\n", textutils.FormatInt(int64(stats.Lookups)))
		fmt.Printf("Cached records:    %s\n", textutils.FormatInt(int64(stats.Records)))
		fmt.Printf("Postal code areas: %s\n", textutils.FormatInt(int64(stats.Areas)))

		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate [<postal-code> <house-number>]",
	Short: "Drop memoized lookups",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		if !cacheInvalidateAll && len(args) != 2 {
			return fmt.Errorf("pass a postal code and house number, or --all")
		}

		db, cache, err := openCacheDB()
		if err != nil {
			return err
		}
		defer db.Close()

		if cacheInvalidateAll {
			if err := cache.InvalidateAll(); err != nil {
				return fmt.Errorf("invalidating cache: %w", err)
			}

			fmt.Println("✅ Cache emptied")

			return nil
		}

		req := overpass.Request{PostalCode: args[0], HouseNumber: args[1]}

		req.Normalize()
		if err := req.Validate(); err != nil {
			return err
		}

		if err := cache.Invalidate(req); err != nil {
			return fmt.Errorf("invalidating cache entry: %w", err)
		}

		fmt.Printf("✅ Dropped memoized result for %s %s\n", req.PostalCode, req.HouseNumber)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheInvalidateCmd.Flags().BoolVar(
		&cacheInvalidateAll,
		"all",
		false,
		"Drop every memoized lookup",
	)
}
