// Copyright 2026 The CivicEye Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/civiceye/civiceye/lookup"
	"github.com/civiceye/civiceye/utils/textutils"
)

var searchOptions = struct {
	PhotoPath  string
	JSONOutput bool
}{}

var searchCmd = &cobra.Command{
	Use:   "search <postal-code> <house-number>",
	Short: "Find the addresses matching a postal code and house number",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req := lookup.Request{PostalCode: args[0], HouseNumber: args[1]}

		if searchOptions.PhotoPath != "" {
			photo, err := os.ReadFile(searchOptions.PhotoPath)
			if err != nil {
				return fmt.Errorf("reading photo: %w", err)
			}

			req.Photo = photo
		}

		pipeline, closeFn, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		var bar *progressbar.ProgressBar

		if isatty.IsTerminal(os.Stderr.Fd()) && !searchOptions.JSONOutput {
			pipeline.OnThumbnail(func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetDescription("Fetching thumbnails"),
						progressbar.OptionSetWriter(os.Stderr),
						progressbar.OptionShowCount(),
						progressbar.OptionClearOnFinish(),
					)
				}

				_ = bar.Set(done)
			})
		}

		result, err := pipeline.Search(ctx, req)
		if err != nil {
			return err
		}

		if searchOptions.JSONOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")

			return encoder.Encode(result)
		}

		printResult(result)

		return nil
	},
}

func printResult(result *lookup.Result) {
	for _, warning := range result.Warnings {
		fmt.Printf("⚠️ %s\n", warning)
	}

	if len(result.Entries) == 0 {
		fmt.Println("No matching addresses found.")

		return
	}

	fmt.Printf("Found %s matching address(es)", textutils.FormatInt(int64(len(result.Entries))))

	if result.Ranked {
		fmt.Print(", ranked by similarity to the reference photo")
	}

	fmt.Println(":")
	fmt.Println()

	for i, entry := range result.Entries {
		fmt.Printf("%2d. %s\n", i+1, entry.Record.DisplayName)

		if entry.Score != nil {
			fmt.Printf("    similarity: %.3f\n", *entry.Score)
		}

		if entry.Thumbnail != nil {
			fmt.Printf("    thumbnail:  %s (%s bytes)\n",
				entry.Thumbnail.Provider, textutils.FormatInt(int64(len(entry.Thumbnail.Image))))
		} else {
			fmt.Println("    thumbnail:  unavailable")
		}

		fmt.Printf("    map:        %s\n", entry.MapURL)
	}

	if streets := lookup.DistinctStreets(result); len(streets) > 1 {
		fmt.Println()
		fmt.Printf("Matches on %s streets: %s\n",
			textutils.FormatInt(int64(len(streets))), strings.Join(streets, ", "))
	}

	if spread := matchSpread(result); spread > 0 {
		fmt.Println()
		fmt.Printf("Matches span %s meters.\n", textutils.FormatInt(int64(spread)))
	}
}

// matchSpread returns the largest pairwise distance between matches, in
// meters. Useful to spot a house number that exists in several towns of
// the same postal code area.
func matchSpread(result *lookup.Result) float64 {
	var spread float64

	for i := range result.Entries {
		for j := i + 1; j < len(result.Entries); j++ {
			a, b := result.Entries[i].Record.Point, result.Entries[j].Record.Point
			if d := a.HaversineDistance(&b); d > spread {
				spread = d
			}
		}
	}

	return spread
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(
		&searchOptions.PhotoPath,
		"photo",
		"",
		"Reference photo to rank matches by visual similarity",
	)
	searchCmd.Flags().BoolVar(
		&searchOptions.JSONOutput,
		"json",
		false,
		"Emit the raw result as JSON",
	)
}
