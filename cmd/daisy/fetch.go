package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/daisyflowers/budtender/internal/cli"
)

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch the full menu once and write the snapshot file",
		Long: `Pages through the menu API until the catalog is exhausted and
writes the result to the snapshot file. Handy for inspecting what the
server would be working with.`,
		RunE: runFetch,
	}
}

func runFetch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	cache, err := buildCache(store)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	snapshot := cache.Refresh(ctx, func(page, pageCount, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(pageCount,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription(
					fmt.Sprintf("[cyan][bold]Fetching %d products...[reset]", total)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		if err := bar.Add(1); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	})

	if len(snapshot.Products) == 0 {
		return fmt.Errorf("no products fetched, check catalog.url and token")
	}

	artifact := viper.GetString("catalog.snapshot_path")
	if artifact == "" {
		artifact = "products.json"
	}

	fmt.Println(cli.TitleStyle.Render("Fetch complete"))
	fmt.Printf("  Products: %d\n", len(snapshot.Products))
	fmt.Printf("  Snapshot: %s\n", artifact)
	return nil
}
