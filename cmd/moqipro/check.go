package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rimetools/moqipro/release"
)

func newCheckUpdatesCmd(verbose *bool) *cobra.Command {
	var (
		downloadDir string
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "check-updates",
		Short: "Check upstream dictionary repositories for new releases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(*verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			client := release.NewClient(nil, log)
			local := release.LoadVersions(cfg.VersionsPath, log)

			updates := client.CheckUpdates(ctx, local)
			if len(updates) == 0 {
				fmt.Println("all dictionaries are up to date")
				return nil
			}

			for key, up := range updates {
				fmt.Printf("%s: new release %s\n", key, up.Tag)
				for variant, url := range up.Assets {
					fmt.Printf("  %s: %s\n", variant, url)
				}
			}

			if downloadDir != "" {
				if err := downloadAssets(cmd, client, updates, downloadDir); err != nil {
					return err
				}
			}

			if save {
				for key, up := range updates {
					local[key] = up.Tag
				}
				if err := release.SaveVersions(local, cfg.VersionsPath); err != nil {
					return err
				}
				fmt.Printf("recorded new versions in %s\n", cfg.VersionsPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&downloadDir, "download-dir", "", "download fresh assets into this directory")
	cmd.Flags().BoolVar(&save, "save", false, "record the new release tags")
	return cmd
}

// downloadAssets fetches every updated dictionary asset, a few at a
// time.
func downloadAssets(cmd *cobra.Command, client *release.Client, updates map[string]release.Update, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(3)

	for _, up := range updates {
		for variant, url := range up.Assets {
			url := url
			dest := filepath.Join(dir, variant+".dict.yaml")
			g.Go(func() error {
				return client.Download(ctx, url, dest)
			})
		}
	}
	return g.Wait()
}
