package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/rimetools/moqipro"
)

// manifest describes a batch processing run: a list of input
// dictionaries and the output names they map to inside output_dir.
type manifest struct {
	OutputDir string        `yaml:"output_dir"`
	Jobs      []moqipro.Job `yaml:"jobs"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return nil, errors.New("manifest lists no jobs")
	}
	if m.OutputDir == "" {
		m.OutputDir = "."
	}
	return &m, nil
}

func newProcessCmd(verbose *bool) *cobra.Command {
	var (
		auxURL       string
		manifestPath string
		noOverlay    bool
	)

	cmd := &cobra.Command{
		Use:   "process [input output]",
		Short: "Annotate a RIME dictionary with pinyin and moqi auxiliary codes",
		Long: `Streams a dict.yaml file through the annotation pipeline: the header
name gains a .pro suffix, the version becomes today's date, and every
data row's annotation column is rebuilt as tone-marked pinyin plus the
moqi auxiliary code per character.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath == "" && len(args) != 2 {
				return errors.New("need <input> and <output> arguments (or --manifest)")
			}

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
			client := &http.Client{Timeout: cfg.HTTPTimeout}

			aux, overlay, err := fetchData(ctx, client, cfg, auxURL, noOverlay, log)
			if err != nil {
				return err
			}

			opts := []moqipro.Option{moqipro.WithLogger(log)}
			if overlay != nil {
				opts = append(opts, moqipro.WithOverlay(overlay))
			}
			tr := moqipro.NewTransformer(moqipro.New(aux, opts...), log)

			if manifestPath != "" {
				m, err := loadManifest(manifestPath)
				if err != nil {
					return err
				}
				return tr.ProcessAll(ctx, m.Jobs, m.OutputDir)
			}
			return tr.ProcessFile(ctx, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&auxURL, "aux-url", "", "auxiliary-code table URL (default: RIME-LMDG)")
	cmd.Flags().StringVar(&manifestPath, "manifest", "", "YAML manifest of batch jobs")
	cmd.Flags().BoolVar(&noOverlay, "no-overlay", false, "skip the pronunciation-correction overlay")
	return cmd
}

// fetchData retrieves the auxiliary-code map and warms the correction
// overlay in parallel. The aux table is required; an overlay failure
// only costs correction quality and is logged, not returned.
func fetchData(ctx context.Context, client *http.Client, cfg config, auxURL string, noOverlay bool, log *zap.Logger) (moqipro.AuxMap, *moqipro.Overlay, error) {
	if auxURL == "" {
		auxURL = cfg.AuxURL
	}

	var (
		aux     moqipro.AuxMap
		overlay *moqipro.Overlay
	)
	if !noOverlay {
		overlay = moqipro.NewOverlay(client, cfg.SingleDictURL, cfg.PhraseDictURL, log)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		aux, err = moqipro.FetchAuxMap(gctx, client, auxURL, log)
		if err != nil {
			return fmt.Errorf("auxiliary-code map: %w", err)
		}
		return nil
	})
	if overlay != nil {
		g.Go(func() error {
			if err := overlay.Load(gctx); err != nil {
				log.Warn("continuing without pronunciation corrections", zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return aux, overlay, nil
}
