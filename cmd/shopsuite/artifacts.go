package main

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/testforge/shopsuite/internal/config"
	"github.com/testforge/shopsuite/internal/storage"
)

func newArtifactsCmd() *cobra.Command {
	var expiry time.Duration
	cmd := &cobra.Command{
		Use:   "artifacts RUN_ID",
		Short: "List the failure screenshots of a run",
		Long: `Lists the failure screenshots stored for a run. When uploads are enabled
the bucket is listed and every entry gets a presigned download link.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("expiry") {
				cfg.Artifacts.LinkExpiry = expiry
			}
			lister, err := artifactLister(cfg)
			if err != nil {
				return err
			}
			prefix := path.Join(cfg.Artifacts.ScreenshotPath, args[0])
			return printArtifacts(cmd.Context(), cmd.OutOrStdout(), lister, prefix, cfg.Artifacts.LinkExpiry)
		},
	}
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "lifetime of presigned links (overrides ARTIFACTS_LINK_EXPIRY)")
	return cmd
}

// artifactLister picks the bucket when uploads are enabled and the local
// artifacts directory otherwise
func artifactLister(cfg *config.Config) (storage.Lister, error) {
	if !cfg.Artifacts.Upload {
		return storage.NewLocalStore(cfg.Artifacts.Dir), nil
	}
	remote, err := storage.NewMinIOStore(storage.MinIOConfigFrom(cfg.Artifacts))
	if err != nil {
		return nil, fmt.Errorf("connecting to artifact storage: %w", err)
	}
	return remote, nil
}

// printArtifacts writes one key per line, followed by a download link when
// lister can sign them
func printArtifacts(ctx context.Context, w io.Writer, lister storage.Lister, prefix string, expiry time.Duration) error {
	keys, err := lister.List(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		yellow.Fprintf(w, "No artifacts under %s\n", prefix)
		return nil
	}

	linker, canLink := lister.(storage.Linker)
	for _, key := range keys {
		fmt.Fprintf(w, "%s\n", key)
		if !canLink || expiry <= 0 {
			continue
		}
		link, err := linker.PresignedURL(ctx, key, expiry)
		if err != nil {
			return fmt.Errorf("signing %s: %w", key, err)
		}
		dim.Fprintf(w, "    %s\n", link)
	}
	return nil
}
