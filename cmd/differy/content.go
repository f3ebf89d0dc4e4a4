package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/differy/internal/walker"
	"github.com/yuya-takeyama/differy/pkg/archive"
	"github.com/yuya-takeyama/differy/pkg/manifest"
	"github.com/yuya-takeyama/differy/pkg/rewrite"
)

func newContentCmd() *cobra.Command {
	var (
		output      string
		configFile  string
		variantName string
		excludes    []string
	)

	cmd := &cobra.Command{
		Use:   "content <PATH> <REVISION>",
		Short: "Build only the full content archive of one variant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, revision := args[0], args[1]

			v, err := rewrite.ParseVariant(variantName)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, configFile)
			if err != nil {
				return err
			}
			rw, err := cfg.Rewriter()
			if err != nil {
				return fmt.Errorf("invalid rewrite configuration: %w", err)
			}

			if err := os.MkdirAll(output, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			b := archive.NewBuilder(output, rw, cfg.Excludes)
			res, err := b.BuildContent(cmd.Context(), root, revision, v)
			if err != nil {
				return fmt.Errorf("failed to build content archive: %w", err)
			}

			w, err := walker.NewWalker(root, cfg.Excludes)
			if err != nil {
				return err
			}
			files, err := w.Walk(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", root, err)
			}
			paths := make(manifest.Paths, 0, len(files))
			for _, f := range files {
				paths = append(paths, f.RelPath)
			}
			listing, err := b.WriteContentListing(revision, paths)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "write: %s\n", res.Path)
			fmt.Fprintf(cmd.OutOrStdout(), "write: %s\n", listing)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "Output directory")
	cmd.Flags().StringVar(&configFile, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&variantName, "variant", string(rewrite.VariantWeb), "Variant to build (raw, app, web)")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	return cmd
}
