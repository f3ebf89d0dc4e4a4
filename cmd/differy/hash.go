package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yuya-takeyama/differy/internal/worker"
	"github.com/yuya-takeyama/differy/pkg/diff"
	"github.com/yuya-takeyama/differy/pkg/manifest"
)

func newHashCmd() *cobra.Command {
	var (
		output      string
		excludes    []string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "hash <PATH>",
		Short: "Write the checksum list of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Snapshot(cmd.Context(), args[0], manifest.SnapshotOptions{
				Excludes:    excludes,
				Concurrency: concurrency,
			})
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", args[0], err)
			}
			return writeOutput(cmd, output, m.Write)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	cmd.Flags().IntVar(&concurrency, "concurrency", worker.DefaultConcurrency, "Number of files hashed concurrently")
	return cmd
}

func newDiffCmd() *cobra.Command {
	var (
		output   string
		jsonFlag bool
	)

	cmd := &cobra.Command{
		Use:   "diff <OLD> <NEW>",
		Short: "Diff two checksum lists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := readManifest(args[0])
			if err != nil {
				return err
			}
			current, err := readManifest(args[1])
			if err != nil {
				return err
			}

			d := diff.Compute(old, current)
			if jsonFlag {
				return writeOutput(cmd, output, func(w io.Writer) error {
					data, err := d.MarshalIndent()
					if err != nil {
						return err
					}
					_, err = w.Write(append(data, '\n'))
					return err
				})
			}
			return writeOutput(cmd, output, d.WriteText)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (stdout if empty)")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Write the diff as JSON")
	return cmd
}

func readManifest(path string) (manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}
	return manifest.Parse(string(data)), nil
}

func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
