package cmd

import (
	"fmt"
	"os"

	"github.com/Stebibastian/kas-filesync/internal/merge"
	"github.com/Stebibastian/kas-filesync/internal/registry"
	"github.com/Stebibastian/kas-filesync/internal/util"
	"github.com/spf13/cobra"
)

var resolveUse string

// resolve rewrites a conflicted pair keeping one side of every marker block.
// The daemon observes the marker-free files and completes the resolution
// (base update, record removal) on its own.
var resolveCmd = &cobra.Command{
	Use:   "resolve [pair]",
	Short: "Resolve a conflicted pair in favor of one side",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if resolveUse != "source" && resolveUse != "target" {
			return fmt.Errorf("--use must be 'source' or 'target'")
		}

		doc, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			return err
		}

		for _, pair := range doc.Pairs {
			if pair.Name != args[0] {
				continue
			}

			for _, path := range []string{pair.SourcePath, pair.TargetPath()} {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}

				if !merge.HasMarkers(content) {
					continue
				}

				resolved := merge.ResolveWithSource(content)
				if resolveUse == "target" {
					resolved = merge.ResolveWithTarget(content)
				}

				if err := util.AtomicWrite(path, resolved); err != nil {
					return err
				}
			}

			fmt.Printf("resolved %s using %s\n", pair.Name, resolveUse)
			return nil
		}

		return fmt.Errorf("pair %q not found in registry", args[0])
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveUse, "use", "", "side to keep: source or target")
	_ = resolveCmd.MarkFlagRequired("use")
	rootCmd.AddCommand(resolveCmd)
}
