package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/Stebibastian/kas-filesync/internal/registry"
	"github.com/spf13/cobra"
)

// The pair commands edit the registry file directly, standing in for the
// native manager window. The daemon never writes this file; it picks up
// changes by watching it.
var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Manage sync pairs",
}

var pairListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered pairs",
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			return err
		}

		if len(doc.Pairs) == 0 {
			fmt.Println("no pairs registered")
			return nil
		}

		fmt.Printf("%-16s %-40s %s\n", "NAME", "SOURCE", "TARGET")
		for _, pair := range doc.Pairs {
			fmt.Printf("%-16s %-40s %s\n", pair.Name, pair.SourcePath, pair.TargetFolder)
		}

		return nil
	},
}

var pairAddCmd = &cobra.Command{
	Use:   "add [name] [source-file] [target-folder]",
	Short: "Register a new pair",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := filepath.Abs(args[1])
		if err != nil {
			return fmt.Errorf("invalid source path: %w", err)
		}

		target, err := filepath.Abs(args[2])
		if err != nil {
			return fmt.Errorf("invalid target path: %w", err)
		}

		pair := model.SyncPair{
			Name:         args[0],
			SourcePath:   source,
			TargetFolder: target,
		}

		if err := registry.Validate(pair); err != nil {
			return err
		}

		doc, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			return err
		}

		for _, existing := range doc.Pairs {
			if existing.Name == pair.Name {
				return fmt.Errorf("pair %q already exists", pair.Name)
			}
		}

		doc.Pairs = append(doc.Pairs, pair)
		if err := registry.Save(cfg.RegistryPath, doc); err != nil {
			return err
		}

		fmt.Printf("pair added: %s %s <-> %s\n", pair.Name, pair.SourcePath, pair.TargetPath())
		return nil
	},
}

var pairRemoveCmd = &cobra.Command{
	Use:   "remove [name]",
	Short: "Remove a pair from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			return err
		}

		kept := doc.Pairs[:0]
		found := false
		for _, pair := range doc.Pairs {
			if pair.Name == args[0] {
				found = true
				continue
			}
			kept = append(kept, pair)
		}

		if !found {
			return fmt.Errorf("pair %q not found", args[0])
		}

		doc.Pairs = kept
		if err := registry.Save(cfg.RegistryPath, doc); err != nil {
			return err
		}

		fmt.Printf("pair removed: %s\n", args[0])
		return nil
	},
}

func init() {
	pairCmd.AddCommand(pairListCmd)
	pairCmd.AddCommand(pairAddCmd)
	pairCmd.AddCommand(pairRemoveCmd)
	rootCmd.AddCommand(pairCmd)
}
