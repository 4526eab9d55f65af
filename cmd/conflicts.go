package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List active conflicts",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/conflicts"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Conflicts []model.ConflictRecord `json:"conflicts"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return err
		}

		if len(result.Conflicts) == 0 {
			fmt.Println("no active conflicts")
			return nil
		}

		for _, record := range result.Conflicts {
			fmt.Printf("%-16s detected %s\n", record.Pair,
				record.DetectedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("    source: %s\n", record.SourcePath)
			fmt.Printf("    target: %s\n", record.TargetPath)
			fmt.Printf("    resolve by editing either file, or: kas-filesync resolve %s --use source|target\n",
				record.Pair)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
}
