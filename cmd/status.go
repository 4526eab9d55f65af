package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Stebibastian/kas-filesync/internal/model"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Pairs []model.PairSnapshot `json:"pairs"`
			Stats map[string]int64     `json:"stats"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		if len(result.Pairs) == 0 {
			fmt.Println("no pairs configured")
			return nil
		}

		fmt.Printf("%-16s %-10s %-30s %-8s %-9s %-8s %s\n",
			"PAIR", "STATE", "SOURCE", "SYNCED", "CONFLICTS", "FAILED", "LAST SYNC")

		for _, snap := range result.Pairs {
			lastSync := "-"
			if snap.LastSync != nil {
				lastSync = snap.LastSync.Format("2006-01-02 15:04:05")
			}

			uptime := time.Since(snap.StartedAt).Round(time.Second)
			fmt.Printf("%-16s %-10s %-30s %-8d %-9d %-8d %s\n",
				snap.Pair, snap.State, snap.Source, snap.Synced, snap.Conflicts, snap.Failed, lastSync)
			fmt.Printf("                 uptime: %s\n", uptime)
		}

		fmt.Printf("\ntotal syncs: %d (%d ok, %d failed, %d conflicts)\n",
			result.Stats["total"], result.Stats["success"],
			result.Stats["failed"], result.Stats["conflicts"])

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
