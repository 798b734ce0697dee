package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		addr     string
		kind     string
		duration string
		after    string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a demo task to a running taskengine server",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]string{
				"kind":     kind,
				"duration": duration,
				"after":    after,
			})
			if err != nil {
				return err
			}

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Post(addr+"/tasks", "application/json", bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("submit: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusAccepted {
				var errBody map[string]string
				_ = json.NewDecoder(resp.Body).Decode(&errBody)
				return fmt.Errorf("submit: server returned %s: %s", resp.Status, errBody["error"])
			}

			fmt.Fprintf(cmd.OutOrStdout(), "task accepted\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "taskengine server address")
	cmd.Flags().StringVar(&kind, "kind", "sleep", "demo task kind (sleep, compute, fail)")
	cmd.Flags().StringVar(&duration, "duration", "100ms", "task duration, as a Go duration string")
	cmd.Flags().StringVar(&after, "after", "", "delay before the task is submitted to the pool, if set")

	return cmd
}
