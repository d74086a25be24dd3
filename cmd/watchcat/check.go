package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/benaskins/watchcat/internal/target"
	"github.com/spf13/cobra"
)

type checkResult struct {
	Path     string `json:"path"`
	Resolved string `json:"resolved,omitempty"`
	Type     string `json:"type,omitempty"`
	Valid    bool   `json:"valid"`
	Error    string `json:"error,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check path...",
	Short: "Validate watch targets",
	Long:  "Resolve paths exactly as the watcher would and report which of them can be watched. Fails only when none can.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().Bool("json", false, "print results as JSON")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")

	results, valid := checkPaths(args)

	if jsonOut {
		if err := printJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(out, "OK    %s (%s)\n", r.Resolved, r.Type)
			} else {
				fmt.Fprintf(errOut, "FAIL  %s\n      %v\n", r.Path, r.Error)
			}
		}
		if len(results) > 1 {
			fmt.Fprintf(out, "\n%d/%d paths valid\n", valid, len(results))
		}
	}

	if valid == 0 {
		return target.ErrNoTargets
	}
	return nil
}

func checkPaths(paths []string) ([]checkResult, int) {
	results := make([]checkResult, 0, len(paths))
	valid := 0
	for _, p := range paths {
		t, err := target.Resolve(p)
		if err != nil {
			msg := err.Error()
			var invalid *target.InvalidError
			if errors.As(err, &invalid) && invalid.Err != nil {
				msg = invalid.Err.Error()
			}
			results = append(results, checkResult{Path: p, Error: msg})
			continue
		}

		kind := "file"
		if t.Dir {
			kind = "directory"
		}
		results = append(results, checkResult{Path: p, Resolved: t.Path, Type: kind, Valid: true})
		valid++
	}
	return results, valid
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
