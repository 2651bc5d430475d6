package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/construct/bootstrap"
	"github.com/artpar/construct/core/storage"
)

var (
	buildsRuntime string
	buildsLimit   int
	buildsOffset  int
)

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "Inspect the build history",
	Long: `Inspect builds recorded by compile and the HTTP API.

Build history requires storage to be enabled (storage.enabled in the config
file or CONSTRUCT_STORAGE_ENABLED=true).`,
}

var buildsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored builds, newest first",
	RunE:  runBuildsList,
}

var buildsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a stored build and its artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuildsShow,
}

func init() {
	rootCmd.AddCommand(buildsCmd)
	buildsCmd.AddCommand(buildsListCmd)
	buildsCmd.AddCommand(buildsShowCmd)

	buildsListCmd.Flags().StringVar(&buildsRuntime, "runtime", "", "filter by runtime name")
	buildsListCmd.Flags().IntVar(&buildsLimit, "limit", storage.DefaultListLimit, "maximum number of builds")
	buildsListCmd.Flags().IntVar(&buildsOffset, "offset", 0, "number of builds to skip")
}

func openHistory(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Storage.Enabled {
		return nil, errHistoryDisabled
	}
	return newApp(cmd, cfg)
}

var errHistoryDisabled = errors.New("build history is disabled; set storage.enabled or CONSTRUCT_STORAGE_ENABLED=true")

func runBuildsList(cmd *cobra.Command, args []string) error {
	a, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	list, total, err := a.Builds.List(cmd.Context(), storage.ListOptions{
		Limit:   buildsLimit,
		Offset:  buildsOffset,
		Runtime: buildsRuntime,
	})
	if err != nil {
		return fmt.Errorf("failed to list builds: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.Config.Output.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"builds": list, "total": total})
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No builds found.")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Record a build with: construct compile <file>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRUNTIME\tMODULES\tFINGERPRINT\tSOURCE\tCREATED")
	fmt.Fprintln(w, "--\t-------\t-------\t-----------\t------\t-------")
	for _, b := range list {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			b.ID, b.Runtime, b.ModuleCount, shortFingerprint(b.Fingerprint), b.Source,
			b.CreatedAt.Local().Format(time.DateTime))
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d of %d builds\n", len(list), total)
	return nil
}

func runBuildsShow(cmd *cobra.Command, args []string) error {
	a, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer a.Shutdown()

	b, err := a.Builds.Get(cmd.Context(), args[0])
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("build not found: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get build: %w", err)
	}

	out := cmd.OutOrStdout()
	if a.Config.Output.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"build": b, "bundle": json.RawMessage(b.Bundle)})
	}

	fmt.Fprintf(out, "ID:          %s\n", b.ID)
	fmt.Fprintf(out, "Runtime:     %s\n", b.Runtime)
	fmt.Fprintf(out, "Source:      %s\n", b.Source)
	fmt.Fprintf(out, "Modules:     %d\n", b.ModuleCount)
	fmt.Fprintf(out, "Fingerprint: %s\n", b.Fingerprint)
	fmt.Fprintf(out, "Created:     %s\n", b.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintln(out)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, b.Bundle, "", "  "); err != nil {
		return fmt.Errorf("decode bundle: %w", err)
	}
	pretty.WriteByte('\n')
	_, err = pretty.WriteTo(out)
	return err
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
