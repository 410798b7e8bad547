package cli

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var readAddr string

var readCmd = &cobra.Command{
	Use:   "read [stat]",
	Short: "Fetch statistics from a running instance",
	Long: `Read fetches the JSON endpoint of a running pulse instance. With no
argument it prints the whole document; with a stat name ("request_count",
"request_p99_units") it prints just that value.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRead,
}

func init() {
	readCmd.Flags().StringVar(&readAddr, "addr", "127.0.0.1:42024", "address of the running instance")
}

func runRead(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + readAddr + "/")
	if err != nil {
		return fmt.Errorf("fetching stats: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading stats response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
		return nil
	}

	value := gjson.GetBytes(body, args[0])
	if !value.Exists() {
		return fmt.Errorf("stat %q not found", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), value.String())
	return nil
}
