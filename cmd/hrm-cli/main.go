// HRM CLI — инструмент командной строки для работы с work requests
// через HTTP API.
//
// Использование:
//
//	hrm [--api-url URL] [--json] [--correlation-id ID] <command> <subcommand> [flags]
//
// Команды:
//
//	workrequest  Создание и просмотр work requests
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/hrm/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool
	var correlationID string

	rootCmd := &cobra.Command{
		Use:           "hrm",
		Short:         "HRM CLI — work request automation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("HRM_API_URL", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&correlationID, "correlation-id", "", "X-Correlation-Id for requests (generated by the API if empty)")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL).WithCorrelationID(correlationID) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewWorkRequestCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
