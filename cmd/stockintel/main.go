// Command stockintel generates a one-shot intelligence report for a symbol
// and prints it as JSON. Useful for scripting and smoke checks without
// running the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"stockintel/internal/app"
	"stockintel/internal/models"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: STOCKINTEL_CONFIG or stockintel.toml)")
	timeout := flag.Duration("timeout", 60*time.Second, "overall report deadline")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: stockintel [flags] SYMBOL")
		flag.PrintDefaults()
		os.Exit(2)
	}
	symbol := flag.Arg(0)

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	report, err := a.Intel.GetIntelligence(ctx, symbol)
	if err != nil {
		if models.IsNotFound(err) {
			fmt.Fprintf(os.Stderr, "No data found for %s\n", symbol)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Report failed: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode report: %v\n", err)
		os.Exit(1)
	}
}
