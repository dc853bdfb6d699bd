// Package main provides a standalone health probe for the API server.
// It is meant for container health checks and monitoring scripts.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/spf13/cobra"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// probeConfig holds command-line configuration
type probeConfig struct {
	URL        string
	Timeout    time.Duration
	Verbose    bool
	Format     string
	Expect     string
	RetryCount int
	RetryDelay time.Duration
}

// probeResponse is the part of the health response the probe reads
type probeResponse struct {
	Status  healthcheck.Status `json:"status"`
	Version string             `json:"version"`
	Checks  []struct {
		Name    string             `json:"name"`
		Status  healthcheck.Status `json:"status"`
		Message string             `json:"message"`
	} `json:"checks"`
}

func main() {
	os.Exit(newRootCmd().executeWithCode())
}

type rootCmd struct {
	*cobra.Command
	code int
}

func newRootCmd() *rootCmd {
	cfg := probeConfig{}
	root := &rootCmd{code: exitCodeSuccess}

	root.Command = &cobra.Command{
		Use:   "health-check",
		Short: "Probe the API server health endpoint",
		Long: `health-check requests the health endpoint and exits 0 when the
reported status is at least as good as --expect, 1 when it is worse and
2 when the server could not be reached.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.URL == "" {
				cfg.URL = defaultURL()
			}
			root.code = probe(cfg, cmd.OutOrStdout())
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfg.URL, "url", "", "Health endpoint URL (default $HEALTH_CHECK_URL or http://localhost:8080/health)")
	flags.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "Request timeout")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "List individual checks")
	flags.StringVar(&cfg.Format, "format", "text", "Output format: text or json")
	flags.StringVar(&cfg.Expect, "expect", string(healthcheck.StatusHealthy), "Worst acceptable status: healthy or degraded")
	flags.IntVar(&cfg.RetryCount, "retry", 0, "Number of retries when the request fails")
	flags.DurationVar(&cfg.RetryDelay, "retry-delay", time.Second, "Delay between retries")

	return root
}

func (r *rootCmd) executeWithCode() int {
	if err := r.Execute(); err != nil {
		return exitCodeError
	}
	return r.code
}

func defaultURL() string {
	if url := os.Getenv("HEALTH_CHECK_URL"); url != "" {
		return url
	}
	return "http://localhost:8080/health"
}

// probe performs the request with retries and reports the result
func probe(cfg probeConfig, out io.Writer) int {
	client := &http.Client{Timeout: cfg.Timeout}

	var lastErr error
	for attempt := 0; attempt <= cfg.RetryCount; attempt++ {
		if attempt > 0 {
			if cfg.Verbose {
				fmt.Fprintf(out, "Retrying in %v (attempt %d/%d)\n", cfg.RetryDelay, attempt, cfg.RetryCount)
			}
			time.Sleep(cfg.RetryDelay)
		}

		resp, err := client.Get(cfg.URL)
		if err != nil {
			lastErr = err
			continue
		}

		result, err := decode(resp)
		if err != nil {
			lastErr = err
			continue
		}
		return report(result, cfg, out)
	}

	fmt.Fprintf(out, "Health check failed after %d attempts: %v\n", cfg.RetryCount+1, lastErr)
	return exitCodeError
}

func decode(resp *http.Response) (*probeResponse, error) {
	defer resp.Body.Close()

	var result probeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if result.Status == "" {
		return nil, fmt.Errorf("response without status (status %d)", resp.StatusCode)
	}
	return &result, nil
}

func report(result *probeResponse, cfg probeConfig, out io.Writer) int {
	switch cfg.Format {
	case "json":
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(out, string(data))
	default:
		fmt.Fprintf(out, "Status: %s\n", result.Status)
		if result.Version != "" {
			fmt.Fprintf(out, "Version: %s\n", result.Version)
		}
		if cfg.Verbose {
			for _, check := range result.Checks {
				fmt.Fprintf(out, "  %s: %s", check.Name, check.Status)
				if check.Message != "" {
					fmt.Fprintf(out, " (%s)", check.Message)
				}
				fmt.Fprintln(out)
			}
		}
	}

	if rank(result.Status) > rank(healthcheck.Status(cfg.Expect)) {
		return exitCodeFailure
	}
	return exitCodeSuccess
}

// rank orders statuses from best to worst; anything unknown is worst
func rank(s healthcheck.Status) int {
	switch s {
	case healthcheck.StatusHealthy:
		return 0
	case healthcheck.StatusDegraded:
		return 1
	default:
		return 2
	}
}
