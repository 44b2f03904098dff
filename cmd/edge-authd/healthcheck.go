package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

func commandHealthcheck() *cobra.Command {
	healthcheckCmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Check a running gateway's admin listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			return healthcheck(cmd)
		},
	}

	healthcheckCmd.Flags().String("hostname", "127.0.0.1:8081", "Host and port of the admin listener")
	healthcheckCmd.Flags().String("path", "/healthz", "URL path to the health endpoint")
	healthcheckCmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")

	return healthcheckCmd
}

func healthcheck(cmd *cobra.Command) error {
	hostname, _ := cmd.Flags().GetString("hostname")
	path, _ := cmd.Flags().GetString("path")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	uri := url.URL{Scheme: "http", Host: hostname, Path: path}
	client := http.Client{Timeout: timeout}

	response, err := client.Get(uri.String())
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer response.Body.Close()

	body, _ := io.ReadAll(response.Body)
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d: %s", response.StatusCode, body)
	}

	fmt.Printf("healthy: %s", body)
	return nil
}
