package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "edge-authd",
		Short: "Edge authentication gateway for CDN viewer requests",
	}
	rootCmd.AddCommand(commandServe())
	rootCmd.AddCommand(commandHealthcheck())
	rootCmd.AddCommand(commandVersion())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
