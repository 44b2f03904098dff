package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-edge-auth/version"
)

func commandVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf(`Version: %s
Build Date: %s
Built with: %s %s/%s
`,
				version.Version, version.BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
