package cli

import (
	"fmt"
	"runtime"

	"github.com/framecast/framecast/internal/build"

	"github.com/spf13/cobra"
)

func Version() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Framecast version information",
		Long:  `Print the version information of Framecast`,
		Run: func(cmd *cobra.Command, args []string) {
			version()
		},
	}
}

func version() {
	fmt.Printf("Framecast v%s (Go version: %s)\n", build.Version, runtime.Version())
}
