package app

import (
	"github.com/framecast/framecast/internal/config"

	"github.com/spf13/cobra"
)

func Framecast() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "",
		Short: "Framecast",
		Long:  "Framecast - real-time message relay server speaking a compact binary frame protocol",
		Run: func(cmd *cobra.Command, args []string) {
			Run(cmd, configFile)
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "config.json", "path to config file")
	config.DefineFlags(cmd)
	return cmd
}
