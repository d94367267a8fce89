package main

import (
	"github.com/framecast/framecast/internal/app"
	"github.com/framecast/framecast/internal/cli"
)

func main() {
	cmd := app.Framecast()
	cmd.AddCommand(cli.Version())
	cmd.AddCommand(cli.CheckConfig())
	cmd.AddCommand(cli.DefaultConfigCommand())
	cmd.AddCommand(cli.DefaultEnv())
	cmd.AddCommand(cli.Connect())
	_ = cmd.Execute()
}
