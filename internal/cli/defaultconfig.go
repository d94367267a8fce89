package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/framecast/framecast/internal/config"
	"github.com/framecast/framecast/internal/tools"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func DefaultConfigCommand() *cobra.Command {
	var defaultConfigFile string
	var defaultConfigCmd = &cobra.Command{
		Use:   "defaultconfig",
		Short: "Generate full configuration file with defaults",
		Long:  `Generate full Framecast configuration file with defaults`,
		Run: func(cmd *cobra.Command, args []string) {
			DefaultConfig(defaultConfigFile)
		},
	}
	defaultConfigCmd.Flags().StringVarP(&defaultConfigFile, "config", "c", "config.json", "path to default config file to generate")
	return defaultConfigCmd
}

func DefaultConfig(configFile string) {
	if tools.FileExists(configFile) {
		fmt.Printf("error: target file already exists\n")
		os.Exit(1)
	}
	conf, _, _ := config.GetConfig(nil, "")
	if err := conf.Validate(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	var b []byte
	var err error

	ext := filepath.Ext(configFile)
	if len(ext) > 1 {
		ext = ext[1:]
	}

	supportedExtensions := []string{"json", "toml", "yaml", "yml"}

	switch ext {
	case "json":
		b, err = json.MarshalIndent(conf, "", "  ")
	case "toml":
		b, err = toml.Marshal(conf)
	case "yaml", "yml":
		b, err = yaml.Marshal(conf)
	default:
		err = errors.New("output config file must have one of supported extensions: " + strings.Join(supportedExtensions, ", "))
	}

	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	err = os.WriteFile(configFile, b, 0644)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}
