package cli

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/framecast/framecast/internal/config"

	"github.com/spf13/cobra"
)

func DefaultEnv() *cobra.Command {
	var baseConfigFile string
	var defaultEnvCmd = &cobra.Command{
		Use:   "defaultenv",
		Short: "Generate full environment var list with defaults",
		Long:  `Generate full Framecast environment var list with defaults`,
		Run: func(cmd *cobra.Command, args []string) {
			defaultEnv(baseConfigFile)
		},
	}
	defaultEnvCmd.Flags().StringVarP(&baseConfigFile, "base", "b", "", "path to the base config file to use")
	return defaultEnvCmd
}

func defaultEnv(baseFile string) {
	conf, meta, err := config.GetConfig(nil, baseFile)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	if err = conf.Validate(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	printSortedEnvVars(conf, meta.KnownEnvVars)
}

func printSortedEnvVars(conf config.Config, knownEnvVars map[string]config.VarInfo) {
	var envKeys []string
	for env := range knownEnvVars {
		envKeys = append(envKeys, env)
	}
	sort.Strings(envKeys)
	for _, env := range envKeys {
		fmt.Printf("%s=%s\n", env, valueByPath(reflect.ValueOf(conf), knownEnvVars[env].Path))
	}
}

// valueByPath resolves a dotted configuration key against the Config
// struct and formats the value in a way suitable for environment variables.
func valueByPath(v reflect.Value, path string) string {
	for _, part := range strings.Split(path, ".") {
		typ := v.Type()
		found := false
		for i := 0; i < typ.NumField(); i++ {
			if typ.Field(i).Tag.Get("mapstructure") == part {
				v = v.Field(i)
				found = true
				break
			}
		}
		if !found {
			return ""
		}
	}
	if v.Kind() == reflect.String {
		return strconv.Quote(v.String())
	}
	return fmt.Sprintf("%v", v.Interface())
}
