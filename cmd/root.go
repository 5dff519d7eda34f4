// Package cmd holds the command line interface.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xiaobei/singbox-manager/adapter/remote"
	"github.com/xiaobei/singbox-manager/component/debounce"
	"github.com/xiaobei/singbox-manager/component/ruleset"
	"github.com/xiaobei/singbox-manager/config"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/hub/executor"
	"github.com/xiaobei/singbox-manager/log"

	"github.com/spf13/cobra"
)

var (
	homeDir    string
	configFile string
	apiURL     string
	jsonOutput bool

	cfg *config.Config
)

var RootCmd = &cobra.Command{
	Use:           C.Name,
	Short:         "Manage sing-box routing rules",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if homeDir != "" {
			if !filepath.IsAbs(homeDir) {
				currentDir, _ := os.Getwd()
				homeDir = filepath.Join(currentDir, homeDir)
			}
			C.SetHomeDir(homeDir)
		}
		if configFile != "" {
			if !filepath.IsAbs(configFile) {
				currentDir, _ := os.Getwd()
				configFile = filepath.Join(currentDir, configFile)
			}
			C.SetConfig(configFile)
		}

		parsed, err := config.ParseWithPath(C.Path.Config())
		if err != nil {
			return fmt.Errorf("parse config %s: %w", C.Path.Config(), err)
		}
		if apiURL != "" {
			parsed.API.BaseURL = apiURL
		}
		log.SetLevel(parsed.LogLevel)
		cfg = parsed
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&homeDir, "directory", "d", "", "set configuration directory")
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "f", "", "specify configuration file")
	RootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "override the management api base url")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print json instead of a table")

	RootCmd.AddCommand(serveCmd, rulesCmd, groupsCmd, outboundsCmd, validateCmd, versionCmd)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Errorln("%s", err.Error())
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (built %s)\n", C.Name, C.Version, C.BuildTime)
	},
}

// newPage connects to the management api. The returned scheduler drives
// validation rounds of the page's editors; commands advance it explicitly
// instead of waiting on wall clock timers.
func newPage() (*executor.Page, *debounce.Manual, error) {
	client, err := remote.New(remote.Option{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
	if err != nil {
		return nil, nil, err
	}
	scheduler := debounce.NewManual()
	options := append(cfg.ValidatorOptions(), ruleset.WithScheduler(scheduler))
	return executor.New(client, client, options...), scheduler, nil
}
