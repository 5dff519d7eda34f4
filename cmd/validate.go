package cmd

import (
	"fmt"
	"strings"

	"github.com/xiaobei/singbox-manager/adapter/remote"
	"github.com/xiaobei/singbox-manager/component/debounce"
	"github.com/xiaobei/singbox-manager/component/ruleset"
	C "github.com/xiaobei/singbox-manager/constant"

	"github.com/spf13/cobra"
)

var validateLocal bool

var validateCmd = &cobra.Command{
	Use:   "validate <geosite|geoip> <name>...",
	Short: "Check that rule set names exist",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := C.ParseRuleType(args[0])
		if err != nil {
			return err
		}
		if !kind.IsRuleSet() {
			return ruleset.ErrUnsupportedKind
		}

		var verifier ruleset.Verifier
		if validateLocal {
			verifier = ruleset.NewProber(cfg.ProberOption())
		} else {
			client, err := remote.New(remote.Option{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
			if err != nil {
				return err
			}
			verifier = client
		}

		scheduler := debounce.NewManual()
		v := ruleset.NewValidator(verifier, append(cfg.ValidatorOptions(), ruleset.WithScheduler(scheduler))...)
		defer v.Close()

		text := strings.Join(args[1:], "\n")
		v.Trigger(kind, text)
		scheduler.Advance(cfg.Validator.Debounce)
		v.Wait()

		snapshot := v.Snapshot()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snapshot.Results)
		}
		tw := newTable(cmd.OutOrStdout(), "NAME", "VALID", "TAG", "MESSAGE")
		for pair := snapshot.Results.Oldest(); pair != nil; pair = pair.Next() {
			fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", pair.Key, pair.Value.Valid, pair.Value.Tag, pair.Value.Message)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if !v.AllPassed(kind, text) {
			return fmt.Errorf("some %s rule sets are invalid", kind)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateLocal, "local", false, "probe the rule set repository directly instead of the api")
}
