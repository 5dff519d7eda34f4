package cmd

import (
	"fmt"

	"github.com/xiaobei/singbox-manager/component/outbound"

	"github.com/spf13/cobra"
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List preset rule groups",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _, err := newPage()
		if err != nil {
			return err
		}
		if err := page.Load(cmd.Context()); err != nil {
			return err
		}

		rows := page.GroupRows()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rows)
		}
		tw := newTable(cmd.OutOrStdout(), "ID", "NAME", "ICON", "SITES", "OUTBOUND", "STATE")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				row.ID, row.Name, row.Icon, more(row.SiteRules, row.MoreSiteRules), row.Outbound, onOff(row.Enabled))
		}
		return tw.Flush()
	},
}

func groupSwitch(enabled bool) *cobra.Command {
	use, short := "enable <id>", "Enable a preset rule group"
	if !enabled {
		use, short = "disable <id>", "Disable a preset rule group"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _, err := newPage()
			if err != nil {
				return err
			}
			return page.ToggleRuleGroup(cmd.Context(), args[0], enabled)
		},
	}
}

var groupOutboundCmd = &cobra.Command{
	Use:   "outbound <id> <outbound>",
	Short: "Route a preset rule group to another outbound",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _, err := newPage()
		if err != nil {
			return err
		}
		if err := page.Load(cmd.Context()); err != nil {
			return err
		}
		option, ok := outbound.Lookup(page.Options(), args[1])
		if !ok {
			return fmt.Errorf("outbound %q is not offered", args[1])
		}
		return page.SetRuleGroupOutbound(cmd.Context(), args[0], option.Target)
	},
}

var outboundsCmd = &cobra.Command{
	Use:   "outbounds",
	Short: "List selectable outbounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _, err := newPage()
		if err != nil {
			return err
		}
		if err := page.Load(cmd.Context()); err != nil {
			return err
		}

		options := page.Options()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), outbound.Values(options))
		}
		tw := newTable(cmd.OutOrStdout(), "VALUE", "KIND", "LABEL")
		for _, option := range options {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", option.Value, option.Target.Kind, option.Label)
		}
		return tw.Flush()
	},
}

func init() {
	groupsCmd.AddCommand(groupSwitch(true), groupSwitch(false), groupOutboundCmd)
}
