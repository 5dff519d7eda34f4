package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/xiaobei/singbox-manager/component/outbound"
	C "github.com/xiaobei/singbox-manager/constant"
	"github.com/xiaobei/singbox-manager/editor"
	"github.com/xiaobei/singbox-manager/hub/executor"

	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List custom rules in evaluation order",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _, err := newPage()
		if err != nil {
			return err
		}
		if err := page.Load(cmd.Context()); err != nil {
			return err
		}

		rows := page.RuleRows()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), rows)
		}
		tw := newTable(cmd.OutOrStdout(), "ID", "PRIORITY", "NAME", "TYPE", "VALUES", "OUTBOUND", "STATE")
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n",
				row.ID, row.Priority, row.Name, row.TypeLabel, more(row.Values, row.MoreValues), row.Outbound, onOff(row.Enabled))
		}
		return tw.Flush()
	},
}

var (
	ruleName     string
	ruleType     string
	ruleValues   []string
	ruleOutbound string
	rulePriority string
	ruleDisabled bool
	assumeYes    bool
)

var ruleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a custom rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		return editRule(cmd, "")
	},
}

var ruleEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a custom rule; unset flags keep their value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editRule(cmd, args[0])
	},
}

var ruleToggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip the enabled flag of a custom rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _, err := newPage()
		if err != nil {
			return err
		}
		if err := page.Load(cmd.Context()); err != nil {
			return err
		}
		return page.ToggleRule(cmd.Context(), args[0])
	},
}

var ruleDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom rule after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _, err := newPage()
		if err != nil {
			return err
		}
		if err := page.Load(cmd.Context()); err != nil {
			return err
		}

		reader := bufio.NewReader(cmd.InOrStdin())
		confirm := func(prompt string) bool {
			if assumeYes {
				return true
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
			answer, _ := reader.ReadString('\n')
			answer = strings.ToLower(strings.TrimSpace(answer))
			return answer == "y" || answer == "yes"
		}

		err = page.DeleteRule(cmd.Context(), args[0], confirm)
		if errors.Is(err, executor.ErrDeleteCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
			return nil
		}
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{ruleAddCmd, ruleEditCmd} {
		c.Flags().StringVar(&ruleName, "name", "", "rule name")
		c.Flags().StringVar(&ruleType, "type", C.DomainSuffix.String(), "rule type")
		c.Flags().StringSliceVar(&ruleValues, "value", nil, "match value, repeatable")
		c.Flags().StringVar(&ruleOutbound, "outbound", C.Proxy, "outbound value")
		c.Flags().StringVar(&rulePriority, "priority", "", "priority, lower first")
		c.Flags().BoolVar(&ruleDisabled, "disabled", false, "save the rule disabled")
	}
	ruleDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	rulesCmd.AddCommand(ruleAddCmd, ruleEditCmd, ruleToggleCmd, ruleDeleteCmd)
}

// editRule drives an editor session from flags, settles validation and
// submits.
func editRule(cmd *cobra.Command, id string) error {
	page, scheduler, err := newPage()
	if err != nil {
		return err
	}
	if err := page.Load(cmd.Context()); err != nil {
		return err
	}

	e := page.Editor()
	if id == "" {
		page.CreateRule(e)
	} else if err := page.EditRule(e, id); err != nil {
		return err
	}
	defer e.Cancel()

	flags := cmd.Flags()
	if flags.Changed("name") || id == "" {
		e.SetName(ruleName)
	}
	if flags.Changed("type") || id == "" {
		tp, err := C.ParseRuleType(ruleType)
		if err != nil {
			return err
		}
		e.SetRuleType(tp)
	}
	if flags.Changed("value") || id == "" {
		e.SetValuesText(strings.Join(ruleValues, "\n"))
	}
	if flags.Changed("outbound") || id == "" {
		option, ok := outbound.Lookup(e.Options(), ruleOutbound)
		if !ok {
			return fmt.Errorf("outbound %q is not offered", ruleOutbound)
		}
		e.SetOutbound(option.Target)
	}
	if flags.Changed("priority") {
		e.SetPriorityText(rulePriority)
	}
	if flags.Changed("disabled") || id == "" {
		e.SetEnabled(!ruleDisabled)
	}

	scheduler.Advance(cfg.Validator.Debounce)
	e.Validator().Wait()

	if !e.CanSubmit() {
		for _, row := range e.ValidationRows() {
			if row.State != editor.Valid {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s %s\n", row.Name, row.State, row.Message)
			}
		}
		return editor.ErrNotSubmittable
	}

	rule, err := page.Submit(cmd.Context(), e)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", rule.Name, rule.ID)
	return nil
}
