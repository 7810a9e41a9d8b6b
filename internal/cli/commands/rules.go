package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/spf13/cobra"
)

// ruleInfo is one rule in list output.
type ruleInfo struct {
	ID          string          `json:"id"`
	Title       string          `json:"title,omitempty"`
	Category    string          `json:"category"`
	Activation  core.Activation `json:"activation"`
	Framework   string          `json:"framework,omitempty"`
	Globs       []string        `json:"globs,omitempty"`
	Applicable  *bool           `json:"applicable,omitempty"`
	Description string          `json:"description,omitempty"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	var (
		category   string
		applicable bool
	)

	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List rules in the rule library",
		Long: `List the rules in the rules directory with their category, activation
class and framework. Pass a rule id to print one rule in full.

With --applicable the project is analysed and only rules that fit its
signature are listed.`,
		Example: `  # List all rules
  rulecraft rules

  # Only architecture rules that apply to this project
  rulecraft rules --category architecture --applicable

  # Show one rule
  rulecraft rules cli/cobra`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runShowRule(cmd, args[0])
			}
			return runListRules(cmd, category, applicable)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list rules in this category")
	cmd.Flags().BoolVar(&applicable, "applicable", false, "Only list rules that fit the project signature")
	return cmd
}

func runListRules(cmd *cobra.Command, category string, applicable bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateRulesDir(); err != nil {
		return err
	}
	set, err := cmdCtx.Engine.LoadRules()
	if err != nil {
		return err
	}

	var accepts func(core.Rule) bool
	if applicable {
		sig, err := cmdCtx.Engine.Signature(cmd.Context())
		if err != nil {
			return err
		}
		accepts = sig.Signature.Accepts
	}

	var infos []ruleInfo
	for _, rule := range set.Rules {
		fm := rule.Frontmatter
		if category != "" && fm.NormalizedCategory() != strings.ToLower(category) {
			continue
		}
		info := ruleInfo{
			ID:          rule.ID,
			Title:       fm.Title,
			Category:    fm.NormalizedCategory(),
			Activation:  core.Classify(fm),
			Framework:   fm.Framework,
			Globs:       fm.Globs,
			Description: fm.Description,
		}
		if accepts != nil {
			ok := accepts(rule)
			if !ok {
				continue
			}
			info.Applicable = &ok
		}
		infos = append(infos, info)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if infos == nil {
			infos = []ruleInfo{}
		}
		return r.JSON(infos)
	}

	r.Header(1, "Rules")
	if len(infos) == 0 {
		r.Muted("no rules match")
	} else {
		rows := make([][]string, len(infos))
		for i, info := range infos {
			rows[i] = []string{info.ID, info.Category, string(info.Activation), orDash(info.Framework), orDash(strings.Join(info.Globs, ", "))}
		}
		r.Table([]string{"ID", "Category", "Activation", "Framework", "Globs"}, rows)
		r.Muted(fmt.Sprintf("%d of %d rules", len(infos), len(set.Rules)))
	}

	reportDiagnostics(cmdCtx, set.Diagnostics)
	return nil
}

func runShowRule(cmd *cobra.Command, id string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cmdCtx.Cfg.ValidateRulesDir(); err != nil {
		return err
	}
	set, err := cmdCtx.Engine.LoadRules()
	if err != nil {
		return err
	}

	for _, rule := range set.Rules {
		if rule.ID != id {
			continue
		}
		r := cmdCtx.Renderer
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(rule)
		}
		fm := rule.Frontmatter
		title := fm.Title
		if title == "" {
			title = rule.ID
		}
		r.Header(1, title)
		r.KeyValue("ID", rule.ID)
		r.KeyValue("Category", fm.NormalizedCategory())
		r.KeyValue("Activation", string(core.Classify(fm)))
		if fm.Framework != "" {
			r.KeyValue("Framework", fm.Framework)
		}
		if len(fm.Globs) > 0 {
			r.KeyValue("Globs", strings.Join(fm.Globs, ", "))
		}
		if fm.Description != "" {
			r.KeyValue("Description", fm.Description)
		}
		r.Println("")
		r.Println(strings.TrimSpace(rule.Content))
		return nil
	}
	return fmt.Errorf("rule not found: %s", id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
