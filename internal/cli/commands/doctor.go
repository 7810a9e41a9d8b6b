package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/rulecraft/internal/cli/output"
	"github.com/leapstack-labs/rulecraft/pkg/core"
	"github.com/spf13/cobra"
)

// Health check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	HealthChecks    []HealthCheck `json:"health_checks"`
	Score           int           `json:"score"`
	Recommendations []string      `json:"recommendations"`
	IssueCount      int           `json:"issue_count"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"`
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
	// Recommendation is shown when the check does not pass.
	Recommendation string `json:"-"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup and rule generation health",
		Long: `Check that rulecraft can analyse this project and generate rules for it.

The doctor command verifies the project and rules directories, the target
platforms and the signature cache, then runs the analysis and a dry
generation to report skipped files, unreadable rules, import cycles and
platforms over their character limits.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  rulecraft doctor

  # Output as JSON
  rulecraft doctor -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}
	return cmd
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	checks := doctorChecks(cmd, cmdCtx)
	out := &DoctorOutput{HealthChecks: checks, Score: calculateHealthScore(checks)}
	for _, c := range checks {
		out.IssueCount += c.IssueCount
		if c.Status != statusPass && c.Recommendation != "" && len(out.Recommendations) < 5 {
			out.Recommendations = append(out.Recommendations, c.Recommendation)
		}
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	renderDoctor(r, out)
	return nil
}

func doctorChecks(cmd *cobra.Command, c *CommandContext) []HealthCheck {
	ctx := cmd.Context()
	cfg := c.Cfg
	var checks []HealthCheck

	rulesCheck := HealthCheck{ID: "RC01", Name: "Rule library", Group: "setup", Status: statusPass,
		Recommendation: "Fix or remove the rule files listed above; run with --strict to fail on them"}
	var ruleCount int
	if _, err := os.Stat(cfg.RulesDir); err != nil {
		rulesCheck.Status, rulesCheck.IssueCount = statusError, 1
		rulesCheck.Details = []string{"rules directory not found: " + cfg.RulesDir}
		rulesCheck.Recommendation = "Create the rules directory or point rules_dir at your rule library"
	} else if set, err := c.Engine.LoadRules(); err != nil {
		rulesCheck.Status, rulesCheck.IssueCount = statusError, 1
		rulesCheck.Details = []string{err.Error()}
	} else {
		ruleCount = len(set.Rules)
		rulesCheck.Details = diagnosticDetails(set.Diagnostics)
		rulesCheck.IssueCount = len(set.Diagnostics)
		if len(set.Diagnostics) > 0 {
			rulesCheck.Status = statusWarn
		}
		if ruleCount == 0 {
			rulesCheck.Status = statusWarn
			rulesCheck.IssueCount++
			rulesCheck.Details = append(rulesCheck.Details, "no rules found")
			rulesCheck.Recommendation = "Add markdown rules with YAML front-matter to the rules directory"
		}
	}
	checks = append(checks, rulesCheck)

	platformCheck := HealthCheck{ID: "RC02", Name: "Target platforms", Group: "setup", Status: statusPass,
		Recommendation: "Use 'rulecraft platforms' to list valid platform ids"}
	if _, err := c.Engine.Registry().Resolve(cfg.Platforms); err != nil {
		platformCheck.Status, platformCheck.IssueCount = statusError, 1
		platformCheck.Details = []string{err.Error()}
	}
	checks = append(checks, platformCheck)

	cacheCheck := HealthCheck{ID: "RC03", Name: "Signature cache", Group: "setup", Status: statusPass,
		Recommendation: "Check cache.path is writable, or disable the cache with --no-cache"}
	if store, err := c.Engine.Cache(ctx); err != nil {
		cacheCheck.Status, cacheCheck.IssueCount = statusWarn, 1
		cacheCheck.Details = []string{err.Error()}
	} else if store == nil {
		cacheCheck.Details = []string{"disabled"}
	}
	checks = append(checks, cacheCheck)

	a, err := c.Engine.Analyze(ctx)
	if err != nil {
		checks = append(checks, HealthCheck{ID: "RC04", Name: "Project analysis", Group: "analysis",
			Status: statusError, IssueCount: 1, Details: []string{err.Error()}})
		return checks
	}

	scanCheck := HealthCheck{ID: "RC04", Name: "Project analysis", Group: "analysis", Status: statusPass,
		Recommendation: "Add generated or vendored directories to ignore_dirs"}
	for _, d := range a.Diagnostics {
		if d.Kind == core.DiagSkippedFile {
			scanCheck.IssueCount++
			scanCheck.Details = append(scanCheck.Details, d.String())
		}
	}
	if scanCheck.IssueCount > 0 {
		scanCheck.Status = statusWarn
	}
	checks = append(checks, scanCheck)

	cycleCheck := HealthCheck{ID: "RC05", Name: "Import cycles", Group: "analysis", Status: statusPass,
		Recommendation: "Break import cycles so modules form clear layers"}
	for _, cyc := range a.Graph.Cycles {
		cycleCheck.IssueCount++
		cycleCheck.Details = append(cycleCheck.Details, strings.Join(cyc, " <-> "))
	}
	if cycleCheck.IssueCount > 0 {
		cycleCheck.Status = statusWarn
	}
	checks = append(checks, cycleCheck)

	archCheck := HealthCheck{ID: "RC06", Name: "Architecture detection", Group: "analysis", Status: statusPass,
		Recommendation: "Lower min_confidence or declare the stack in rulecraft.yaml"}
	if primary, ok := a.Patterns.Primary(); ok {
		archCheck.Details = []string{fmt.Sprintf("%s (%s)", primary.Name, output.FormatPercent(primary.Confidence))}
	} else {
		archCheck.Status, archCheck.IssueCount = statusWarn, 1
		archCheck.Details = []string{"no architecture above the confidence threshold"}
	}
	checks = append(checks, archCheck)

	if ruleCount == 0 || platformCheck.Status != statusPass {
		return checks
	}

	limitCheck := HealthCheck{ID: "RC07", Name: "Platform limits", Group: "generation", Status: statusPass,
		Recommendation: "Shorten long rules or raise the platform limits in a custom descriptor"}
	gen, err := c.Engine.Generate(ctx, cfg.Platforms)
	if err != nil {
		limitCheck.Status, limitCheck.IssueCount = statusError, 1
		limitCheck.Details = []string{err.Error()}
	} else {
		for _, p := range gen.Platforms {
			s := p.Result.Summary
			if !s.WithinLimit || len(s.Dropped) > 0 || len(s.Truncations) > 0 {
				limitCheck.IssueCount++
				limitCheck.Details = append(limitCheck.Details, fmt.Sprintf("%s: %d truncated, %d dropped, %d/%d characters",
					p.Platform.ID, len(s.Truncations), len(s.Dropped), s.TotalCharacters, s.CharacterLimit))
			}
		}
		if limitCheck.IssueCount > 0 {
			limitCheck.Status = statusWarn
		}
	}
	return append(checks, limitCheck)
}

func diagnosticDetails(diags []core.Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.String())
	}
	return out
}

// calculateHealthScore computes a health score from 0-100.
// Warnings cost 10 points per check, errors 25.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case statusError:
			score -= 25
		case statusWarn:
			score -= 10
		}
	}
	return max(score, 0)
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) {
	r.Header(1, "Rulecraft health report")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			if currentGroup != "" {
				r.Println("")
			}
			currentGroup = check.Group
			r.Header(2, currentGroup)
		}

		detail := ""
		if check.IssueCount > 0 {
			detail = fmt.Sprintf("%d issues", check.IssueCount)
		}
		status := map[string]string{statusPass: "success", statusWarn: "warn", statusError: "error"}[check.Status]
		r.StatusLine(check.ID+": "+check.Name, status, detail)

		for i, d := range check.Details {
			if i >= 3 {
				r.Muted(fmt.Sprintf("    ... and %d more", len(check.Details)-3))
				break
			}
			r.Printf("    - %s\n", d)
		}
	}
	r.Println("")

	r.Header(2, "health score")
	r.Printf("%d/100\n", out.Score)

	if len(out.Recommendations) > 0 {
		r.Println("")
		r.Header(2, "recommendations")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
	}
}
