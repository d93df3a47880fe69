package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tallyworks/backoffice-api/internal/data"
	"github.com/tallyworks/backoffice-api/internal/devseed"
	"github.com/tallyworks/backoffice-api/internal/domain/model"
)

type seedRulesOptions struct {
	Category string
	Timeout  time.Duration
}

func runSeedRules(cmdCtx *commandContext, args []string) error {
	opts, err := parseSeedRulesFlags(args)
	if err != nil {
		return err
	}

	defaults := devseed.DefaultAssignmentRules()
	if opts.Category != "" {
		reqs, ok := defaults[opts.Category]
		if !ok {
			return fmt.Errorf(
				"no default rules for category %q (known: %s)",
				opts.Category,
				strings.Join(knownRuleCategories(defaults), ", "),
			)
		}
		defaults = map[string][]model.CreateAssignmentRuleRequest{opts.Category: reqs}
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		repo := data.NewAssignmentRuleRepo(db)

		installed := make(map[string][]*model.AssignmentRule, len(defaults))
		for category, reqs := range defaults {
			rules, replaceErr := repo.ReplaceCategoryRules(ctx, category, reqs)
			if replaceErr != nil {
				return fmt.Errorf("seed %s rules: %w", category, replaceErr)
			}
			installed[category] = rules
		}

		return printInstalledRules(installed)
	})
}

func parseSeedRulesFlags(args []string) (seedRulesOptions, error) {
	fs := newFlagSet("seed-rules")
	opts := seedRulesOptions{Timeout: defaultMigrationTimeout}
	fs.StringVar(&opts.Category, "category", "", "Seed only one category (default: all categories)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration to wait for seeding to complete")
	if err := parseTimed(fs, args, &opts.Timeout); err != nil {
		return seedRulesOptions{}, err
	}

	opts.Category = strings.ToLower(strings.TrimSpace(opts.Category))
	return opts, nil
}

func knownRuleCategories(defaults map[string][]model.CreateAssignmentRuleRequest) []string {
	categories := make([]string, 0, len(defaults))
	for category := range defaults {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

func printInstalledRules(installed map[string][]*model.AssignmentRule) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(w, "CATEGORY\tPOS\tROLE\tMATCH"); err != nil {
		return fmt.Errorf("print rules header: %w", err)
	}

	for _, category := range sortedRuleCategories(installed) {
		for _, rule := range installed[category] {
			match := rule.Match
			if match == "" {
				match = "(always)"
			}
			if err := writef(w, "%s\t%d\t%s\t%s\n", rule.Category, rule.Position, rule.Role, match); err != nil {
				return fmt.Errorf("print rule row: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush rules table: %w", err)
	}
	return nil
}

func sortedRuleCategories(installed map[string][]*model.AssignmentRule) []string {
	categories := make([]string, 0, len(installed))
	for category := range installed {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
