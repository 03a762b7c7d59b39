package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/registry"
)

// NewRulesCommand creates the "rules" command, which lists the active
// rule set after catalog overrides.
func NewRulesCommand(opts *RootOptions) *cobra.Command {
	var (
		operation string
		domain    string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered rewrite rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleSet, _, err := buildRules(opts)
			if err != nil {
				return err
			}
			if operation != "" {
				filtered := ruleSet[:0:0]
				for _, r := range ruleSet {
					if r.Operation() == operation {
						filtered = append(filtered, r)
					}
				}
				ruleSet = filtered
			}
			if domain != "" {
				filtered := ruleSet[:0:0]
				for _, r := range ruleSet {
					if slices.Contains(r.Domains(), domain) {
						filtered = append(filtered, r)
					}
				}
				ruleSet = filtered
			}
			// Registration order breaks priority ties, same as selection.
			sort.SliceStable(ruleSet, func(i, j int) bool {
				if ruleSet[i].Operation() != ruleSet[j].Operation() {
					return ruleSet[i].Operation() < ruleSet[j].Operation()
				}
				return ruleSet[i].Priority() > ruleSet[j].Priority()
			})
			return printRules(cmd, opts, ruleSet)
		},
	}

	cmd.Flags().StringVar(&operation, "operation", "", "only list rules for this operation")
	cmd.Flags().StringVar(&domain, "domain", "", "only list rules tagged with this domain")

	return cmd
}

func printRules(cmd *cobra.Command, opts *RootOptions, ruleSet []registry.Rule) error {
	if opts.Format == "json" {
		type ruleDoc struct {
			Name      string   `json:"name"`
			Operation string   `json:"operation"`
			Priority  int      `json:"priority"`
			Domains   []string `json:"domains,omitempty"`
		}
		docs := make([]ruleDoc, 0, len(ruleSet))
		for _, r := range ruleSet {
			docs = append(docs, ruleDoc{
				Name:      r.Name(),
				Operation: r.Operation(),
				Priority:  r.Priority(),
				Domains:   r.Domains(),
			})
		}
		out, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return WrapExitError(ExitFailure, "encode rules", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tRULE\tPRIORITY\tDOMAINS")
	for _, r := range ruleSet {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Operation(), r.Name(), r.Priority(), strings.Join(r.Domains(), ","))
	}
	return w.Flush()
}
