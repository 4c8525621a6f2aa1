package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jkmoore/whats-for-dinner/pkg/search"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search lists and recipes",
	}
	cmd.AddCommand(newSearchNameCmd())
	cmd.AddCommand(newSearchRecipesCmd())
	return cmd
}

// searchTargets maps the --in flag onto a collection and the field its
// results sort by.
var searchTargets = map[string]struct {
	collection string
	sortField  string
}{
	"inventory": {types.CollectionInventory, types.FieldOrder},
	"shop":      {types.CollectionShoppingList, types.FieldOrder},
	"recipes":   {types.CollectionRecipes, types.FieldLowercaseName},
}

func newSearchNameCmd() *cobra.Command {
	var (
		in         string
		typeFilter []string
		maxTime    int
	)
	cmd := &cobra.Command{
		Use:   "name <input>",
		Short: "Find entries whose name starts with the input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, ok := searchTargets[in]
			if !ok {
				return fmt.Errorf("unknown search target %q, want inventory, shop, or recipes", in)
			}
			userID, err := currentUserID()
			if err != nil {
				return err
			}

			p := search.NewPrefixSearcher(store, target.collection, target.sortField, logger)
			if err := p.Start(userID); err != nil {
				return err
			}
			defer p.Stop()

			// One result set is enough for a one-shot command; the searcher
			// would keep streaming updates in the app.
			first := make(chan struct{}, 1)
			p.OnChange(func() {
				select {
				case first <- struct{}{}:
				default:
				}
			})
			if err := p.SetInput(args[0]); err != nil {
				return err
			}
			if !p.Active() {
				return fmt.Errorf("empty search input")
			}
			select {
			case <-first:
			case <-time.After(snapshotTimeout):
				return fmt.Errorf("timed out waiting for search results")
			}
			if err := p.Err(); err != nil {
				return err
			}

			results := p.Results()
			if in == "recipes" {
				results = search.RecipeFilter{Types: typeFilter, MaxTime: maxTime}.ApplyDocs(results)
			}
			if flags.jsonMode {
				return printJSON(cmd, results)
			}
			for _, doc := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s %s\n", doc.ID, doc.Fields.StringField(types.FieldName))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "inventory", "where to search: inventory, shop, or recipes")
	cmd.Flags().StringArrayVar(&typeFilter, "type", nil, "keep only recipes of these types (repeatable)")
	cmd.Flags().IntVar(&maxTime, "max-time", 0, "keep only recipes at or under this many minutes")
	return cmd
}

func newSearchRecipesCmd() *cobra.Command {
	var (
		typeFilter []string
		maxTime    int
	)
	cmd := &cobra.Command{
		Use:   "recipes <ingredient>...",
		Short: "Rank recipes by how many of the given ingredients they use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUserID()
			if err != nil {
				return err
			}

			var terms search.TermSet
			for _, arg := range args {
				terms.Add(arg)
			}

			matches, err := search.SearchByIngredients(cmd.Context(), store, userID, terms.Terms(), logger)
			if err != nil {
				return err
			}
			matches = search.RecipeFilter{Types: typeFilter, MaxTime: maxTime}.Apply(matches)

			if flags.jsonMode {
				return printJSON(cmd, matches)
			}
			for _, m := range matches {
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s %-30s %.2f  uses %s\n", m.Recipe.ID, m.Recipe.Name, m.Weight, m.Subtext())
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&typeFilter, "type", nil, "keep only recipes of these types (repeatable)")
	cmd.Flags().IntVar(&maxTime, "max-time", 0, "keep only recipes at or under this many minutes")
	return cmd
}
