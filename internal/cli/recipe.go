package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jkmoore/whats-for-dinner/pkg/recipes"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func newRecipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "Manage recipes and their ingredients",
	}
	cmd.AddCommand(newRecipeListCmd())
	cmd.AddCommand(newRecipeAddCmd())
	cmd.AddCommand(newRecipeShowCmd())
	cmd.AddCommand(newRecipeEditCmd())
	cmd.AddCommand(newRecipeIngredientsCmd())
	cmd.AddCommand(newRecipeDeleteCmd())
	return cmd
}

func newRecipeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recipes alphabetically",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUserID()
			if err != nil {
				return err
			}

			q := types.Query{OrderBy: []string{types.FieldLowercaseName}}.
				Where(types.FieldUserID, types.OpEqual, userID)
			docs, err := store.Query(cmd.Context(), types.CollectionRecipes, q)
			if err != nil {
				return err
			}

			list := make([]types.Recipe, 0, len(docs))
			for _, doc := range docs {
				list = append(list, types.RecipeFromDocument(doc))
			}
			if flags.jsonMode {
				return printJSON(cmd, list)
			}
			for _, r := range list {
				tag := r.Type
				if tag == "" {
					tag = "-"
				}
				mins := "-"
				if r.Time > 0 {
					mins = fmt.Sprintf("%dm", r.Time)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s %-30s %-10s %s\n", r.ID, r.Name, tag, mins)
			}
			return nil
		},
	}
}

func newRecipeAddCmd() *cobra.Command {
	var (
		name       string
		recipeType string
		prepTime   int
		notes      string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recipe",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := currentUserID()
			if err != nil {
				return err
			}
			if recipeType != "" && !types.IsValidRecipeType(recipeType) {
				return fmt.Errorf("unknown recipe type %q", recipeType)
			}

			e := recipes.NewEditor(store, logger)
			id, err := e.SaveDetails(cmd.Context(), types.Recipe{
				Name:   name,
				Type:   recipeType,
				Time:   prepTime,
				Notes:  notes,
				UserID: userID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "recipe name")
	cmd.Flags().StringVar(&recipeType, "type", "", "recipe type (main, side, dessert, beverage)")
	cmd.Flags().IntVar(&prepTime, "time", 0, "preparation time in minutes")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRecipeShowCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a recipe and its ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := recipes.NewEditor(store, logger)
			if err := e.Load(cmd.Context(), id); err != nil {
				return err
			}

			if flags.jsonMode {
				return printJSON(cmd, struct {
					Recipe      types.Recipe
					Ingredients []types.Ingredient
				}{e.Recipe(), e.Ingredients()})
			}

			r := e.Recipe()
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", r.Name)
			if r.Type != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "type:  %s\n", r.Type)
			}
			if r.Time > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "time:  %d minutes\n", r.Time)
			}
			if r.Notes != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "notes: %s\n", r.Notes)
			}
			for _, ing := range e.Ingredients() {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s %s\n", ing.Quantity, ing.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "recipe id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newRecipeEditCmd() *cobra.Command {
	var (
		id         string
		name       string
		recipeType string
		prepTime   int
		notes      string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit a recipe's details",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := recipes.NewEditor(store, logger)
			if err := e.Load(cmd.Context(), id); err != nil {
				return err
			}

			r := e.Recipe()
			if cmd.Flags().Changed("name") {
				r.Name = name
			}
			if cmd.Flags().Changed("type") {
				if recipeType != "" && !types.IsValidRecipeType(recipeType) {
					return fmt.Errorf("unknown recipe type %q", recipeType)
				}
				r.Type = recipeType
			}
			if cmd.Flags().Changed("time") {
				r.Time = prepTime
			}
			if cmd.Flags().Changed("notes") {
				r.Notes = notes
			}
			_, err := e.SaveDetails(cmd.Context(), r)
			return err
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "recipe id")
	cmd.Flags().StringVar(&name, "name", "", "new recipe name")
	cmd.Flags().StringVar(&recipeType, "type", "", "new recipe type (empty clears)")
	cmd.Flags().IntVar(&prepTime, "time", 0, "new preparation time in minutes (0 clears)")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newRecipeIngredientsCmd() *cobra.Command {
	var (
		id    string
		items []string
	)
	cmd := &cobra.Command{
		Use:   "ingredients",
		Short: "Replace a recipe's ingredient list",
		Long: "Replace the recipe's ingredients with the given --item values.\n" +
			"Each --item is \"name=quantity\". Unchanged ingredients keep their\n" +
			"stored ids, so only the actual difference is written.",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := recipes.NewEditor(store, logger)
			if err := e.Load(cmd.Context(), id); err != nil {
				return err
			}

			// Reuse stored ids for ingredients whose name is unchanged, so
			// pure quantity edits become updates rather than delete+add.
			existing := make(map[string]string)
			for _, ing := range e.Ingredients() {
				existing[strings.ToLower(ing.Name)] = ing.ID
			}

			edited := make([]types.Ingredient, 0, len(items))
			for _, item := range items {
				name, quantity, _ := strings.Cut(item, "=")
				name = strings.TrimSpace(name)
				if name == "" {
					return fmt.Errorf("invalid --item %q, want name=quantity", item)
				}
				ingID := existing[strings.ToLower(name)]
				if ingID == "" {
					ingID = types.NewIngredientID()
				}
				edited = append(edited, types.Ingredient{
					ID:       ingID,
					Name:     name,
					Quantity: strings.TrimSpace(quantity),
				})
			}
			return e.SaveIngredients(cmd.Context(), edited)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "recipe id")
	cmd.Flags().StringArrayVar(&items, "item", nil, "ingredient as name=quantity (repeatable)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newRecipeDeleteCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a recipe and its ingredients",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := recipes.NewEditor(store, logger)
			if err := e.Load(cmd.Context(), id); err != nil {
				return err
			}
			return e.Delete(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "recipe id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
