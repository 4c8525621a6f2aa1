package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func newShopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shop",
		Short: "Manage the shopping list",
	}
	cmd.AddCommand(newShopListCmd())
	cmd.AddCommand(newShopAddCmd())
	cmd.AddCommand(newShopMoveCmd())
	cmd.AddCommand(newShopRemoveCmd())
	return cmd
}

func newShopListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List shopping list items in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionShoppingList)
			if err != nil {
				return err
			}
			defer s.Stop()

			items := make([]types.ShoppingListItem, 0, len(s.Items()))
			for _, doc := range s.Items() {
				items = append(items, types.ShoppingListItemFromDocument(doc))
			}
			if flags.jsonMode {
				return printJSON(cmd, items)
			}
			for _, item := range items {
				fmt.Fprintf(cmd.OutOrStdout(), "%-4d %-36s %s\n", item.Order, item.ID, item.Name)
			}
			return nil
		},
	}
}

func newShopAddCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item at the end of the shopping list",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionShoppingList)
			if err != nil {
				return err
			}
			defer s.Stop()

			id, err := s.Add(cmd.Context(), types.ShoppingListItem{Name: name}.ToFields())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newShopMoveCmd() *cobra.Command {
	var (
		id string
		to int
	)
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move an item to a new position",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionShoppingList)
			if err != nil {
				return err
			}
			defer s.Stop()
			return s.MoveItem(cmd.Context(), id, to)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "item id")
	cmd.Flags().IntVar(&to, "to", 0, "target position (zero-based)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newShopRemoveCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a shopping list item",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionShoppingList)
			if err != nil {
				return err
			}
			defer s.Stop()
			return s.Remove(cmd.Context(), id)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "item id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
