package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

func newInventoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage the food inventory",
	}
	cmd.AddCommand(newInventoryListCmd())
	cmd.AddCommand(newInventoryAddCmd())
	cmd.AddCommand(newInventoryEditCmd())
	cmd.AddCommand(newInventoryMoveCmd())
	cmd.AddCommand(newInventoryRemoveCmd())
	return cmd
}

func newInventoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List inventory items in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionInventory)
			if err != nil {
				return err
			}
			defer s.Stop()

			items := make([]types.InventoryItem, 0, len(s.Items()))
			for _, doc := range s.Items() {
				items = append(items, types.InventoryItemFromDocument(doc))
			}
			if flags.jsonMode {
				return printJSON(cmd, items)
			}
			for _, item := range items {
				expires := "-"
				if !item.Expiration.IsZero() {
					expires = item.Expiration.Format("2006-01-02")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-4d %-36s %-30s expires %s\n", item.Order, item.ID, item.Name, expires)
			}
			return nil
		},
	}
}

func newInventoryAddCmd() *cobra.Command {
	var (
		name    string
		expires string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item at the end of the inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionInventory)
			if err != nil {
				return err
			}
			defer s.Stop()

			item := types.InventoryItem{Name: name}
			if expires != "" {
				exp, err := time.Parse("2006-01-02", expires)
				if err != nil {
					return fmt.Errorf("parse --expires: %w", err)
				}
				item.Expiration = exp
			}
			id, err := s.Add(cmd.Context(), item.ToFields())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name")
	cmd.Flags().StringVar(&expires, "expires", "", "expiration date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newInventoryEditCmd() *cobra.Command {
	var (
		id      string
		name    string
		expires string
	)
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit an inventory item",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionInventory)
			if err != nil {
				return err
			}
			defer s.Stop()

			fields := types.Fields{}
			if cmd.Flags().Changed("name") {
				fields[types.FieldName] = name
			}
			if cmd.Flags().Changed("expires") {
				if expires == "" {
					fields[types.FieldExpiration] = nil
				} else {
					exp, err := time.Parse("2006-01-02", expires)
					if err != nil {
						return fmt.Errorf("parse --expires: %w", err)
					}
					fields[types.FieldExpiration] = exp.Format(time.RFC3339)
				}
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to change")
			}
			return s.Edit(cmd.Context(), id, fields)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "item id")
	cmd.Flags().StringVar(&name, "name", "", "new item name")
	cmd.Flags().StringVar(&expires, "expires", "", "new expiration date (YYYY-MM-DD, empty clears)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newInventoryMoveCmd() *cobra.Command {
	var (
		id string
		to int
	)
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move an item to a new position",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionInventory)
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

func newInventoryRemoveCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove an inventory item",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSynchronizer(types.CollectionInventory)
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
