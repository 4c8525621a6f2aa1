package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	appsync "github.com/jkmoore/whats-for-dinner/pkg/sync"
	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// planFlags are shared by every plan subcommand: they select the window of
// days the board mirrors.
type planFlags struct {
	from string
	days int
}

func newPlanCmd() *cobra.Command {
	var window planFlags
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage the meal plan",
	}
	cmd.PersistentFlags().StringVar(&window.from, "from", "", "first day of the planning window (YYYY-MM-DD, default today)")
	cmd.PersistentFlags().IntVar(&window.days, "days", 7, "number of days in the planning window")

	cmd.AddCommand(newPlanListCmd(&window))
	cmd.AddCommand(newPlanAddCmd(&window))
	cmd.AddCommand(newPlanMoveCmd(&window))
	cmd.AddCommand(newPlanRemoveCmd(&window))
	return cmd
}

// startPlanBoard subscribes a board over the flagged window and blocks until
// the first snapshot lands.
func startPlanBoard(window *planFlags) (*appsync.PlanBoard, error) {
	userID, err := currentUserID()
	if err != nil {
		return nil, err
	}

	from := time.Now()
	if window.from != "" {
		from, err = time.Parse("2006-01-02", window.from)
		if err != nil {
			return nil, fmt.Errorf("parse --from: %w", err)
		}
	}

	b := appsync.NewPlanBoard(store, logger)
	if err := b.Start(userID, from, window.days); err != nil {
		return nil, err
	}
	if err := waitFor(func() bool { return !b.Loading() }); err != nil {
		b.Stop()
		return nil, err
	}
	if err := b.Err(); err != nil {
		b.Stop()
		return nil, err
	}
	return b, nil
}

func newPlanListCmd(window *planFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the meal plan day by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := startPlanBoard(window)
			if err != nil {
				return err
			}
			defer b.Stop()

			if flags.jsonMode {
				board := make(map[string][]types.MealPlanEntry, len(b.Days()))
				for _, day := range b.Days() {
					entries := []types.MealPlanEntry{}
					for _, doc := range b.Entries(day) {
						entries = append(entries, types.MealPlanEntryFromDocument(doc))
					}
					board[day] = entries
				}
				return printJSON(cmd, board)
			}

			for _, day := range b.Days() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", day)
				for _, doc := range b.Entries(day) {
					entry := types.MealPlanEntryFromDocument(doc)
					line := fmt.Sprintf("  %-4d %-36s %s", entry.Order, entry.ID, entry.Name)
					if entry.Notes != "" {
						line += " (" + entry.Notes + ")"
					}
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
			}
			return nil
		},
	}
}

func newPlanAddCmd(window *planFlags) *cobra.Command {
	var (
		day   string
		name  string
		notes string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a meal at the end of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := startPlanBoard(window)
			if err != nil {
				return err
			}
			defer b.Stop()

			id, err := b.Add(cmd.Context(), day, name, notes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "calendar day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&name, "name", "", "meal name")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPlanMoveCmd(window *planFlags) *cobra.Command {
	var (
		id      string
		fromDay string
		toDay   string
		to      int
	)
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Move a meal within a day or to another day",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := startPlanBoard(window)
			if err != nil {
				return err
			}
			defer b.Stop()

			if toDay == "" {
				toDay = fromDay
			}
			return b.MoveEntry(cmd.Context(), id, fromDay, toDay, to)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "meal id")
	cmd.Flags().StringVar(&fromDay, "from-day", "", "day the meal is on (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toDay, "to-day", "", "destination day (defaults to --from-day)")
	cmd.Flags().IntVar(&to, "to", 0, "target position in the destination day (zero-based)")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("from-day")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newPlanRemoveCmd(window *planFlags) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a meal from the plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := startPlanBoard(window)
			if err != nil {
				return err
			}
			defer b.Stop()
			return b.Remove(cmd.Context(), id)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "meal id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
