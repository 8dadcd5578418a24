package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
)

func GoalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "List and edit journal goals",
		RunE:  listGoals,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List goals grouped by category",
		RunE:  listGoals,
	}

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a goal",
	}
	add.AddCommand(
		&cobra.Command{
			Use:   "quest <quest-id>",
			Short: "Track a quest",
			Args:  cobra.ExactArgs(1),
			RunE: func(c *cobra.Command, args []string) error {
				s, err := openSession(c.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				g, err := s.builder.QuestGoal(c.Context(), args[0])
				if err != nil {
					return err
				}
				return addGoal(c, s, g)
			},
		},
		&cobra.Command{
			Use:   "diary <diary-id> <difficulty> <task-index>",
			Short: "Track an achievement diary task",
			Args:  cobra.ExactArgs(3),
			RunE: func(c *cobra.Command, args []string) error {
				index, err := strconv.Atoi(args[2])
				if err != nil {
					return fmt.Errorf("invalid task index %q", args[2])
				}

				s, err := openSession(c.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				g, err := s.builder.DiaryGoal(c.Context(), args[0], args[1], index)
				if err != nil {
					return err
				}
				return addGoal(c, s, g)
			},
		},
		&cobra.Command{
			Use:   "skill <skill> <level>",
			Short: "Track a skill level",
			Args:  cobra.ExactArgs(2),
			RunE: func(c *cobra.Command, args []string) error {
				level, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("invalid level %q", args[1])
				}

				s, err := openSession(c.Context())
				if err != nil {
					return err
				}
				defer s.Close()

				g, err := s.builder.SkillGoal(args[0], level)
				if err != nil {
					return err
				}
				return addGoal(c, s, g)
			},
		},
	)

	complete := &cobra.Command{
		Use:   "complete <goal-id>",
		Short: "Complete a goal and mark its catalog item done",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.engine.CompleteGoal(c.Context(), args[0]) {
				fmt.Fprintf(c.OutOrStdout(), "No goal %s\n", args[0])
				return nil
			}
			fmt.Fprintf(c.OutOrStdout(), "Completed %s\n", args[0])
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <goal-id>",
		Short: "Remove a goal without touching its catalog item",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.engine.RemoveGoal(c.Context(), args[0]) {
				fmt.Fprintf(c.OutOrStdout(), "No goal %s\n", args[0])
				return nil
			}
			fmt.Fprintf(c.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed goals",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n := s.engine.ClearCompletedGoals(c.Context())
			fmt.Fprintf(c.OutOrStdout(), "Cleared %d completed goals\n", n)
			return nil
		},
	}

	cmd.AddCommand(list, add, complete, remove, clear)
	return cmd
}

func listGoals(c *cobra.Command, args []string) error {
	s, err := openSession(c.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	groups := s.journal.Groups()
	out := c.OutOrStdout()
	if jsonOutput(c) {
		records := make(map[string]any, len(groups))
		for _, g := range groups {
			list := make([]any, 0, len(g.Goals))
			for _, goal := range g.Goals {
				list = append(list, goal.Record())
			}
			records[g.Category] = list
		}
		return printJSON(out, map[string]any{"source": s.load.Source, "groups": records})
	}

	if len(groups) == 0 {
		fmt.Fprintln(out, "No goals yet. Add one with: journal goals add quest <quest-id>")
		return nil
	}
	for _, g := range groups {
		fmt.Fprintf(out, "%s (%d)\n", g.Category, len(g.Goals))
		rows := make([][]string, 0, len(g.Goals))
		for _, goal := range g.Goals {
			rows = append(rows, []string{"  " + check(goal.Completed), goal.ID, goal.Title})
		}
		if err := table(out, nil, rows); err != nil {
			return err
		}
	}
	return nil
}

func addGoal(c *cobra.Command, s *session, g *model.Goal) error {
	added, err := s.engine.AddGoal(c.Context(), g)
	if err != nil {
		return err
	}
	out := c.OutOrStdout()
	switch {
	case !added:
		fmt.Fprintf(out, "Already tracking %s\n", g.ID)
	case g.Completed:
		fmt.Fprintf(out, "Added %s (already completed)\n", g.ID)
	default:
		fmt.Fprintf(out, "Added %s: %s\n", g.ID, g.Title)
	}
	return nil
}
