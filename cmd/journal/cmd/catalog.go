package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/catalog"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/views"
)

func QuestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quest",
		Short: "Browse quests and check them off",
	}

	var search, difficulty, sortBy string
	var incomplete bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List quests with their completion state",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			isCompleted := s.flags.QuestCompleted(c.Context())
			filter := catalog.QuestFilter{
				Search:      search,
				Difficulty:  difficulty,
				Sort:        sortBy,
				IsCompleted: isCompleted,
			}
			if incomplete {
				no := false
				filter.Completed = &no
			}
			quests := s.catalog.Quests(filter)

			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), quests)
			}
			rows := make([][]string, 0, len(quests))
			for _, q := range quests {
				rows = append(rows, []string{check(isCompleted(q.ID)), q.ID, q.Name, q.Difficulty, strconv.Itoa(q.QuestPoints)})
			}
			return table(c.OutOrStdout(), []string{"", "ID", "NAME", "DIFFICULTY", "QP"}, rows)
		},
	}
	list.Flags().StringVar(&search, "search", "", "filter by name")
	list.Flags().StringVar(&difficulty, "difficulty", "", "filter by difficulty")
	list.Flags().StringVar(&sortBy, "sort", catalog.SortByName, "sort by name, difficulty or points")
	list.Flags().BoolVar(&incomplete, "incomplete", false, "only quests not yet completed")

	toggle := &cobra.Command{
		Use:   "toggle <quest-id>",
		Short: "Flip a quest's completion; completing it also completes its goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			q, err := s.catalog.Quest(args[0])
			if err != nil {
				return err
			}
			done, err := s.bridge.ToggleQuest(c.Context(), q.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s %s\n", check(done), q.Name)
			return nil
		},
	}

	cmd.AddCommand(list, toggle)
	return cmd
}

func DiaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diary",
		Short: "Browse achievement diaries and check off tasks",
	}

	show := &cobra.Command{
		Use:   "show <diary-id> [difficulty]",
		Short: "Show the tasks of a diary",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := s.catalog.Diary(args[0])
			if err != nil {
				return err
			}
			difficulties := d.Difficulties()
			if len(args) == 2 {
				difficulties = []string{strings.ToLower(args[1])}
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", d.Name, d.Region)
			for _, diff := range difficulties {
				tier, ok := d.Tier(diff)
				if !ok {
					return fmt.Errorf("%w: %s has no %s tier", catalog.ErrDiaryTaskNotFound, d.ID, diff)
				}
				fmt.Fprintf(out, "\n%s\n", diff)
				rows := make([][]string, 0, len(tier.Tasks))
				for i, task := range tier.Tasks {
					done, err := s.flags.Completed(c.Context(), model.DiaryTarget{DiaryID: d.ID, Difficulty: diff, TaskIndex: i})
					if err != nil {
						return err
					}
					rows = append(rows, []string{"  " + check(done), strconv.Itoa(i), task.Description})
				}
				if err := table(out, nil, rows); err != nil {
					return err
				}
			}
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle <diary-id> <difficulty> <task-index>",
		Short: "Flip a diary task; completing it also completes its goal",
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

			difficulty := strings.ToLower(args[1])
			_, task, err := s.catalog.DiaryTask(args[0], difficulty, index)
			if err != nil {
				return err
			}
			done, err := s.bridge.ToggleDiaryTask(c.Context(), args[0], difficulty, index)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s %s\n", check(done), task.Description)
			return nil
		},
	}

	cmd.AddCommand(show, toggle)
	return cmd
}

func ProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show quest completion and quest points",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			p := views.QuestProgress(s.catalog, s.flags.QuestCompleted(c.Context()))
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), p)
			}
			fmt.Fprintf(c.OutOrStdout(), "Quests: %d/%d (%d%%)\nQuest points: %d/%d\n",
				p.Completed, p.Total, p.Percentage, p.QuestPoints, p.MaxQuestPoints)
			return nil
		},
	}
}

func RequirementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "requirements",
		Short: "Show skill levels needed by active goals",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			reqs := s.requirements.Requirements()
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), reqs)
			}
			if len(reqs) == 0 {
				fmt.Fprintln(c.OutOrStdout(), "No skill requirements for active goals")
				return nil
			}
			if _, ok := s.stats.Cached(c.Context()); !ok {
				fmt.Fprintln(c.OutOrStdout(), "No player looked up yet; run: journal lookup <player>")
			}

			rows := make([][]string, 0, len(reqs))
			for _, r := range reqs {
				current, remaining := "-", "-"
				if r.Status != views.StatusUnknown {
					current = strconv.Itoa(r.Current)
					remaining = strconv.FormatInt(r.XPRemaining, 10)
				}
				rows = append(rows, []string{r.Skill, strconv.Itoa(r.Level), current, remaining, string(r.Status), strings.Join(r.Sources, ", ")})
			}
			return table(c.OutOrStdout(), []string{"SKILL", "NEEDED", "CURRENT", "XP LEFT", "STATUS", "FOR"}, rows)
		},
	}
}

func StepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "Show tracked diary tasks with their guides",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			steps := s.steps.Steps()
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), steps)
			}
			out := c.OutOrStdout()
			if len(steps) == 0 {
				fmt.Fprintln(out, "No diary tasks tracked")
				return nil
			}
			for _, step := range steps {
				fmt.Fprintf(out, "%s %s %s #%d: %s\n", check(step.Completed), step.Diary, step.Difficulty, step.TaskIndex, step.Description)
				if step.Guide != "" {
					fmt.Fprintf(out, "    %s\n", step.Guide)
				}
			}
			return nil
		},
	}
}
