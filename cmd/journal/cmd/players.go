package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/osrs"
)

func LookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <player>",
		Short: "Fetch a player's hiscores and cache them for requirement checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			stats, err := s.stats.Lookup(c.Context(), s.osrs, args[0])
			if err != nil {
				return err
			}
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), stats)
			}

			rows := make([][]string, 0, len(osrs.HiscoreRows))
			for _, skill := range osrs.HiscoreRows {
				stat := stats.Skills[skill]
				rows = append(rows, []string{skill, strconv.Itoa(stat.Level), strconv.FormatInt(stat.XP, 10), rank(stat.Rank)})
			}
			fmt.Fprintf(c.OutOrStdout(), "%s\n", stats.Name)
			return table(c.OutOrStdout(), []string{"SKILL", "LEVEL", "XP", "RANK"}, rows)
		},
	}
}

func GroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "group <name>",
		Short: "Show a group ironman group's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			group, err := s.osrs.LookupGroup(c.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), group)
			}

			rows := make([][]string, 0, len(group.Members))
			for _, m := range group.Members {
				rows = append(rows, []string{m.Name, strconv.Itoa(m.TotalLevel), strconv.FormatInt(m.TotalXP, 10)})
			}
			fmt.Fprintf(c.OutOrStdout(), "%s (%d members)\n", group.Name, len(group.Members))
			return table(c.OutOrStdout(), []string{"MEMBER", "TOTAL", "XP"}, rows)
		},
	}
}

func CollectionLogCmd() *cobra.Command {
	var all, items bool
	cmd := &cobra.Command{
		Use:   "collection-log <player>",
		Short: "Show a player's collection log synced to TempleOSRS",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			cl, err := s.osrs.LookupCollectionLog(c.Context(), args[0])
			if err != nil {
				return err
			}
			if all {
				if err := s.osrs.IncludeEmptyCategories(c.Context(), cl); err != nil {
					slog.Warn("collection log categories unavailable", "error", err)
				}
			}
			if jsonOutput(c) {
				return printJSON(c.OutOrStdout(), cl)
			}

			out := c.OutOrStdout()
			fmt.Fprintf(out, "%s: %d/%d items (%d%%), %d/%d categories complete\n",
				cl.Player, cl.Obtained, cl.Total, cl.Percent(), cl.CompletedCategories(), len(cl.Categories))
			if items {
				rows := make([][]string, 0, cl.Total)
				for _, cat := range cl.Categories {
					for _, item := range cat.Items {
						rows = append(rows, []string{cat.Name, item.Name, check(item.Obtained), strconv.Itoa(item.Count)})
					}
				}
				return table(out, []string{"CATEGORY", "ITEM", "OBTAINED", "COUNT"}, rows)
			}

			rows := make([][]string, 0, len(cl.Categories))
			for _, cat := range cl.Categories {
				rows = append(rows, []string{cat.Name, fmt.Sprintf("%d/%d", cat.Obtained, len(cat.Items)), check(cat.Complete())})
			}
			return table(out, []string{"CATEGORY", "OBTAINED", "DONE"}, rows)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include categories with no synced entries")
	cmd.Flags().BoolVar(&items, "items", false, "list every item instead of category totals")
	return cmd
}

func rank(r int) string {
	if r < 1 {
		return "-"
	}
	return strconv.Itoa(r)
}
