package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Womackv3/osrs-checklist-app-sub000/internal/config"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/journal"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/model"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/service"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/views"
)

func SignInCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signin <user-id>",
		Short: "Sync goals with the remote store as user-id",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			userID := strings.TrimSpace(args[0])

			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.engine.SignIn(c.Context(), userID)
			if err != nil {
				return err
			}
			if err := s.kv.Set(c.Context(), identityKey, []byte(userID)); err != nil {
				return fmt.Errorf("failed to remember identity: %w", err)
			}
			fmt.Fprintf(c.OutOrStdout(), "Signed in as %s: %d goals from %s\n", userID, len(result.Goals), result.Source)
			return nil
		},
	}
}

func SignOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Stop syncing and use the local goal list",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			s, err := openSession(c.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.kv.Delete(c.Context(), identityKey); err != nil {
				return err
			}
			result := s.engine.SignOut(c.Context())
			fmt.Fprintf(c.OutOrStdout(), "Signed out: %d local goals\n", len(result.Goals))
			return nil
		},
	}
}

func WatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the journal whenever the remote goal list changes",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if s.engine.UserID() == "" {
				return fmt.Errorf("%w: run journal signin <user-id> first", journal.ErrNoIdentity)
			}

			out := c.OutOrStdout()
			printGroups := func(ctx context.Context, goals []*model.Goal) {
				fmt.Fprintf(out, "--- %d goals\n", len(goals))
				for _, g := range views.GroupByCategory(goals) {
					for _, goal := range g.Goals {
						fmt.Fprintf(out, "%s %-8s %s\n", check(goal.Completed), g.Category, goal.Title)
					}
				}
			}
			remove := s.engine.AddListener(journal.ListenerFunc(printGroups))
			defer remove()

			printGroups(ctx, s.engine.Goals())
			<-ctx.Done()
			return nil
		},
	}
}

func TokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for the goals API",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg := config.Load()
			auth := service.NewAuthService(cfg.Secret(), cfg.JWTExpiry)
			token, err := auth.GenerateJWT(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), token)
			return nil
		},
	}
}
