package main

import (
	"context"
	"fmt"

	"github.com/amankumarsingh77/gamerscrawl/pkg/kst"
	"github.com/amankumarsingh77/gamerscrawl/pkg/registry"
	"github.com/spf13/cobra"
)

var registryFlags struct {
	date  string
	limit int
}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Maintain the game registry (data/games.json)",
}

var registrySyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Register the games of one history snapshot",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		date := registryFlags.date
		if date == "" {
			date = kst.Date(kst.Now())
		}
		stats, err := a.registryService().Sync(ctx, date)
		if err != nil {
			return err
		}
		printSyncStats(cmd, []*registry.SyncStats{stats})
		a.mirrorRegistry(ctx)
		return nil
	}),
}

var registrySyncAllCmd = &cobra.Command{
	Use:   "sync-all",
	Short: "Replay sync over every history snapshot",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		stats, err := a.registryService().SyncAll(ctx)
		printSyncStats(cmd, stats)
		if err != nil {
			return err
		}
		a.mirrorRegistry(ctx)
		return nil
	}),
}

var registryMergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge duplicate entries by app id and Korean store title",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		res, err := a.registryService().MergeDuplicates(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(res.Log))
		for _, l := range res.Log {
			rows = append(rows, []string{l.Type, l.Main, fmt.Sprint(l.Merged)})
		}
		out := cmd.OutOrStdout()
		printTable(out, []string{"type", "main", "merged"}, rows)
		fmt.Fprintf(out, "merged by app id: %d, by kr title: %d, titles fetched: %d, total games: %d\n",
			res.ByAppID, res.ByKrTitle, res.Fetched, res.TotalGames)
		a.mirrorRegistry(ctx)
		return nil
	}),
}

var registryAppIDsCmd = &cobra.Command{
	Use:   "appids",
	Short: "Copy regional app ids and titles from the latest snapshot",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		res, err := a.registryService().SyncAppIDs(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d aliases, %d regional ids added\n", res.Date, res.Aliases, res.Regions)
		a.mirrorRegistry(ctx)
		return nil
	}),
}

var registryReviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Search the opposite store for pending review items",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		st, err := a.registryService().ProcessReviewQueue(ctx, registryFlags.limit)
		if err != nil {
			return err
		}
		printTable(cmd.OutOrStdout(), []string{"processed", "auto merged", "complete", "skipped", "no match", "groups", "deleted", "remaining", "games"},
			[][]string{{itoa(st.Processed), itoa(st.AutoMerged), itoa(st.AlreadyComplete), itoa(st.Skipped), itoa(st.NoMatch),
				itoa(st.MergedGroups), itoa(st.Deleted), itoa(st.Remaining), itoa(st.TotalGames)}},
			1, 2, 3, 4, 5, 6, 7, 8, 9)
		a.mirrorRegistry(ctx)
		return nil
	}),
}

var registryStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show registry coverage",
	RunE: withApp(func(_ context.Context, cmd *cobra.Command, a *app) error {
		st, err := a.registryService().Stats()
		if err != nil {
			return err
		}
		printTable(cmd.OutOrStdout(), []string{"metric", "value"}, [][]string{
			{"games", itoa(st.TotalGames)},
			{"ios", itoa(st.IOS)},
			{"android", itoa(st.Android)},
			{"ios + android", itoa(st.BothMobile)},
			{"steam", itoa(st.Steam)},
			{"regional ids", itoa(st.RegionKeys)},
			{"pending review", itoa(st.Pending)},
			{"last updated", st.LastUpdated},
			{"last merged", st.LastMerged},
		}, 2)
		return nil
	}),
}

func init() {
	registrySyncCmd.Flags().StringVar(&registryFlags.date, "date", "", "history date YYYY-MM-DD (default today in KST)")
	registryReviewCmd.Flags().IntVar(&registryFlags.limit, "limit", 0, "pending items to process (0 = all)")

	registryCmd.AddCommand(registrySyncCmd, registrySyncAllCmd, registryMergeCmd, registryAppIDsCmd, registryReviewCmd, registryStatsCmd)
}

func printSyncStats(cmd *cobra.Command, stats []*registry.SyncStats) {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		if s == nil {
			continue
		}
		rows = append(rows, []string{s.Date, itoa(s.Observed), itoa(s.Existing), itoa(s.Steam), itoa(s.Matched),
			itoa(s.Single), itoa(s.Pending), itoa(s.TotalGames), itoa(s.QueueSize)})
	}
	printTable(cmd.OutOrStdout(), []string{"date", "observed", "existing", "steam", "matched", "single", "pending", "games", "queue"}, rows,
		2, 3, 4, 5, 6, 7, 8, 9)
}
