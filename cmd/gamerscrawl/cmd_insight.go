package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/amankumarsingh77/gamerscrawl/pkg/insight"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var insightFlags struct {
	force  bool
	thumbs insight.ThumbnailOptions
}

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Build the daily report, the AI insight or the weekly recap",
}

var insightDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Compare today's cache with yesterday and save reports/<date>.json",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		svc, err := a.insightService(ctx, false)
		if err != nil {
			return err
		}
		r, err := svc.Daily(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (yesterday data: %t)\n", r.Date, r.HasYesterdayData)
		for _, line := range r.Summary {
			fmt.Fprintf(out, "  %s\n", line)
		}
		return nil
	}),
}

var insightAICmd = &cobra.Command{
	Use:   "ai",
	Short: "Write the AI insight for today",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		svc, err := a.insightService(ctx, true)
		if err != nil {
			return err
		}
		r, err := svc.AI(ctx)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(r.AI.Issues))
		for _, c := range r.AI.Issues {
			rows = append(rows, []string{c.Tag, c.Title})
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, r.AI.Headline)
		printTable(out, []string{"tag", "issue"}, rows)
		return nil
	}),
}

var insightWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Write the recap of last week",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		svc, err := a.insightService(ctx, true)
		if err != nil {
			return err
		}
		w, err := svc.Weekly(ctx, insightFlags.force)
		if errors.Is(err, insight.ErrWeeklyExists) {
			log.Printf("%v, use --force to rewrite it", err)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s ~ %s: %s (%d daily reports)\n",
			w.WeekInfo.StartDate, w.WeekInfo.EndDate, w.AI.Headline, w.DailyReportCount)
		return nil
	}),
}

var insightThumbnailsCmd = &cobra.Command{
	Use:   "thumbnails",
	Short: "Match AI insight thumbnails against crawled news images",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		svc, err := a.insightService(ctx, false)
		if err != nil {
			return err
		}
		res, err := svc.RepairThumbnails(ctx, insightFlags.thumbs)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(res.Changes))
		for _, c := range res.Changes {
			kind := "loose"
			if c.Strict {
				kind = "strict"
			}
			rows = append(rows, []string{c.Report, c.Path, c.Title, kind, c.New})
		}
		out := cmd.OutOrStdout()
		printTable(out, []string{"report", "field", "title", "match", "thumbnail"}, rows)
		fmt.Fprintf(out, "%d reports scanned, %d changes, %d files written, %d errors\n",
			res.Scanned, len(res.Changes), res.Updated, res.Errors)
		if !insightFlags.thumbs.Apply && len(res.Changes) > 0 {
			fmt.Fprintln(out, "dry run, use --apply to write the changes")
		}
		return nil
	}),
}

func init() {
	insightWeeklyCmd.Flags().BoolVar(&insightFlags.force, "force", false, "rewrite an existing weekly report")
	f := insightThumbnailsCmd.Flags()
	f.BoolVar(&insightFlags.thumbs.Apply, "apply", false, "write the changed reports")
	f.BoolVar(&insightFlags.thumbs.Aggressive, "aggressive", false, "also replace news thumbnails on loose matches")
	f.BoolVar(&insightFlags.thumbs.StrictOnly, "strict-only", false, "ignore loose matches")
	insightCmd.AddCommand(insightDailyCmd, insightAICmd, insightWeeklyCmd, insightThumbnailsCmd)
}
