package main

import (
	"context"
	"fmt"

	"github.com/amankumarsingh77/gamerscrawl/pkg/browser"
	"github.com/amankumarsingh77/gamerscrawl/pkg/render"
	"github.com/amankumarsingh77/gamerscrawl/scraper/analytics"
	"github.com/amankumarsingh77/gamerscrawl/storage"
	"github.com/spf13/cobra"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "Render the static site into the docs directory",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		r, err := render.New(a.store, a.cfg.SiteURL)
		if err != nil {
			return err
		}
		st, err := r.Site(ctx)
		if err != nil {
			return err
		}
		printTable(cmd.OutOrStdout(), []string{"pages", "reports", "weekly", "games"},
			[][]string{{itoa(st.Pages), itoa(st.Reports), itoa(st.Weekly), itoa(st.Games)}}, 1, 2, 3, 4)
		return nil
	}),
}

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Screenshot the daily X card into images/x-card-daily.png",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		r, err := render.New(a.store, a.cfg.SiteURL)
		if err != nil {
			return err
		}
		done, err := r.XCard(ctx, browser.New(a.cfg.ChromePath))
		if err != nil {
			return err
		}
		if !done {
			fmt.Fprintln(cmd.OutOrStdout(), "card already up to date")
		}
		return nil
	}),
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload the docs directory to the object store",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		p, err := storage.NewPublisher(a.cfg.ObjectStore)
		if err != nil {
			return err
		}
		n, err := p.PublishDir(ctx, a.store.DocsDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d files uploaded to %s\n", n, a.cfg.ObjectStore.Bucket)
		return nil
	}),
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Save the most viewed game pages to data/popular-games.json",
	RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app) error {
		client, err := analytics.FromConfig(ctx, a.cfg.Analytics, a.http)
		if err != nil {
			return err
		}
		popular, err := analytics.SavePopular(ctx, client, a.store)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(popular.Games))
		for _, g := range popular.Games {
			rows = append(rows, []string{g.Slug, itoa(g.Views)})
		}
		printTable(cmd.OutOrStdout(), []string{"slug", "views"}, rows, 2)
		return nil
	}),
}
