package main

import (
	"context"
	"time"

	"github.com/amankumarsingh77/gamerscrawl/pkg/crawl"
	"github.com/amankumarsingh77/gamerscrawl/pkg/registry"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var crawlFlags struct {
	syncRegistry bool
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl every source and save data-cache.json and today's history",
	RunE:  withApp(runCrawl),
}

func init() {
	crawlCmd.Flags().BoolVar(&crawlFlags.syncRegistry, "sync-registry", false, "sync the registry with the new snapshot")
}

func runCrawl(ctx context.Context, cmd *cobra.Command, a *app) error {
	res, err := crawl.NewCrawler(a.sources(), a.store, a.crawlMirror()).Run(ctx)
	if err != nil {
		return err
	}

	rows := [][]string{}
	for _, c := range crawl.Counts(res.Snapshot) {
		rows = append(rows, []string{c.Source, itoa(c.Count)})
	}
	printTable(cmd.OutOrStdout(), []string{"source", "items"}, rows, 2)
	log.Printf("Run %s finished in %s", res.RunID, res.Elapsed.Round(time.Second))

	if !crawlFlags.syncRegistry {
		return nil
	}
	stats, err := a.registryService().Sync(ctx, res.Date)
	if err != nil {
		return err
	}
	printSyncStats(cmd, []*registry.SyncStats{stats})
	a.mirrorRegistry(ctx)
	return nil
}
