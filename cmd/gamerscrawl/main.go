package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootFlags struct {
	config string
}

var rootCmd = &cobra.Command{
	Use:   "gamerscrawl",
	Short: "Game industry rankings, news and insight crawler",
	Long:  "gamerscrawl collects mobile, Steam and media rankings, keeps the game registry\nin sync and renders the daily dashboard and insight pages.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.config, "config", "", "YAML config file (default $GAMERSCRAWL_CONFIG)")

	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(insightCmd)
	rootCmd.AddCommand(cardCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(analyticsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
