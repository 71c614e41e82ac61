package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"source", "items"}, [][]string{{"steam most played", "100"}, {"chzzk"}}, 2)
	out := buf.String()
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "steam most played")
	assert.Contains(t, out, "100")
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"crawl", "insight", "card", "registry", "pages", "publish", "analytics"} {
		assert.True(t, names[want], want)
	}

	sub, _, err := rootCmd.Find([]string{"registry", "sync-all"})
	assert.NoError(t, err)
	assert.Equal(t, "sync-all", sub.Name())
	assert.NotNil(t, insightWeeklyCmd.Flags().Lookup("force"))

	sub, _, err = rootCmd.Find([]string{"insight", "thumbnails"})
	assert.NoError(t, err)
	for _, flag := range []string{"apply", "aggressive", "strict-only"} {
		assert.NotNil(t, sub.Flags().Lookup(flag), flag)
	}
}
