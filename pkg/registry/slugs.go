package registry

import (
	"fmt"
	"strings"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
	log "github.com/sirupsen/logrus"
)

// AssignSlugs returns a unique page slug per registry name. Stored slugs win;
// colliding slugs get a numeric suffix and names without one are left out.
func AssignSlugs(reg *models.Registry) map[string]string {
	slugs := make(map[string]string, len(reg.Games))
	used := make(map[string]bool, len(reg.Games))
	for _, name := range sortedNames(reg) {
		g := reg.Games[name]
		base := g.Slug
		if base == "" {
			base = GenerateSlug(name, g.Aliases)
		}
		if base == "" {
			log.Debugf("no slug for %q", name)
			continue
		}
		slug := base
		for i := 2; used[slug]; i++ {
			slug = fmt.Sprintf("%s-%d", base, i)
		}
		used[slug] = true
		slugs[name] = slug
	}
	return slugs
}

// SearchKeys returns the NormalizeName form of name and every alias.
func SearchKeys(name string, g *models.Game) []string {
	keys := make([]string, 0, len(g.Aliases)+1)
	keys = append(keys, NormalizeName(name))
	for _, a := range g.Aliases {
		keys = append(keys, NormalizeName(a))
	}
	return keys
}

// MatchesQuery reports whether the normalized query q occurs in any key.
// An empty q matches nothing.
func MatchesQuery(q string, keys []string) bool {
	if q == "" {
		return false
	}
	for _, k := range keys {
		if strings.Contains(k, q) {
			return true
		}
	}
	return false
}
