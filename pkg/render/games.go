package render

import (
	"context"
	"sort"

	"github.com/amankumarsingh77/gamerscrawl/db/models"
)

// titleLinks maps every name and alias to the slug of its game page.
func titleLinks(reg *models.Registry, slugs map[string]string) map[string]string {
	links := make(map[string]string, len(slugs))
	for name, slug := range slugs {
		links[name] = slug
		for _, a := range reg.Games[name].Aliases {
			if _, ok := links[a]; !ok {
				links[a] = slug
			}
		}
	}
	return links
}

type gameEntry struct {
	Name  string
	Slug  string
	Icon  string
	Views int
}

type gameView struct {
	*models.Game
	History GameHistory
}

// hubOrder sorts by views, most viewed first, then by name.
func hubOrder(entries []gameEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Views != entries[j].Views {
			return entries[i].Views > entries[j].Views
		}
		return entries[i].Name < entries[j].Name
	})
}

// Games writes games/<slug>/index.html for every slugged registry game and
// the games/index.html hub. It returns the number of game pages.
func (r *Renderer) Games(ctx context.Context, reg *models.Registry, slugs map[string]string, popular *models.PopularGames, hist *History) (int, error) {
	views := make(map[string]int, len(popular.Games))
	for _, p := range popular.Games {
		views[p.Slug] += p.Views
	}

	entries := make([]gameEntry, 0, len(slugs))
	for _, name := range sortedNames(reg) {
		slug, ok := slugs[name]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		g := reg.Games[name]
		view := gameView{Game: g, History: hist.For(name, g)}
		if err := r.write("game.html", "games/"+slug+"/index.html", name, view); err != nil {
			return 0, err
		}
		entries = append(entries, gameEntry{Name: name, Slug: slug, Icon: g.Icon, Views: views[slug]})
	}
	hubOrder(entries)
	if err := r.write("games.html", "games/index.html", "게임", entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}
