package scraper

import (
	"context"
	"regexp"
	"strings"

	"github.com/pfrederiksen/cs2-cal/internal/logger"
)

var teamLinkPattern = regexp.MustCompile(`href="(/team/(\d+)/[^"]+)"`)

// Fetcher retrieves a page body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// TeamCache remembers resolved team ids between runs.
type TeamCache interface {
	Get(name string) (string, bool)
	Set(name, id string)
}

// Resolver maps team names to HLTV team ids using the site search.
type Resolver struct {
	Fetcher Fetcher
	BaseURL string
	// Cache is optional.
	Cache TeamCache
}

// Resolve looks up the id of the first team linked from the search results
// for name. ok is false when the search page has no team link.
func (r *Resolver) Resolve(ctx context.Context, name string) (id string, ok bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false, nil
	}

	if r.Cache != nil {
		if id, ok := r.Cache.Get(name); ok {
			logger.Debug("Team id from cache", logger.Fields{"team": name, "team_id": id})
			return id, true, nil
		}
	}

	body, err := r.Fetcher.Fetch(ctx, SearchURL(r.baseURL(), name))
	if err != nil {
		return "", false, err
	}

	id, ok = TeamIDFromSearch(body)
	if !ok {
		return "", false, nil
	}
	if r.Cache != nil {
		r.Cache.Set(name, id)
	}
	return id, true, nil
}

func (r *Resolver) baseURL() string {
	if r.BaseURL != "" {
		return r.BaseURL
	}
	return BaseURL
}

// TeamIDFromSearch returns the id in the first team link of a search page.
func TeamIDFromSearch(body string) (string, bool) {
	m := teamLinkPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[2], true
}
