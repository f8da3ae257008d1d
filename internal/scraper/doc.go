// Package scraper fetches HLTV pages over HTTP.
//
// Every request carries the same browser-like header profile and is retried
// with a linear backoff when the transport fails or the site answers with a
// non-2xx status. The package also resolves team names to HLTV team ids
// through the site search and builds the listing URLs for a team.
package scraper
