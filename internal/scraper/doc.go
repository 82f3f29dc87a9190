// Package scraper fetches and parses 10fastfingers competition rankings.
//
// The ranking endpoint is an XHR form POST keyed by the competition hash taken
// from the share link. ParseRankings turns the returned markup into ordered
// competitor records; a single malformed cell only blanks that field and never
// fails the parse.
package scraper
