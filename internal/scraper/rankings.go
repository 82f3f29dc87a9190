package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
)

const (
	rowSelector        = "#competition-rank-table tbody tr"
	testsTakenSelector = "td.tests_taken"
)

var (
	leadingIntPattern   = regexp.MustCompile(`^[+-]?\d+`)
	leadingFloatPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
	// First run of digits and dots, e.g. "12345" in "12345 keystrokes"
	numberRunPattern = regexp.MustCompile(`[0-9.]+`)
)

// ParseRankings extracts one competitor per qualifying row of the ranking table.
// Rows without a tests-taken cell are skipped. Each column is coerced on its own,
// so an unparseable cell leaves only that field nil.
func ParseRankings(r io.Reader) ([]*competitor.Competitor, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	rows := doc.Find(rowSelector).Has(testsTakenSelector)
	records := make([]*competitor.Competitor, rows.Length())

	rows.Each(func(i int, row *goquery.Selection) {
		rec := &competitor.Competitor{}

		rec.Rank = parseLeadingInt(cellText(row.Find("td.rank span")))

		if link := row.Find("td.username a").First(); link.Length() > 0 {
			rec.Username = strings.TrimSpace(link.Text())
			rec.ProfileURL, _ = link.Attr("href")
		}

		rec.WPM = parseLeadingFloat(cellText(row.Find("td.wpm")))
		rec.Keystrokes = parseKeystrokes(cellText(row.Find("td.keystrokes")))
		rec.TestsTaken = parseLeadingFloat(cellText(row.Find(testsTakenSelector)))

		records[i] = rec
	})

	return records, nil
}

// cellText returns the trimmed text of the first matched element
func cellText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.First().Text())
}

func parseLeadingInt(text string) *int {
	match := leadingIntPattern.FindString(text)
	if match == "" {
		return nil
	}
	v, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &v
}

func parseLeadingFloat(text string) *float64 {
	match := leadingFloatPattern.FindString(text)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseKeystrokes pulls the count out of free text such as "12,345 keystrokes"
func parseKeystrokes(text string) *float64 {
	text = strings.ReplaceAll(text, ",", "")
	match := numberRunPattern.FindString(text)
	// Only the first decimal point counts: "1.2.3" reads as 1.2
	if first := strings.IndexByte(match, '.'); first >= 0 {
		if second := strings.IndexByte(match[first+1:], '.'); second >= 0 {
			match = match[:first+1+second]
		}
	}
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}
