package announce

import (
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
)

// Results formats the summary of the last tournament, one line per competitor
// in the order given. Competitors are never dropped: an unmatched competitor is
// shown by username and missing numbers render as competitor.Absent.
func Results(day time.Weekday, records []*competitor.Competitor) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("Happy %s! Here are the results for the last tournament:", day))

	for _, rec := range records {
		msg.WriteString(fmt.Sprintf("\n#%s: *%s* %sWPM", rec.RankText(), Identity(rec), rec.WPMText()))
	}

	return msg.String()
}

// Identity returns a mention for matched competitors, the raw username otherwise
func Identity(rec *competitor.Competitor) string {
	if rec.Matched() {
		return fmt.Sprintf("<@%s>", rec.DirectoryID)
	}
	return rec.Username
}

// NewTournament formats the invitation to the freshly created tournament
func NewTournament(link string) string {
	return fmt.Sprintf("A new tournament is up at <%s>!", link)
}

// Disregard is posted ahead of a forced rerun on a day that already had one
func Disregard() string {
	return "Please disregard the following messages!"
}
