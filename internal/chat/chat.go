package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pfrederiksen/fastfingers-bot/internal/competitor"
	"github.com/slack-go/slack"
)

const membersPageSize = 200

var competitionLinkPattern = regexp.MustCompile(`(?i)/10fastfingers\.com/competition/`)

// Announcement is an earlier message that shared a competition link
type Announcement struct {
	Link      string
	Channel   string
	Permalink string
	PostedAt  time.Time
}

// Client represents a Slack client bound to a set of channels
type Client struct {
	api        *slack.Client
	channelIDs []string
	username   string
}

// NewClient creates a new Slack client. Extra options are passed to slack.New.
func NewClient(token string, channelIDs []string, username string, opts ...slack.Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("slack token is required")
	}
	if len(channelIDs) == 0 {
		return nil, errors.New("at least one channel ID is required")
	}

	return &Client{
		api:        slack.New(token, opts...),
		channelIDs: channelIDs,
		username:   username,
	}, nil
}

// Query returns the search query used to find earlier announcements
func (c *Client) Query() string {
	return fmt.Sprintf("in:%s has:link 10fastfingers competition", strings.Join(c.channelIDs, ","))
}

// LastAnnouncement returns the newest message carrying a competition link
// attachment, or nil when there is none
func (c *Client) LastAnnouncement(ctx context.Context) (*Announcement, error) {
	params := slack.NewSearchParameters()
	params.Sort = "timestamp"
	params.SortDirection = "desc"

	res, err := c.api.SearchMessagesContext(ctx, c.Query(), params)
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	for _, match := range res.Matches {
		for _, att := range match.Attachments {
			if !competitionLinkPattern.MatchString(att.FromURL) {
				continue
			}

			postedAt, err := ParseTimestamp(match.Timestamp)
			if err != nil {
				return nil, err
			}

			return &Announcement{
				Link:      att.FromURL,
				Channel:   match.Channel.ID,
				Permalink: match.Permalink,
				PostedAt:  postedAt,
			}, nil
		}
	}

	return nil, nil
}

// Members lists the members of every configured channel with their real names.
// Members of several channels are returned once, in first-seen order.
func (c *Client) Members(ctx context.Context) ([]competitor.Member, error) {
	seen := make(map[string]bool)
	members := make([]competitor.Member, 0)

	for _, channelID := range c.channelIDs {
		ids, err := c.channelMemberIDs(ctx, channelID)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true

			user, err := c.api.GetUserInfoContext(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("getting user %s: %w", id, err)
			}

			name := user.RealName
			if name == "" {
				name = user.Profile.RealName
			}
			members = append(members, competitor.Member{ID: user.ID, DisplayName: name})
		}
	}

	return members, nil
}

func (c *Client) channelMemberIDs(ctx context.Context, channelID string) ([]string, error) {
	var ids []string
	cursor := ""
	for {
		page, next, err := c.api.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     membersPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("listing members of %s: %w", channelID, err)
		}
		ids = append(ids, page...)

		if next == "" {
			return ids, nil
		}
		cursor = next
	}
}

// Notify posts text to every configured channel with link unfurling enabled
func (c *Client) Notify(ctx context.Context, text string) error {
	if text == "" {
		return errors.New("message text is required")
	}

	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionEnableLinkUnfurl(),
	}
	if c.username != "" {
		opts = append(opts, slack.MsgOptionUsername(c.username))
	}

	for _, channelID := range c.channelIDs {
		if _, _, err := c.api.PostMessageContext(ctx, channelID, opts...); err != nil {
			return fmt.Errorf("posting to %s: %w", channelID, err)
		}
	}

	return nil
}

// ParseTimestamp converts a Slack message ts ("1697040000.000100") to a time
func ParseTimestamp(ts string) (time.Time, error) {
	secs, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing message timestamp %q: %w", ts, err)
	}
	whole := int64(secs)
	return time.Unix(whole, int64((secs-float64(whole))*float64(time.Second))).UTC(), nil
}
