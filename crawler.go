package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// slackAPI is the slice of the Slack client the crawler needs. *slack.Client
// satisfies it; tests provide a fake.
type slackAPI interface {
	GetUsersContext(ctx context.Context, options ...slack.GetUsersOption) ([]slack.User, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetUsersInConversationContext(ctx context.Context, params *slack.GetUsersInConversationParameters) ([]string, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
}

// Crawler walks a workspace's channels and message history and assembles a
// WorkspaceSnapshot. Rate limiting and retries are handled by the Slack
// client; the crawler issues one history call per channel and one replies
// call (plus pagination) per thread.
type Crawler struct {
	client       slackAPI
	historyLimit int
	now          func() time.Time
}

// NewCrawler creates a crawler on top of an authenticated Slack client.
func NewCrawler(client slackAPI, historyLimit int) *Crawler {
	return &Crawler{
		client:       client,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Crawl performs one full crawl of the workspace. A channel whose history
// fetch fails contributes zero rows but stays in the channel directory, so
// metadata-driven listings still see it. Running Crawl again is the refresh
// operation; snapshots are never updated in place.
func (c *Crawler) Crawl(ctx context.Context) (*WorkspaceSnapshot, error) {
	users, err := c.fetchUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl workspace: %w", err)
	}

	channels, err := c.fetchChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("crawl workspace: %w", err)
	}

	snap := &WorkspaceSnapshot{
		Channels:  channels,
		Users:     users,
		CrawledAt: c.now(),
	}

	// Sorted iteration keeps record order stable for a fixed workspace.
	channelIDs := snap.ChannelIDs()
	for _, channelID := range channelIDs {
		records, err := c.channelMessages(ctx, channelID)
		if err != nil {
			log.Error().
				Err(err).
				Str("channelID", channelID).
				Str("channelName", channels[channelID].Name).
				Msg("Failed to fetch channel messages, continuing with zero rows")
			continue
		}
		snap.Records = append(snap.Records, records...)
	}
	sortRecordsByTS(snap.Records)

	log.Info().
		Int("channels", len(snap.Channels)).
		Int("users", len(snap.Users)).
		Int("records", len(snap.Records)).
		Msg("Workspace crawl complete")

	return snap, nil
}

// fetchUsers loads the full user directory, excluding bot accounts.
func (c *Crawler) fetchUsers(ctx context.Context) (map[string]UserMeta, error) {
	log.Debug().Msg("Fetching all users")

	users, err := c.client.GetUsersContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	out := make(map[string]UserMeta, len(users))
	for _, user := range users {
		if user.IsBot {
			log.Trace().Str("userID", user.ID).Str("name", user.Name).Msg("Skipping bot account")
			continue
		}
		out[user.ID] = UserMeta{
			UserID:       user.ID,
			TeamID:       user.TeamID,
			ProfileName:  user.Name,
			FullName:     user.Profile.RealName,
			DisplayName:  user.Profile.DisplayName,
			UserTitle:    user.Profile.Title,
			StatusText:   user.Profile.StatusText,
			StatusEmoji:  user.Profile.StatusEmoji,
			Email:        user.Profile.Email,
			FirstName:    user.Profile.FirstName,
			LastName:     user.Profile.LastName,
			IsAdmin:      user.IsAdmin,
			IsOwner:      user.IsOwner,
			IsRestricted: user.IsRestricted,
			LastUpdated:  humanTime(float64(user.Updated.Time().Unix())),
		}
	}

	log.Info().Int("user_count", len(out)).Msg("Users fetched")
	return out, nil
}

// fetchChannels loads the channel directory, following pagination, and
// resolves each channel's member list.
func (c *Crawler) fetchChannels(ctx context.Context) (map[string]ChannelMeta, error) {
	log.Debug().Msg("Fetching channel list")

	out := make(map[string]ChannelMeta)
	cursor := ""
	for {
		channels, nextCursor, err := c.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Limit:  1000,
			Cursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get conversations: %w", err)
		}

		for _, channel := range channels {
			members, err := c.channelMembers(ctx, channel.ID)
			if err != nil {
				log.Error().
					Err(err).
					Str("channelID", channel.ID).
					Str("channelName", channel.Name).
					Msg("Failed to get channel members")
				members = nil
			}
			out[channel.ID] = ChannelMeta{
				ID:          channel.ID,
				Name:        channel.Name,
				CreatedBy:   channel.Creator,
				CreatedOn:   humanTime(float64(channel.Created.Time().Unix())),
				IsArchived:  channel.IsArchived,
				Topic:       channel.Topic.Value,
				IsOrgShared: channel.IsOrgShared,
				Users:       members,
			}
			log.Debug().
				Str("channelID", channel.ID).
				Str("channelName", channel.Name).
				Int("members", len(members)).
				Msg("Added channel")
		}

		if nextCursor == "" {
			break
		}
		log.Debug().Str("cursor", nextCursor).Msg("Fetching additional conversations")
		cursor = nextCursor
	}

	log.Info().Int("channel_count", len(out)).Msg("Channels loaded")
	return out, nil
}

// channelMembers resolves the member user ids of one channel.
func (c *Crawler) channelMembers(ctx context.Context, channelID string) ([]string, error) {
	var members []string
	cursor := ""
	for {
		page, nextCursor, err := c.client.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get members of %s: %w", channelID, err)
		}
		members = append(members, page...)
		if nextCursor == "" {
			return members, nil
		}
		cursor = nextCursor
	}
}

// channelMessages fetches one channel's history and flattens it into
// records. A message with thread linkage is expanded via the replies call
// and the whole thread (parent included) is normalized as thread replies; a
// plain message becomes a top-level post.
func (c *Crawler) channelMessages(ctx context.Context, channelID string) ([]Record, error) {
	history, err := c.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     c.historyLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get history of %s: %w", channelID, err)
	}

	var records []Record
	for _, msg := range history.Messages {
		if msg.ThreadTimestamp != "" {
			threadRecords, err := c.threadMessages(ctx, channelID, msg.ThreadTimestamp)
			if err != nil {
				return nil, err
			}
			records = append(records, threadRecords...)
			continue
		}

		record, err := normalizeMessage(msg, channelID, true)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	log.Debug().
		Str("channelID", channelID).
		Int("messages", len(history.Messages)).
		Int("records", len(records)).
		Msg("Fetched channel history")

	return records, nil
}

// threadMessages expands one thread, following pagination.
func (c *Crawler) threadMessages(ctx context.Context, channelID, threadTS string) ([]Record, error) {
	var records []Record
	cursor := ""
	for {
		replies, hasMore, nextCursor, err := c.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get thread %s in %s: %w", threadTS, channelID, err)
		}

		for _, reply := range replies {
			record, err := normalizeMessage(reply, channelID, false)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}

		if !hasMore {
			return records, nil
		}
		log.Debug().
			Str("channelID", channelID).
			Str("threadTS", threadTS).
			Str("cursor", nextCursor).
			Msg("Fetching more thread replies")
		cursor = nextCursor
	}
}

// sortRecordsByTS orders the table by ascending timestamp, breaking ties on
// record id. Aggregation is order-insensitive, but a stable table keeps the
// window begin timestamps and ranking tie-breaks deterministic.
func sortRecordsByTS(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].TS != records[j].TS {
			return records[i].TS < records[j].TS
		}
		return records[i].ID < records[j].ID
	})
}
