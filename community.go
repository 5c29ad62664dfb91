package main

import (
	"sort"
	"time"
)

// ActivitySummary is the engagement counters of a record set summed over one
// time window.
type ActivitySummary struct {
	TotalActivity int    `json:"total_activity"`
	NumReplies    int    `json:"num_replies"`
	NumFiles      int    `json:"num_files"`
	NumReactions  int    `json:"num_reactions"`
	Duration      string `json:"duration"`
}

// UserPostCount is one entry of a per-channel contributor ranking.
type UserPostCount struct {
	UserID string `json:"user_id"`
	Posts  int    `json:"posts"`
}

// TopChannelUsers ranks the users of one channel by message count.
type TopChannelUsers struct {
	Users []UserPostCount `json:"users"`
	TopN  int             `json:"top_n"`
}

// TrendingPost is one record ranked by its reactions + replies score.
type TrendingPost struct {
	RecordID string `json:"id"`
	Score    int    `json:"score"`
}

// TrendingPosts is the per-channel trending ranking.
type TrendingPosts struct {
	Posts []TrendingPost `json:"posts"`
	TopN  int            `json:"top_n"`
}

// ChannelMetrics is the full set of aggregates for one channel.
type ChannelMetrics struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Users         []string        `json:"users"`
	TopUsers      TopChannelUsers `json:"top_users_in_channel"`
	NewActivity   ActivitySummary `json:"new_activity"`
	TotalActivity ActivitySummary `json:"total_activity"`
	Trending      TrendingPosts   `json:"trending_posts"`
}

// TopChannelEntry is one entry of the cross-channel ranking.
type TopChannelEntry struct {
	ChannelID   string          `json:"channel_id"`
	ChannelName string          `json:"channel_name"`
	Activity    ActivitySummary `json:"total_activity"`
}

// TopChannels ranks channels by lifetime total activity.
type TopChannels struct {
	Channels   []TopChannelEntry `json:"channels"`
	ByDuration string            `json:"by_duration"`
	TopN       int               `json:"top_n"`
}

// AllChannels is the workspace-wide channel summary.
type AllChannels struct {
	NumChannels int      `json:"num_channels"`
	Channels    []string `json:"channels"`
}

// CommunityMetrics is the channel-side output structure.
type CommunityMetrics struct {
	ChannelMetrics map[string]ChannelMetrics `json:"channel_metrics"`
	TopNChannel    TopChannels               `json:"top_n_channel"`
	AllChannel     AllChannels               `json:"all_channel"`
}

// Analyzer computes descriptive engagement metrics over a workspace
// snapshot. All computation is pure and in-memory; an analyzer can be reused
// across snapshots.
type Analyzer struct {
	topN              int
	defaultDuration   string
	newActivityWindow string
	recentWindow      string
	binPeriod         string
	now               func() time.Time
}

// NewAnalyzer creates an analyzer from the configured windows and ranking
// sizes.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{
		topN:              cfg.TopN,
		defaultDuration:   cfg.DefaultDuration,
		newActivityWindow: cfg.NewActivityWindow,
		recentWindow:      cfg.RecentActivityWindow,
		binPeriod:         cfg.ActivityBinPeriod,
		now:               time.Now,
	}
}

// CommunityMetrics computes the per-channel and cross-channel aggregates.
// Channels are driven by the snapshot's channel directory, so a channel that
// contributed zero rows still gets zero-valued aggregates rather than a
// missing key. A channel that appears only in the table (no metadata) is
// kept too, with empty name and member list.
func (a *Analyzer) CommunityMetrics(snap *WorkspaceSnapshot) CommunityMetrics {
	groups := snap.recordsByChannel()

	channelIDs := snap.ChannelIDs()
	for id := range groups {
		if _, ok := snap.Channels[id]; !ok {
			channelIDs = append(channelIDs, id)
		}
	}
	sort.Strings(channelIDs)

	channelMetrics := make(map[string]ChannelMetrics, len(channelIDs))
	for _, channelID := range channelIDs {
		meta := snap.Channels[channelID]
		records := groups[channelID]
		channelMetrics[channelID] = ChannelMetrics{
			ID:            channelID,
			Name:          meta.Name,
			Users:         meta.Users,
			TopUsers:      a.topUsersInChannel(records),
			NewActivity:   a.activityInDuration(records, a.newActivityWindow),
			TotalActivity: a.activityInDuration(records, "all"),
			Trending:      a.trendingPosts(records),
		}
	}

	return CommunityMetrics{
		ChannelMetrics: channelMetrics,
		TopNChannel:    a.topNChannels(channelMetrics),
		AllChannel: AllChannels{
			NumChannels: len(snap.Channels),
			Channels:    snap.ChannelIDs(),
		},
	}
}

// activityInDuration sums the engagement counters of records inside the
// given window. The "all" duration makes the window unbounded.
func (a *Analyzer) activityInDuration(records []Record, duration string) ActivitySummary {
	window := durationToSeconds(duration, a.defaultDuration, a.now)
	sum := ActivitySummary{Duration: duration}
	for _, r := range recordsSince(records, window, a.now) {
		sum.TotalActivity += r.TotalActivity
		sum.NumReplies += r.ReplyCount
		sum.NumFiles += r.NumFiles
		sum.NumReactions += r.Reactions
	}
	return sum
}

// topUsersInChannel ranks the channel's users by message count, descending.
// Ties break on ascending user id.
func (a *Analyzer) topUsersInChannel(records []Record) TopChannelUsers {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.SentBy]++
	}

	users := make([]UserPostCount, 0, len(counts))
	for userID, n := range counts {
		users = append(users, UserPostCount{UserID: userID, Posts: n})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Posts != users[j].Posts {
			return users[i].Posts > users[j].Posts
		}
		return users[i].UserID < users[j].UserID
	})

	if len(users) > a.topN {
		users = users[:a.topN]
	}
	return TopChannelUsers{Users: users, TopN: len(users)}
}

// trendingPosts ranks records by reactions + reply count, descending. Ties
// break on descending timestamp (newer first), then ascending record id.
func (a *Analyzer) trendingPosts(records []Record) TrendingPosts {
	type scored struct {
		record Record
		score  int
	}
	ranked := make([]scored, 0, len(records))
	for _, r := range records {
		ranked = append(ranked, scored{record: r, score: r.Reactions + r.ReplyCount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].record.TS != ranked[j].record.TS {
			return ranked[i].record.TS > ranked[j].record.TS
		}
		return ranked[i].record.ID < ranked[j].record.ID
	})

	if len(ranked) > a.topN {
		ranked = ranked[:a.topN]
	}
	posts := make([]TrendingPost, 0, len(ranked))
	for _, s := range ranked {
		posts = append(posts, TrendingPost{RecordID: s.record.ID, Score: s.score})
	}
	return TrendingPosts{Posts: posts, TopN: len(posts)}
}

// topNChannels ranks all channels by lifetime total activity, descending.
// Ties break on ascending channel id.
func (a *Analyzer) topNChannels(channelMetrics map[string]ChannelMetrics) TopChannels {
	entries := make([]TopChannelEntry, 0, len(channelMetrics))
	for _, cm := range channelMetrics {
		entries = append(entries, TopChannelEntry{
			ChannelID:   cm.ID,
			ChannelName: cm.Name,
			Activity:    cm.TotalActivity,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Activity.TotalActivity != entries[j].Activity.TotalActivity {
			return entries[i].Activity.TotalActivity > entries[j].Activity.TotalActivity
		}
		return entries[i].ChannelID < entries[j].ChannelID
	})

	if len(entries) > a.topN {
		entries = entries[:a.topN]
	}
	return TopChannels{Channels: entries, ByDuration: "total_activity", TopN: len(entries)}
}
