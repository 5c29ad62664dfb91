package main

import "fmt"

// WindowCount is a single counter evaluated over one window.
type WindowCount struct {
	NumPosts int    `json:"num_posts"`
	Duration string `json:"duration"`
}

// DistinctChannels counts the channels a user posted in.
type DistinctChannels struct {
	DistinctChannels int `json:"distinct_channels"`
}

// RecentActivity is the user's total activity over the recent window.
// HasData distinguishes "no records in the window" from a window whose
// records happen to carry zero engagement; the former is a deliberate no-data
// marker, not a numeric zero.
type RecentActivity struct {
	HasData       bool    `json:"has_data"`
	BeginTS       float64 `json:"begin_ts,omitempty"`
	TotalActivity int     `json:"total_activity"`
	WindowSeconds float64 `json:"window_seconds"`
	Duration      string  `json:"duration,omitempty"`
}

// ActivityBin is one time bin of a user's activity history. ChangeRate is
// the difference against the previous non-empty bin.
type ActivityBin struct {
	Period        string  `json:"time_period"`
	HasData       bool    `json:"has_data"`
	TotalActivity int     `json:"total_activity"`
	ChangeRate    int     `json:"activity_change_rate"`
	StartTS       float64 `json:"start_ts,omitempty"`
}

// UserMetrics is the full set of aggregates for one user.
type UserMetrics struct {
	Name              string           `json:"name"`
	PostsMade         WindowCount      `json:"post_user_made"`
	ReactionsReceived WindowCount      `json:"reactions_user_get"`
	RepliesReceived   WindowCount      `json:"replies_user_get"`
	ChannelsCount     DistinctChannels `json:"user_channels_count"`
	RecentActivity    RecentActivity   `json:"user_total_activity"`
	ActivityHistory   []ActivityBin    `json:"activity_history"`
}

// UserMetricsReport is the user-side output structure.
type UserMetricsReport struct {
	Metrics map[string]UserMetrics `json:"metrics"`
}

// UserMetrics computes per-user aggregates. Grouping is driven by the
// message table: every user that appears in the table gets exactly one
// entry, and a user present only in the directory gets none. Display names
// are joined from the directory when available.
func (a *Analyzer) UserMetrics(snap *WorkspaceSnapshot) (UserMetricsReport, error) {
	groups := snap.recordsBySender()

	metrics := make(map[string]UserMetrics, len(groups))
	for userID, records := range groups {
		history, err := a.userActivityBins(records, a.binPeriod)
		if err != nil {
			return UserMetricsReport{}, fmt.Errorf("user %s activity history: %w", userID, err)
		}
		metrics[userID] = UserMetrics{
			Name:              snap.Users[userID].FullName,
			PostsMade:         a.postsInDuration(records, "all"),
			ReactionsReceived: a.reactionsInDuration(records, "all"),
			RepliesReceived:   a.repliesInDuration(records, "all"),
			ChannelsCount:     distinctChannels(records),
			RecentActivity:    a.recentActivity(records, a.recentWindow),
			ActivityHistory:   history,
		}
	}

	return UserMetricsReport{Metrics: metrics}, nil
}

// postsInDuration counts the user's records inside the window.
func (a *Analyzer) postsInDuration(records []Record, duration string) WindowCount {
	window := durationToSeconds(duration, a.defaultDuration, a.now)
	return WindowCount{
		NumPosts: len(recordsSince(records, window, a.now)),
		Duration: duration,
	}
}

// reactionsInDuration sums the reactions the user's records received inside
// the window.
func (a *Analyzer) reactionsInDuration(records []Record, duration string) WindowCount {
	window := durationToSeconds(duration, a.defaultDuration, a.now)
	sum := 0
	for _, r := range recordsSince(records, window, a.now) {
		sum += r.Reactions
	}
	return WindowCount{NumPosts: sum, Duration: duration}
}

// repliesInDuration sums replies plus reactions received inside the window.
// This is a combined engagement score, not a pure reply count; downstream
// consumers depend on the combined value.
func (a *Analyzer) repliesInDuration(records []Record, duration string) WindowCount {
	window := durationToSeconds(duration, a.defaultDuration, a.now)
	sum := 0
	for _, r := range recordsSince(records, window, a.now) {
		sum += r.ReplyCount + r.Reactions
	}
	return WindowCount{NumPosts: sum, Duration: duration}
}

// distinctChannels counts the unique channel ids across the records.
func distinctChannels(records []Record) DistinctChannels {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Channel] = struct{}{}
	}
	return DistinctChannels{DistinctChannels: len(seen)}
}

// recentActivity sums total activity over the recent window. An empty
// window yields the no-data marker with the window size attached.
func (a *Analyzer) recentActivity(records []Record, duration string) RecentActivity {
	window := durationToSeconds(duration, a.defaultDuration, a.now)
	recent := recordsSince(records, window, a.now)
	if len(recent) == 0 {
		return RecentActivity{WindowSeconds: window}
	}

	out := RecentActivity{
		HasData:       true,
		BeginTS:       recent[0].TS,
		WindowSeconds: window,
		Duration:      duration,
	}
	for _, r := range recent {
		out.TotalActivity += r.TotalActivity
		if r.TS < out.BeginTS {
			out.BeginTS = r.TS
		}
	}
	return out
}

// userActivityBins partitions the user's records into fixed-width time bins
// and sums total activity per bin, with a change rate against the previous
// non-empty bin. No records means no history.
func (a *Analyzer) userActivityBins(records []Record, period string) ([]ActivityBin, error) {
	bins, err := timeBins(records, period, a.now)
	if err != nil {
		return nil, err
	}

	out := make([]ActivityBin, 0, len(bins))
	previous := 0
	for _, bin := range bins {
		if len(bin.Records) == 0 {
			out = append(out, ActivityBin{Period: bin.Label})
			continue
		}
		activity := 0
		start := bin.Records[0].TS
		for _, r := range bin.Records {
			activity += r.TotalActivity
			if r.TS < start {
				start = r.TS
			}
		}
		out = append(out, ActivityBin{
			Period:        bin.Label,
			HasData:       true,
			TotalActivity: activity,
			ChangeRate:    activity - previous,
			StartTS:       start,
		})
		previous = activity
	}
	return out, nil
}
