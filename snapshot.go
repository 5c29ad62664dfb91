package main

import (
	"sort"
	"time"
)

// ChannelMeta is the crawled metadata for one conversation space.
type ChannelMeta struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CreatedBy   string   `json:"created_by"`
	CreatedOn   string   `json:"created_on"`
	IsArchived  bool     `json:"is_archived"`
	Topic       string   `json:"topic"`
	IsOrgShared bool     `json:"is_org_shared"`
	Users       []string `json:"users"`
}

// UserMeta is the crawled metadata for one workspace member. Bot accounts
// are filtered out at crawl time and never appear here.
type UserMeta struct {
	UserID       string `json:"user_id"`
	TeamID       string `json:"team_id"`
	ProfileName  string `json:"profile_name"`
	FullName     string `json:"full_name"`
	DisplayName  string `json:"display_name"`
	UserTitle    string `json:"user_title"`
	StatusText   string `json:"status_text"`
	StatusEmoji  string `json:"status_emoji"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsAdmin      bool   `json:"is_admin"`
	IsOwner      bool   `json:"is_owner"`
	IsRestricted bool   `json:"is_restricted"`
	LastUpdated  string `json:"last_updated"`
}

// WorkspaceSnapshot is the result of one full crawl: the channel and user
// directories plus the flat message table. It is an explicitly owned value,
// handed to the aggregators as-is; a fresh snapshot comes from running the
// crawl again, there is no in-place mutation.
type WorkspaceSnapshot struct {
	Channels  map[string]ChannelMeta `json:"channel_metadata"`
	Users     map[string]UserMeta    `json:"user_metadata"`
	Records   []Record               `json:"-"`
	CrawledAt time.Time              `json:"crawled_at"`
}

// ChannelIDs returns all channel ids from the directory in ascending order.
func (s *WorkspaceSnapshot) ChannelIDs() []string {
	ids := make([]string, 0, len(s.Channels))
	for id := range s.Channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// recordsByChannel partitions the message table by channel id.
func (s *WorkspaceSnapshot) recordsByChannel() map[string][]Record {
	groups := make(map[string][]Record)
	for _, r := range s.Records {
		groups[r.Channel] = append(groups[r.Channel], r)
	}
	return groups
}

// recordsBySender partitions the message table by sending user id.
func (s *WorkspaceSnapshot) recordsBySender() map[string][]Record {
	groups := make(map[string][]Record)
	for _, r := range s.Records {
		groups[r.SentBy] = append(groups[r.SentBy], r)
	}
	return groups
}
