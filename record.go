package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
)

// Record is one flattened row of the crawled message table. A record is
// either a top-level post or a thread reply; both share the same schema.
// Every optional source field has a documented default (empty string for
// text-like fields, zero for counters, empty slice for collections).
type Record struct {
	ID            string   `json:"id"`
	ClientMsgID   string   `json:"client_msg_id"`
	Channel       string   `json:"channel"`
	SentBy        string   `json:"sent_by"`
	TS            float64  `json:"ts"`
	SentOn        string   `json:"sent_on"`
	Text          string   `json:"text"`
	ThreadTS      string   `json:"thread_ts"`
	ParentUserID  string   `json:"parent_user_id"`
	Team          string   `json:"team"`
	LatestReplyTS string   `json:"latest_reply_ts"`
	Attachments   int      `json:"attachments"`
	Files         []string `json:"files"`
	NumFiles      int      `json:"num_files"`
	ReplyCount    int      `json:"reply_count"`
	Reactions     int      `json:"reactions"`
	IsPost        bool     `json:"is_post"`

	// IsEngagingPost is set when the message carries thread linkage or
	// attachment data. It is currently not consumed by any aggregate but is
	// kept on the record for downstream consumers of the raw table.
	IsEngagingPost bool `json:"is_engaging_post"`

	// TotalActivity is computed once at normalization time as
	// attachments + reply_count + reactions and never mutated afterwards.
	TotalActivity int `json:"total_activity"`
}

// normalizeMessage converts one raw Slack message into a Record. The record
// ID is generated here rather than taken from the platform. isPost marks the
// record as a top-level post as opposed to a thread reply.
func normalizeMessage(msg slack.Message, channelID string, isPost bool) (Record, error) {
	ts, err := parseSlackTimestamp(msg.Timestamp)
	if err != nil {
		return Record{}, fmt.Errorf("normalize message in %s: %w", channelID, err)
	}

	fileIDs := make([]string, 0, len(msg.Files))
	for _, f := range msg.Files {
		fileIDs = append(fileIDs, f.ID)
	}

	r := Record{
		ID:            uuid.NewString(),
		ClientMsgID:   msg.ClientMsgID,
		Channel:       channelID,
		SentBy:        msg.User,
		TS:            ts,
		SentOn:        humanTime(ts),
		Text:          msg.Text,
		ThreadTS:      msg.ThreadTimestamp,
		ParentUserID:  msg.ParentUserId,
		Team:          msg.Team,
		LatestReplyTS: msg.LatestReply,
		Attachments:   len(msg.Attachments),
		Files:         fileIDs,
		NumFiles:      len(msg.Files),
		ReplyCount:    msg.ReplyCount,
		Reactions:     len(msg.Reactions),
		IsPost:        isPost,
	}

	// Engaging means either signal is present, regardless of magnitude.
	r.IsEngagingPost = msg.ThreadTimestamp != "" || len(msg.Attachments) > 0

	r.TotalActivity = r.Attachments + r.ReplyCount + r.Reactions

	return r, nil
}

// parseSlackTimestamp parses Slack's "1629552526.007700" style timestamp
// into epoch seconds. The timestamp is the one required field of a message;
// a missing or malformed value is an error.
func parseSlackTimestamp(ts string) (float64, error) {
	if ts == "" {
		return 0, fmt.Errorf("message has no timestamp")
	}
	v, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid message timestamp %q: %w", ts, err)
	}
	return v, nil
}

// humanTime renders epoch seconds in the same display format the rest of the
// metadata uses.
func humanTime(epoch float64) string {
	return time.Unix(int64(epoch), 0).Format("02/01/2006, 15:04:05")
}
