package main

import (
	"testing"
)

func TestUserMetricsCompleteness(t *testing.T) {
	now := fixedNow(testEpoch)
	snap := snapshotWith([]string{"C1", "C2"},
		rec("r1", "C1", "U01", testEpoch-100, 1, 0, 0),
		rec("r2", "C1", "U02", testEpoch-200, 0, 0, 0),
		rec("r3", "C2", "U01", testEpoch-300, 0, 2, 0),
	)
	snap.Users["U01"] = UserMeta{UserID: "U01", FullName: "Alice Example"}
	snap.Users["U02"] = UserMeta{UserID: "U02", FullName: "Bob Example"}
	// U03 exists in the directory but never posted.
	snap.Users["U03"] = UserMeta{UserID: "U03", FullName: "Carol Example"}

	out, err := testAnalyzer(3, now).UserMetrics(snap)
	if err != nil {
		t.Fatalf("UserMetrics() error = %v", err)
	}

	if len(out.Metrics) != 2 {
		t.Fatalf("got %d user entries, want 2", len(out.Metrics))
	}
	if _, ok := out.Metrics["U03"]; ok {
		t.Error("directory-only user must not appear in message-table-driven metrics")
	}
	if out.Metrics["U01"].Name != "Alice Example" {
		t.Errorf("U01 name = %q, want directory full name", out.Metrics["U01"].Name)
	}
	if out.Metrics["U01"].PostsMade.NumPosts != 2 {
		t.Errorf("U01 posts = %d, want 2", out.Metrics["U01"].PostsMade.NumPosts)
	}
}

func TestUserRepliesCombinedScore(t *testing.T) {
	now := fixedNow(testEpoch)
	snap := snapshotWith([]string{"C1"},
		rec("r1", "C1", "U01", testEpoch-100, 3, 2, 0),
		rec("r2", "C1", "U01", testEpoch-200, 1, 1, 0),
	)

	out, err := testAnalyzer(3, now).UserMetrics(snap)
	if err != nil {
		t.Fatalf("UserMetrics() error = %v", err)
	}

	m := out.Metrics["U01"]
	if m.ReactionsReceived.NumPosts != 4 {
		t.Errorf("reactions received = %d, want 4", m.ReactionsReceived.NumPosts)
	}
	// Replies received is the documented combined replies+reactions score.
	if m.RepliesReceived.NumPosts != 7 {
		t.Errorf("replies received = %d, want 7 (3 replies + 4 reactions)", m.RepliesReceived.NumPosts)
	}
}

func TestUserDistinctChannels(t *testing.T) {
	now := fixedNow(testEpoch)
	snap := snapshotWith([]string{"C1", "C2", "C3"},
		rec("r1", "C1", "U01", testEpoch-100, 0, 0, 0),
		rec("r2", "C2", "U01", testEpoch-200, 0, 0, 0),
		rec("r3", "C2", "U01", testEpoch-300, 0, 0, 0),
	)

	out, err := testAnalyzer(3, now).UserMetrics(snap)
	if err != nil {
		t.Fatalf("UserMetrics() error = %v", err)
	}

	if got := out.Metrics["U01"].ChannelsCount.DistinctChannels; got != 2 {
		t.Errorf("distinct channels = %d, want 2", got)
	}
}

func TestUserRecentActivitySentinel(t *testing.T) {
	now := fixedNow(testEpoch)
	const day = 86400

	t.Run("no records in window", func(t *testing.T) {
		snap := snapshotWith([]string{"C1"},
			rec("old", "C1", "U01", testEpoch-10*day, 5, 5, 0),
		)
		out, err := testAnalyzer(3, now).UserMetrics(snap)
		if err != nil {
			t.Fatalf("UserMetrics() error = %v", err)
		}

		ra := out.Metrics["U01"].RecentActivity
		if ra.HasData {
			t.Error("empty window must yield the no-data marker, not a numeric zero")
		}
		if ra.WindowSeconds != 3*day {
			t.Errorf("window seconds = %v, want %v", ra.WindowSeconds, 3*day)
		}
		if ra.TotalActivity != 0 || ra.BeginTS != 0 {
			t.Errorf("no-data marker should be zero-valued, got %+v", ra)
		}
	})

	t.Run("records in window", func(t *testing.T) {
		snap := snapshotWith([]string{"C1"},
			rec("a", "C1", "U01", testEpoch-2*day, 1, 1, 0),
			rec("b", "C1", "U01", testEpoch-day, 2, 0, 0),
			rec("old", "C1", "U01", testEpoch-10*day, 9, 9, 0),
		)
		out, err := testAnalyzer(3, now).UserMetrics(snap)
		if err != nil {
			t.Fatalf("UserMetrics() error = %v", err)
		}

		ra := out.Metrics["U01"].RecentActivity
		if !ra.HasData {
			t.Fatal("window with records should carry data")
		}
		if ra.TotalActivity != 4 {
			t.Errorf("recent activity = %d, want 4", ra.TotalActivity)
		}
		if ra.BeginTS != testEpoch-2*day {
			t.Errorf("begin_ts = %v, want earliest in-window ts %v", ra.BeginTS, testEpoch-2*day)
		}
		if ra.Duration != "3d" {
			t.Errorf("duration tag = %q, want %q", ra.Duration, "3d")
		}
	})

	t.Run("zero-engagement window is not the sentinel", func(t *testing.T) {
		snap := snapshotWith([]string{"C1"},
			rec("a", "C1", "U01", testEpoch-day, 0, 0, 0),
		)
		out, err := testAnalyzer(3, now).UserMetrics(snap)
		if err != nil {
			t.Fatalf("UserMetrics() error = %v", err)
		}

		ra := out.Metrics["U01"].RecentActivity
		if !ra.HasData || ra.TotalActivity != 0 {
			t.Errorf("zero activity with records = %+v, want has_data with total 0", ra)
		}
	})
}

func TestUserActivityHistory(t *testing.T) {
	const day = 86400
	t0 := float64(testEpoch - 9*day)
	now := fixedNow(testEpoch)

	analyzer := testAnalyzer(3, now)
	analyzer.binPeriod = "3d"

	snap := snapshotWith([]string{"C1"},
		rec("a", "C1", "U01", t0, 2, 0, 0),        // bin 0d: activity 2
		rec("b", "C1", "U01", t0+day, 1, 0, 0),    // bin 0d: +1 -> 3
		rec("c", "C1", "U01", t0+4*day, 5, 2, 0),  // bin 3d: activity 7
		rec("d", "C1", "U01", t0+8*day, 0, 1, 0),  // bin 6d: activity 1
	)

	out, err := analyzer.UserMetrics(snap)
	if err != nil {
		t.Fatalf("UserMetrics() error = %v", err)
	}

	history := out.Metrics["U01"].ActivityHistory
	if len(history) < 3 {
		t.Fatalf("got %d bins, want at least 3", len(history))
	}

	if history[0].Period != "0d" || history[0].TotalActivity != 3 {
		t.Errorf("bin 0 = %+v, want period 0d with activity 3", history[0])
	}
	if history[0].ChangeRate != 3 {
		t.Errorf("bin 0 change rate = %d, want 3 (previous is zero)", history[0].ChangeRate)
	}
	if history[1].Period != "3d" || history[1].TotalActivity != 7 || history[1].ChangeRate != 4 {
		t.Errorf("bin 1 = %+v, want period 3d activity 7 change 4", history[1])
	}
	if history[2].Period != "6d" || history[2].TotalActivity != 1 || history[2].ChangeRate != -6 {
		t.Errorf("bin 2 = %+v, want period 6d activity 1 change -6", history[2])
	}
	if history[0].StartTS != t0 {
		t.Errorf("bin 0 start_ts = %v, want %v", history[0].StartTS, t0)
	}
}

func TestUserMetricsEmptyInput(t *testing.T) {
	now := fixedNow(testEpoch)
	snap := snapshotWith(nil)

	out, err := testAnalyzer(3, now).UserMetrics(snap)
	if err != nil {
		t.Fatalf("UserMetrics() error = %v", err)
	}
	if len(out.Metrics) != 0 {
		t.Errorf("got %d user entries for empty table, want 0", len(out.Metrics))
	}
}

func TestUserInvalidBinPeriod(t *testing.T) {
	now := fixedNow(testEpoch)
	analyzer := testAnalyzer(3, now)
	analyzer.binPeriod = "3w"

	snap := snapshotWith([]string{"C1"},
		rec("r1", "C1", "U01", testEpoch-100, 1, 0, 0),
	)

	if _, err := analyzer.UserMetrics(snap); err == nil {
		t.Error("invalid bin period must propagate, not be swallowed")
	}
}
