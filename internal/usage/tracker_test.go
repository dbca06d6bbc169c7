package usage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestTrackerAccumulatesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token_usage.json")

	tr, err := NewTracker(path, nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	tr.RecordCall(1000, 500)
	tr.RecordCall(2000, 1000)

	stats := tr.Stats()
	if stats.Total.Input != 3000 || stats.Total.Output != 1500 || stats.Total.Requests != 2 {
		t.Fatalf("Total = %+v", stats.Total)
	}
	if stats.Today != stats.Total {
		t.Fatalf("Today = %+v, want same as total", stats.Today)
	}

	// New tracker over the same file picks up persisted state.
	tr2, err := NewTracker(path, nil)
	if err != nil {
		t.Fatalf("NewTracker reload: %v", err)
	}
	if got := tr2.Stats().Total; got != stats.Total {
		t.Fatalf("reloaded total = %+v, want %+v", got, stats.Total)
	}
}

func TestTrackerEstimatedCost(t *testing.T) {
	tr, err := NewTracker("", nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	tr.RecordCall(1_000_000, 1_000_000)

	got := tr.Stats().EstimatedCostUSD
	if got != 0.75 {
		t.Fatalf("EstimatedCostUSD = %v, want 0.75", got)
	}
}

func TestTrackerDailyHistoryWindow(t *testing.T) {
	tr, err := NewTracker("", nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}

	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return day }
	tr.RecordCall(10, 5)

	tr.now = func() time.Time { return day.AddDate(0, 0, 10) }
	tr.RecordCall(20, 10)

	stats := tr.Stats()
	if len(stats.DailyHistory) != 1 {
		t.Fatalf("DailyHistory = %v, want only the recent day", stats.DailyHistory)
	}
	if stats.Total.Requests != 2 {
		t.Fatalf("Total.Requests = %d", stats.Total.Requests)
	}
}

func TestTrackerReset(t *testing.T) {
	tr, err := NewTracker("", nil)
	if err != nil {
		t.Fatalf("NewTracker: %v", err)
	}
	tr.RecordCall(100, 50)
	tr.Reset()
	if got := tr.Stats().Total; got != (DayUsage{}) {
		t.Fatalf("Total after reset = %+v", got)
	}
}

func TestActivityTracking(t *testing.T) {
	a, err := NewActivity(filepath.Join(t.TempDir(), "stats.json"))
	if err != nil {
		t.Fatalf("NewActivity: %v", err)
	}

	a.TrackScan("TED-QR-001", "Kuruluş Diploması")
	a.TrackScan("TED-QR-001", "")
	a.TrackScan("TED-QR-002", "Gazi Portresi")
	a.TrackQuestion("Bu eser ne zaman yapıldı?")

	stats := a.Stats()
	if stats.TotalScans != 3 || stats.TotalChats != 1 {
		t.Fatalf("totals = %d scans, %d chats", stats.TotalScans, stats.TotalChats)
	}
	if stats.Today.Scans != 3 || stats.Today.Chats != 1 {
		t.Fatalf("Today = %+v", stats.Today)
	}
	if len(stats.TopQRCodes) != 2 || stats.TopQRCodes[0].QRID != "TED-QR-001" || stats.TopQRCodes[0].Count != 2 {
		t.Fatalf("TopQRCodes = %+v", stats.TopQRCodes)
	}
	// Blank name on a repeat scan must not erase the stored name.
	if stats.TopQRCodes[0].Name != "Kuruluş Diploması" {
		t.Fatalf("Name = %q", stats.TopQRCodes[0].Name)
	}
	if len(stats.RecentQuestions) != 1 || stats.RecentQuestions[0].Text != "Bu eser ne zaman yapıldı?" {
		t.Fatalf("RecentQuestions = %+v", stats.RecentQuestions)
	}
}

func TestActivityBoundsStoredQuestions(t *testing.T) {
	a, err := NewActivity("")
	if err != nil {
		t.Fatalf("NewActivity: %v", err)
	}
	for i := 0; i < maxStoredQuestions+20; i++ {
		a.TrackQuestion("soru")
	}
	a.mu.Lock()
	stored := len(a.state.Questions)
	a.mu.Unlock()
	if stored != maxStoredQuestions {
		t.Fatalf("stored %d questions, want %d", stored, maxStoredQuestions)
	}
	if got := len(a.Stats().RecentQuestions); got != 20 {
		t.Fatalf("RecentQuestions = %d, want 20", got)
	}
}
