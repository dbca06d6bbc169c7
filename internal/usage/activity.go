package usage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	maxStoredQuestions = 100
	maxQuestionLen     = 200
)

// DayActivity counts one day's scans and chats.
type DayActivity struct {
	Scans int `json:"scans"`
	Chats int `json:"chats"`
}

// ScanCount tracks how often one QR code was scanned.
type ScanCount struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// Question is one recently asked visitor question.
type Question struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// ActivityStats is the operator-facing activity report.
type ActivityStats struct {
	Today           DayActivity            `json:"today"`
	TotalScans      int                    `json:"total_scans"`
	TotalChats      int                    `json:"total_chats"`
	TopQRCodes      []TopQR                `json:"top_qr_codes"`
	RecentQuestions []Question             `json:"recent_questions"`
	DailyHistory    map[string]DayActivity `json:"daily_history"`
}

type TopQR struct {
	QRID  string `json:"qr_id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type activityState struct {
	QRScans   map[string]ScanCount   `json:"qr_scans"`
	Questions []Question             `json:"questions"`
	Daily     map[string]DayActivity `json:"daily_activity"`
}

// Activity tracks QR scans and visitor questions, persisted like the
// token tracker.
type Activity struct {
	mu    sync.Mutex
	path  string
	state activityState
	now   func() time.Time
}

func NewActivity(path string) (*Activity, error) {
	a := &Activity{
		path: path,
		state: activityState{
			QRScans: make(map[string]ScanCount),
			Daily:   make(map[string]DayActivity),
		},
		now: time.Now,
	}
	if path == "" {
		return a, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}
	if err := json.Unmarshal(data, &a.state); err != nil {
		return nil, fmt.Errorf("decode activity file: %w", err)
	}
	if a.state.QRScans == nil {
		a.state.QRScans = make(map[string]ScanCount)
	}
	if a.state.Daily == nil {
		a.state.Daily = make(map[string]DayActivity)
	}
	return a, nil
}

// TrackScan counts one QR scan.
func (a *Activity) TrackScan(qrID, exhibitName string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	scan := a.state.QRScans[qrID]
	scan.Count++
	if exhibitName != "" {
		scan.Name = exhibitName
	}
	a.state.QRScans[qrID] = scan

	today := a.today()
	day := a.state.Daily[today]
	day.Scans++
	a.state.Daily[today] = day

	a.persistLocked()
}

// TrackQuestion records one visitor question, keeping only a bounded
// recent window with bodies capped for privacy.
func (a *Activity) TrackQuestion(question string) {
	if runes := []rune(question); len(runes) > maxQuestionLen {
		question = string(runes[:maxQuestionLen])
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.Questions = append([]Question{{Text: question, Time: a.now().UTC()}}, a.state.Questions...)
	if len(a.state.Questions) > maxStoredQuestions {
		a.state.Questions = a.state.Questions[:maxStoredQuestions]
	}

	today := a.today()
	day := a.state.Daily[today]
	day.Chats++
	a.state.Daily[today] = day

	a.persistLocked()
}

// Stats reports recent activity with top QR codes and the last seven
// days of history.
func (a *Activity) Stats() ActivityStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	top := make([]TopQR, 0, len(a.state.QRScans))
	totalScans := 0
	for id, scan := range a.state.QRScans {
		top = append(top, TopQR{QRID: id, Name: scan.Name, Count: scan.Count})
		totalScans += scan.Count
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].QRID < top[j].QRID
	})
	if len(top) > 10 {
		top = top[:10]
	}

	totalChats := 0
	now := a.now().UTC()
	history := make(map[string]DayActivity)
	for key, day := range a.state.Daily {
		totalChats += day.Chats
		if t, err := time.Parse("2006-01-02", key); err == nil && now.Sub(t) < 7*24*time.Hour {
			history[key] = day
		}
	}

	recent := a.state.Questions
	if len(recent) > 20 {
		recent = recent[:20]
	}
	questions := make([]Question, len(recent))
	copy(questions, recent)

	return ActivityStats{
		Today:           a.state.Daily[a.today()],
		TotalScans:      totalScans,
		TotalChats:      totalChats,
		TopQRCodes:      top,
		RecentQuestions: questions,
		DailyHistory:    history,
	}
}

func (a *Activity) today() string {
	return a.now().UTC().Format("2006-01-02")
}

func (a *Activity) persistLocked() {
	if a.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		log.Printf("usage: create dir: %v", err)
		return
	}
	data, err := json.MarshalIndent(a.state, "", "  ")
	if err != nil {
		log.Printf("usage: encode activity: %v", err)
		return
	}
	if err := os.WriteFile(a.path, data, 0o644); err != nil {
		log.Printf("usage: persist activity: %v", err)
	}
}
