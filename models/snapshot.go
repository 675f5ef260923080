package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// FightStatus values published by the results feed.
const (
	FightStatusScheduled = "scheduled"
	FightStatusCancelled = "cancelled"
	FightStatusCompleted = "completed"
)

// FightResult carries the free-text winner published by the results feed.
type FightResult struct {
	WinnerName string `json:"winner_name"`
}

// Fight is one bout on an event's card as captured in a snapshot.
type Fight struct {
	FightID      string       `json:"fight_id"`
	Fighter1ID   string       `json:"fighter1_id"`
	Fighter1Name string       `json:"fighter1_name"`
	Fighter2ID   string       `json:"fighter2_id"`
	Fighter2Name string       `json:"fighter2_name"`
	WeightClass  string       `json:"weight_class"`
	IsTitleFight bool         `json:"is_title_fight"`
	Status       string       `json:"status"`
	Result       *FightResult `json:"result,omitempty"`
}

// HasResult reports whether the fight carries a decided winner.
func (f *Fight) HasResult() bool {
	return f.Result != nil && strings.TrimSpace(f.Result.WinnerName) != ""
}

// EventSnapshot is an immutable capture of one event's fight card as produced
// by the results feed. Snapshots sharing SourceURL describe the same event;
// the two most recent ones act as previous/current for change detection.
// EventStartTime is stored as published (free text) because the feed does not
// guarantee a parseable value; see StartTime.
type EventSnapshot struct {
	ID             uuid.UUID `db:"id"`
	EventID        string    `db:"event_id"`
	SourceURL      string    `db:"source_url"`
	EventName      string    `db:"event_name"`
	EventStartTime string    `db:"event_start_time"`
	IsActive       bool      `db:"is_active"`
	ScrapedAt      time.Time `db:"scraped_at"`
	Fights         []Fight   `db:"fights"`
}

// startTimeLayouts are the formats the results feed has been observed to use.
var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// StartTime parses the published start time. The second return value is false
// when the field is empty or in a format we do not recognize; callers decide
// what an unparseable start time means (the prediction window treats it as
// open by policy).
func (s *EventSnapshot) StartTime() (time.Time, bool) {
	raw := strings.TrimSpace(s.EventStartTime)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range startTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FightByID returns the fight with the given id, or nil.
func (s *EventSnapshot) FightByID(fightID string) *Fight {
	for i := range s.Fights {
		if s.Fights[i].FightID == fightID {
			return &s.Fights[i]
		}
	}
	return nil
}
