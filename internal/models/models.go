// package models defines the data model for the metadata reconciliation engine
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// ArtistCredit is one artist's contribution to a credit line, carrying the
// join phrase that links it to the next credit (e.g. " feat. ", " & ").
type ArtistCredit struct {
	Name       string
	JoinPhrase string
}

// JoinArtists flattens an ordered credit list into the display string,
// honoring join phrases ("A feat. B", "A & B").
func JoinArtists(credits []ArtistCredit) string {
	var b strings.Builder
	for _, c := range credits {
		b.WriteString(c.Name)
		b.WriteString(c.JoinPhrase)
	}
	return b.String()
}

// LocalTrack is a single scanned track. Duration is in seconds; zero means
// unknown. Number is the 1-based track number; zero means unknown.
type LocalTrack struct {
	Title    string
	Artists  []ArtistCredit
	Duration int
	Number   int
}

// LocalTrackSet is a scanned local release: release-level metadata plus an
// ordered track list. Immutable once produced by the file scanner.
type LocalTrackSet struct {
	Title         string
	Artists       []ArtistCredit
	ReleaseType   string
	Date          time.Time
	OriginalDate  time.Time
	Country       string
	Label         string
	CatalogNumber string
	Tracks        []LocalTrack
}

// CandidateTrack is a provider-sourced track. Position is 1-based within the
// release; zero means unknown.
type CandidateTrack struct {
	Title    string
	Artists  []ArtistCredit
	Duration int
	Position int
}

// CandidateRelease is a provider-sourced release descriptor. One local scan
// may yield many candidates.
type CandidateRelease struct {
	ID             string
	ReleaseGroupID string
	Title          string
	Artists        []ArtistCredit
	ReleaseType    string
	Date           time.Time
	OriginalDate   time.Time
	Country        string
	Label          string
	CatalogNumber  string
	Tracks         []CandidateTrack
}

// Unmatched is the alignment sentinel for a local track with no candidate
// counterpart.
const Unmatched = -1

// MatchResult scores one candidate release against a local track set.
// Lower scores are better. Alignment has one entry per local track holding
// the matched candidate track index, or [Unmatched].
type MatchResult struct {
	CandidateID string
	Score       int64
	Alignment   []int
}

// Cover is a cover art candidate gathered from an art provider. Width and
// height are in pixels.
type Cover struct {
	Provider string
	URL      string
	Width    int
	Height   int
	Title    string
	Artist   string
}

// CoverRating pairs a cover with its computed score. Higher is better.
type CoverRating struct {
	Score float64
	Cover Cover
}

// Artist is one enrichment target in the local library.
type Artist struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	UpdatedAt   time.Time
}

// TaskStatus tracks a task through its lifecycle.
// Transitions: Scheduled → Started → Succeeded | Failed. A task is never
// mutated after it ends.
type TaskStatus string

const (
	TaskScheduled TaskStatus = "scheduled"
	TaskStarted   TaskStatus = "started"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// Ended reports whether the status is terminal.
func (s TaskStatus) Ended() bool {
	return s == TaskSucceeded || s == TaskFailed
}

// Job is a named recurring source of enrichment work. Schedule is a cron
// expression with a seconds field.
type Job struct {
	ID       string
	Title    string
	Kind     string
	Schedule string
}

// Task is one concrete unit of enrichment work produced when its owning
// job's schedule fires. Parents lists task ids this task depends on; the
// edges form a DAG.
type Task struct {
	ID          string
	JobID       string
	Kind        string
	Payload     json.RawMessage
	Status      TaskStatus
	ScheduledAt time.Time
	StartedAt   time.Time
	EndedAt     time.Time
	Duration    time.Duration
	Parents     []string
	Error       string
}
