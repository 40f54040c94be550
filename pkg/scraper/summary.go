package scraper

import (
	"time"

	"github.com/mrmechko/ifscraper/pkg/media"
)

// Summary describes how a run ended
type Summary struct {
	RunID         string
	StartURL      string
	Target        int
	Accepted      int
	Resumed       int
	Pages         int
	Skipped       int
	Duplicates    int
	Media         map[media.Status]int
	State         State
	TargetReached bool
	OutputPath    string
	Duration      time.Duration
}

func newSummary(runID, startURL string, target int) *Summary {
	return &Summary{
		RunID:    runID,
		StartURL: startURL,
		Target:   target,
		Media:    make(map[media.Status]int),
		State:    StateFetching,
	}
}

// Fields flattens the summary for structured logging
func (s *Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"run_id":         s.RunID,
		"accepted":       s.Accepted,
		"target":         s.Target,
		"resumed":        s.Resumed,
		"pages":          s.Pages,
		"skipped":        s.Skipped,
		"duplicates":     s.Duplicates,
		"downloaded":     s.Media[media.StatusDownloaded],
		"media_skipped":  s.Media[media.StatusSkipped],
		"media_rejected": s.Media[media.StatusRejected],
		"media_failed":   s.Media[media.StatusFailed],
		"state":          s.State.String(),
		"target_reached": s.TargetReached,
		"duration":       s.Duration,
	}
}
