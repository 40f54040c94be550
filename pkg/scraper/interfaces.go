package scraper

import (
	"context"

	"github.com/mrmechko/ifscraper/pkg/media"
	"github.com/mrmechko/ifscraper/pkg/models"
)

// MediaFetcher downloads one media asset. Implementations report failures
// in the Result instead of returning an error.
type MediaFetcher interface {
	Fetch(ctx context.Context, mediaURL, localPath string, replace bool) media.Result
}

// CheckpointStore persists the collection at run boundaries
type CheckpointStore interface {
	Persist(items []models.Item) error
	Finalize(items []models.Item) error
	Load() ([]models.Item, error)
	Exists() bool
	OutputPath() string
	CheckpointPath() string
}

// Pauser blocks between item blocks
type Pauser interface {
	Pause(ctx context.Context) error
}

// Progress receives accepted/target updates for display
type Progress interface {
	PageStarted(page int, url string)
	Update(accepted, target int)
	Finish(accepted, target int, reachedTarget bool)
}

type nopProgress struct{}

func (nopProgress) PageStarted(int, string) {}
func (nopProgress) Update(int, int)         {}
func (nopProgress) Finish(int, int, bool)   {}
