package scraper

import "github.com/mrmechko/ifscraper/pkg/models"

// Collection is the ordered, append-only result set of one run
type Collection struct {
	items []models.Item
	seen  map[string]bool
}

// NewCollection creates a collection seeded with items, typically a loaded
// checkpoint
func NewCollection(items []models.Item) *Collection {
	c := &Collection{
		items: make([]models.Item, 0, len(items)),
		seen:  make(map[string]bool, len(items)),
	}
	for _, item := range items {
		c.Append(item)
	}
	return c
}

func (c *Collection) Append(item models.Item) {
	c.items = append(c.items, item)
	c.seen[item.MediaURL] = true
}

// Has reports whether an item with this media URL was collected
func (c *Collection) Has(mediaURL string) bool {
	return c.seen[mediaURL]
}

func (c *Collection) Len() int {
	return len(c.items)
}

// Items returns the collected records. The slice must not be modified.
func (c *Collection) Items() []models.Item {
	return c.items
}
