package models

import "encoding/json"

// Item is one harvested listing post
type Item struct {
	MediaURL   string     `json:"media_url"`
	LocalPath  string     `json:"local_path"`
	Caption    Caption    `json:"caption"`
	Engagement Engagement `json:"engagement"`
	Author     string     `json:"author"`
}

// Caption is the structured form of an item's alt text
type Caption struct {
	Title *string  `json:"title"`
	Tags  []string `json:"tags"`
	Text  []string `json:"text"`
}

type Engagement struct {
	Upvotes  int `json:"upvotes"`
	Views    int `json:"views"`
	Comments int `json:"comments"`
}

// MarshalJSON keeps tags and text as arrays even when empty
func (c Caption) MarshalJSON() ([]byte, error) {
	type plain Caption
	out := plain(c)
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.Text == nil {
		out.Text = []string{}
	}
	return json.Marshal(out)
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
