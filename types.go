package folio

import "time"

// Post is the sole persistent entity: one blog entry, draft or published.
// PublishedAt is nil for drafts; publication state is derived from its
// presence, never stored separately.
type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	CoverImage    string     `json:"coverImage,omitempty"`
	CoverImageURL string     `json:"coverImageUrl,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Link          string     `json:"link"`
}

// Published reports whether the post is visible on public surfaces.
func (p Post) Published() bool {
	return p.PublishedAt != nil
}

// PostDraft carries the editable fields of a post into create and update.
// Updates replace all of these fields at once; there is no partial patch.
type PostDraft struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Content    string `json:"content"`
	Excerpt    string `json:"excerpt"`
	CoverImage string `json:"coverImage,omitempty"`
	Publish    bool   `json:"publish"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
