package blog

import (
	"strings"
	"time"

	"github.com/Alp4ka/sloth"
	"github.com/Alp4ka/sloth/store/gormstore"
)

type Post struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	Author        string         `gorm:"size:255" json:"author" validate:"omitempty,email"`
	LastUpdatedBy string         `gorm:"size:255" json:"last_updated_by,omitempty" validate:"omitempty,email"`
	Title         string         `gorm:"size:255" json:"title" validate:"required,max=255"`
	Slug          string         `gorm:"uniqueIndex;size:255" json:"slug" validate:"required,max=255"`
	Body          string         `gorm:"type:text" json:"body" validate:"required"`
	BodyHTML      string         `gorm:"type:text" json:"body_html"`
	Published     bool           `gorm:"index" json:"published"`
	Tags          gormstore.List `json:"tags"`
	CategoryID    string         `gorm:"index;size:36" json:"category_id,omitempty"`
	PublishedAt   time.Time      `gorm:"index" json:"published_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// URL is the permalink path of a post, dated by its publication.
func (p *Post) URL() string {
	day := p.PublishedAt
	if day.IsZero() {
		day = p.CreatedAt
	}

	return "/posts/" + day.Format("2006/01/02") + "/" + p.Slug
}

// FullURL prefixes URL with the blog's base address.
func (p *Post) FullURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + p.URL()
}

// Summary is the rendered body up to the end of its first paragraph.
func (p *Post) Summary() string {
	pos := strings.Index(p.BodyHTML, "</p>")
	if pos == -1 {
		return p.BodyHTML
	}

	return p.BodyHTML[:pos+len("</p>")]
}

type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:255" json:"name" validate:"required,max=255"`
	CreatedAt time.Time `json:"created_at"`
}

// PostGetters exposes the columns posts are filtered and ordered by.
var PostGetters = sloth.Getters[Post]{
	"id":           func(p Post) any { return p.ID },
	"slug":         func(p Post) any { return p.Slug },
	"title":        func(p Post) any { return p.Title },
	"published":    func(p Post) any { return p.Published },
	"tags":         func(p Post) any { return []string(p.Tags) },
	"category_id":  func(p Post) any { return p.CategoryID },
	"published_at": func(p Post) any { return p.PublishedAt },
	"created_at":   func(p Post) any { return p.CreatedAt },
	"updated_at":   func(p Post) any { return p.UpdatedAt },
}

var CategoryGetters = sloth.Getters[Category]{
	"id":         func(c Category) any { return c.ID },
	"name":       func(c Category) any { return c.Name },
	"created_at": func(c Category) any { return c.CreatedAt },
}

func PostKey(p Post) string { return p.ID }

func CategoryKey(c Category) string { return c.ID }
