package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"

	"github.com/Alp4ka/sloth/blog"
)

func (s *Server) buildFeed(posts []blog.Post) *feeds.Feed {
	base := s.cfg.Blog.BaseURL

	feed := &feeds.Feed{
		Title:  s.cfg.Blog.Title,
		Link:   &feeds.Link{Href: base},
		Id:     base,
		Author: &feeds.Author{Name: s.cfg.Blog.Author},
	}

	var updated time.Time
	for i := range posts {
		p := &posts[i]
		link := p.FullURL(base)
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          link,
			Title:       p.Title,
			Link:        &feeds.Link{Href: link},
			Author:      &feeds.Author{Email: p.Author},
			Description: p.Summary(),
			Content:     p.BodyHTML,
			Created:     p.PublishedAt,
			Updated:     p.UpdatedAt,
		})
		if p.UpdatedAt.After(updated) {
			updated = p.UpdatedAt
		}
	}
	feed.Updated = updated
	feed.Created = updated

	return feed
}

func (s *Server) feed(c *gin.Context) {
	posts, err := s.repo.Recent(c.Request.Context(), s.cfg.FeedSize)
	if err != nil {
		s.fail(c, err)
		return
	}

	atom, err := s.buildFeed(posts).ToAtom()
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}
