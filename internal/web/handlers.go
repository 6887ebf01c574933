package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Alp4ka/sloth/blog"
)

// pageParam reads ?page=, 1 when absent.
func pageParam(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "1")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		sendError(c, http.StatusBadRequest, "Invalid parameters", "page must be a positive integer, got '"+raw+"'")
		return 0, false
	}

	return n, true
}

func respondPage[T any](s *Server, c *gin.Context, list func(page int) (blog.Page[T], error)) {
	n, ok := pageParam(c)
	if !ok {
		return
	}

	page, err := list(n)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, listing[T]{
		Page:  page,
		Links: pageLinks(*c.Request.URL, page.Number, page.PageCount, pageWindow),
	})
}

func (s *Server) listPublished(c *gin.Context) {
	respondPage(s, c, func(n int) (blog.Page[blog.Post], error) {
		return s.repo.Published(c.Request.Context(), n)
	})
}

func (s *Server) listTagged(c *gin.Context) {
	respondPage(s, c, func(n int) (blog.Page[blog.Post], error) {
		return s.repo.Tagged(c.Request.Context(), c.Param("tag"), n)
	})
}

func (s *Server) listCategory(c *gin.Context) {
	respondPage(s, c, func(n int) (blog.Page[blog.Post], error) {
		return s.repo.InCategory(c.Request.Context(), c.Param("id"), n)
	})
}

func (s *Server) listCategories(c *gin.Context) {
	respondPage(s, c, func(n int) (blog.Page[blog.Category], error) {
		return s.repo.SortedCategories(c.Request.Context(), c.Query("sort"), n)
	})
}

func (s *Server) listDrafts(c *gin.Context) {
	total, err := s.repo.DraftCount(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))

	respondPage(s, c, func(n int) (blog.Page[blog.Post], error) {
		return s.repo.Drafts(c.Request.Context(), n)
	})
}

func (s *Server) showPost(c *gin.Context) {
	var date [3]int
	for i, name := range []string{"year", "month", "day"} {
		v, err := strconv.Atoi(c.Param(name))
		if err != nil {
			sendError(c, http.StatusNotFound, "Not found", "")
			return
		}
		date[i] = v
	}

	post, err := s.repo.PostByPermalink(c.Request.Context(), date[0], date[1], date[2], c.Param("slug"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.repo.Post(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) createPost(c *gin.Context) {
	var in blog.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	post, err := s.repo.CreatePost(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (s *Server) updatePost(c *gin.Context) {
	var in blog.PostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	post, err := s.repo.UpdatePost(c.Request.Context(), actorFrom(c), c.Param("id"), in)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.repo.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) createCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	category, err := s.repo.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (s *Server) deleteCategory(c *gin.Context) {
	if err := s.repo.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
