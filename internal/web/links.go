package web

import (
	"net/url"
	"strconv"

	"github.com/Alp4ka/sloth/blog"
)

// PageLink is one entry of a listing's navigation.
type PageLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// pageWindow is how many numbered links a listing shows around its page.
const pageWindow = 10

type listing[T any] struct {
	blog.Page[T]
	Links []PageLink `json:"links"`
}

// pageLinks numbers up to window/2 pages either side of page, clipped to
// [1, pageCount], with Prev and Next links when those pages exist. Other
// query parameters of base are kept.
func pageLinks(base url.URL, page, pageCount, window int) []PageLink {
	side := window / 2

	first, last := page-side, page+side
	if page < side+1 {
		first, last = 1, 2*side
	}
	last = min(last, pageCount)

	link := func(text string, n int) PageLink {
		u := base
		q := u.Query()
		q.Set("page", strconv.Itoa(n))
		u.RawQuery = q.Encode()
		return PageLink{Text: text, URL: u.String()}
	}

	links := make([]PageLink, 0, max(last-first+1, 0)+2)
	if page > 1 {
		links = append(links, link("Prev", page-1))
	}
	for n := first; n <= last; n++ {
		links = append(links, link(strconv.Itoa(n), n))
	}
	if page < pageCount {
		links = append(links, link("Next", page+1))
	}

	return links
}
