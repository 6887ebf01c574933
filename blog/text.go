package blog

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
	"github.com/samber/lo"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var _whitespace = regexp.MustCompile(`\s+`)

// NormalizeTags splits comma separated input into lower-case, dash-joined,
// unique tags. Blank entries are dropped.
func NormalizeTags(raw string) []string {
	tags := lo.FilterMap(strings.Split(raw, ","), func(tag string, _ int) (string, bool) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return "", false
		}
		return _whitespace.ReplaceAllString(tag, "-"), true
	})

	return lo.Uniq(tags)
}

// MakeSlug derives a URL slug from explicit, or from title when explicit is
// blank.
func MakeSlug(explicit, title string) string {
	if strings.TrimSpace(explicit) == "" {
		explicit = title
	}

	return slug.Make(explicit)
}

var _markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown converts a post body to HTML.
func RenderMarkdown(body string) (string, error) {
	var buf bytes.Buffer
	if err := _markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	return buf.String(), nil
}
