package blog

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/Alp4ka/sloth"
)

// Cache namespaces of the listings.
const (
	NamespacePublished  = "posts:published"
	NamespaceDrafts     = "posts:drafts"
	NamespaceCategories = "categories:all"
)

func TagNamespace(tag string) string {
	return "posts:tag:" + tag
}

func CategoryNamespace(id string) string {
	return "posts:category:" + id
}

// Namespaces returns the listings p currently appears in.
func Namespaces(p *Post) []string {
	if !p.Published {
		return []string{NamespaceDrafts}
	}

	ret := make([]string, 0, len(p.Tags)+2)
	ret = append(ret, NamespacePublished)
	for _, tag := range p.Tags {
		ret = append(ret, TagNamespace(tag))
	}
	if p.CategoryID != "" {
		ret = append(ret, CategoryNamespace(p.CategoryID))
	}

	return ret
}

const (
	kindPost     = "post"
	kindCategory = "category"
)

func publishedQuery() sloth.Query {
	return sloth.NewQuery(kindPost, sloth.Desc("published_at"), sloth.Desc("id")).Where("published", true)
}

func taggedQuery(tag string) sloth.Query {
	return publishedQuery().WhereHas("tags", tag)
}

func categoryQuery(id string) sloth.Query {
	return publishedQuery().Where("category_id", id)
}

func draftsQuery() sloth.Query {
	return sloth.NewQuery(kindPost, sloth.Desc("updated_at"), sloth.Desc("id")).Where("published", false)
}

func categoriesQuery() sloth.Query {
	return sloth.NewQuery(kindCategory, sloth.Asc("name"), sloth.Asc("id"))
}

// CategorySortColumns are the aliases accepted when sorting categories.
var CategorySortColumns = sloth.ColumnMapping{
	"name": "name",
	"date": "created_at",
}

// sortedCategoriesQuery lists categories by one "<alias> <direction>"
// ordering, ties broken by id. An empty sort is the by-name listing.
func sortedCategoriesQuery(sort string) (sloth.Query, error) {
	if sort == "" {
		return categoriesQuery(), nil
	}

	orderings, err := sloth.ParseSort([]string{sort}, CategorySortColumns)
	if err != nil {
		return sloth.Query{}, &ValidationError{Fields: map[string]string{
			"sort": fmt.Sprintf("The sort '%s' is invalid: %s.", sort, err),
		}}
	}

	return sloth.NewQuery(kindCategory, append(orderings, sloth.Asc("id"))...), nil
}

// categoriesNamespace keys a category listing by its ordering. The by-name
// listing keeps NamespaceCategories.
func categoriesNamespace(q sloth.Query) (string, error) {
	fp, err := q.Fingerprint()
	if err != nil {
		return "", err
	}

	byName, err := categoriesQuery().Fingerprint()
	if err != nil {
		return "", err
	}
	if fp == byName {
		return NamespaceCategories, nil
	}

	return NamespaceCategories + ":" + fp, nil
}

// CategoryNamespaces returns the namespace of every category ordering.
func CategoryNamespaces() ([]string, error) {
	aliases := lo.Keys(CategorySortColumns)
	slices.Sort(aliases)

	ret := []string{NamespaceCategories}
	for _, alias := range aliases {
		for _, direction := range []string{"asc", "desc"} {
			q, err := sortedCategoriesQuery(alias + " " + direction)
			if err != nil {
				return nil, err
			}
			ns, err := categoriesNamespace(q)
			if err != nil {
				return nil, err
			}
			ret = append(ret, ns)
		}
	}

	return lo.Uniq(ret), nil
}
