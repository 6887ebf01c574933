// Package blog keeps posts and categories and serves their paginated
// listings. Every mutation clears the cache namespaces whose listings it
// changes.
package blog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Alp4ka/sloth"
)

// Backend is what the repository needs from a record store.
type Backend[T any] interface {
	sloth.Store[T]
	Create(ctx context.Context, rec *T) error
	Save(ctx context.Context, rec *T) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*T, error)
	First(ctx context.Context, q sloth.Query) (*T, error)
}

// Actor is the admin performing a mutation.
type Actor struct {
	Email string
}

// PostInput is the editable part of a post.
type PostInput struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
	// Tags is a comma separated list.
	Tags string `json:"tags"`
	// Category is a category name, created on demand. Empty detaches.
	Category string `json:"category"`
}

// Page is one numbered page of a listing.
type Page[T any] struct {
	Items     []T  `json:"items"`
	Number    int  `json:"page"`
	PageCount int  `json:"page_count"`
	HasNext   bool `json:"has_next"`
	HasPrev   bool `json:"has_prev"`
}

type Repository struct {
	posts      Backend[Post]
	categories Backend[Category]
	cache      sloth.Cache
	pageSize   int
	logger     logrus.FieldLogger
	now        func() time.Time
	pagerOpts  []sloth.Option
}

type Option func(*Repository)

func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithPaginatorOptions passes options to every Paginator the repository
// builds.
func WithPaginatorOptions(opts ...sloth.Option) Option {
	return func(r *Repository) {
		r.pagerOpts = append(r.pagerOpts, opts...)
	}
}

func New(posts Backend[Post], categories Backend[Category], cache sloth.Cache, pageSize int, opts ...Option) (*Repository, error) {
	switch {
	case posts == nil:
		return nil, &sloth.ConfigError{Field: "posts", Reason: "is nil"}
	case categories == nil:
		return nil, &sloth.ConfigError{Field: "categories", Reason: "is nil"}
	case cache == nil:
		return nil, &sloth.ConfigError{Field: "cache", Reason: "is nil"}
	case pageSize <= 0:
		return nil, &sloth.ConfigError{Field: "page size", Reason: fmt.Sprintf("must be positive, got %d", pageSize)}
	}

	silent := logrus.New()
	silent.SetOutput(io.Discard)

	r := &Repository{
		posts:      posts,
		categories: categories,
		cache:      cache,
		pageSize:   pageSize,
		logger:     silent,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

func (r *Repository) PageSize() int {
	return r.pageSize
}

// Published lists published posts, newest first.
func (r *Repository) Published(ctx context.Context, pageNum int) (Page[Post], error) {
	return listPage(ctx, r, r.posts, publishedQuery(), NamespacePublished, pageNum)
}

// Tagged lists published posts carrying tag.
func (r *Repository) Tagged(ctx context.Context, tag string, pageNum int) (Page[Post], error) {
	tags := NormalizeTags(tag)
	if len(tags) != 1 {
		return Page[Post]{}, &ValidationError{Fields: map[string]string{"tag": fmt.Sprintf("The tag '%s' is invalid.", tag)}}
	}

	return listPage(ctx, r, r.posts, taggedQuery(tags[0]), TagNamespace(tags[0]), pageNum)
}

// InCategory lists published posts of one category.
func (r *Repository) InCategory(ctx context.Context, categoryID string, pageNum int) (Page[Post], error) {
	if _, err := r.categories.Get(ctx, categoryID); err != nil {
		return Page[Post]{}, err
	}

	return listPage(ctx, r, r.posts, categoryQuery(categoryID), CategoryNamespace(categoryID), pageNum)
}

// Drafts lists unpublished posts, most recently edited first.
func (r *Repository) Drafts(ctx context.Context, pageNum int) (Page[Post], error) {
	return listPage(ctx, r, r.posts, draftsQuery(), NamespaceDrafts, pageNum)
}

// DraftCount returns the cached number of drafts.
func (r *Repository) DraftCount(ctx context.Context) (int64, error) {
	p, err := sloth.NewPaginator[Post](ctx, r.posts, r.cache, draftsQuery(), r.pageSize, NamespaceDrafts, r.paginatorOptions()...)
	if err != nil {
		return 0, err
	}

	return p.Total(ctx)
}

// Categories lists categories by name.
func (r *Repository) Categories(ctx context.Context, pageNum int) (Page[Category], error) {
	return r.SortedCategories(ctx, "", pageNum)
}

// SortedCategories lists categories by sort, e.g. "date desc". The aliases
// are the keys of CategorySortColumns; an empty sort lists by name.
func (r *Repository) SortedCategories(ctx context.Context, sort string, pageNum int) (Page[Category], error) {
	q, err := sortedCategoriesQuery(sort)
	if err != nil {
		return Page[Category]{}, err
	}

	namespace, err := categoriesNamespace(q)
	if err != nil {
		return Page[Category]{}, err
	}

	return listPage(ctx, r, r.categories, q, namespace, pageNum)
}

// Recent returns up to limit published posts, newest first, for feeds.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		return nil, &sloth.ConfigError{Field: "limit", Reason: fmt.Sprintf("must be positive, got %d", limit)}
	}

	res, err := r.posts.Scan(ctx, publishedQuery(), sloth.ScanRequest{Limit: limit})
	if err != nil {
		return nil, &sloth.StoreError{Op: "scan", Err: err}
	}

	return res.Items, nil
}

func listPage[T any](ctx context.Context, r *Repository, store sloth.Store[T], q sloth.Query, namespace string, pageNum int) (Page[T], error) {
	p, err := sloth.NewPaginator[T](ctx, store, r.cache, q, r.pageSize, namespace, r.paginatorOptions()...)
	if err != nil {
		return Page[T]{}, err
	}

	items, err := p.FetchPage(ctx, pageNum)
	if err != nil {
		return Page[T]{}, err
	}

	pages, err := p.PageCount(ctx)
	if err != nil {
		return Page[T]{}, err
	}

	hasNext, err := p.HasPage(ctx, pageNum+1)
	if err != nil {
		return Page[T]{}, err
	}

	return Page[T]{
		Items:     items,
		Number:    pageNum,
		PageCount: pages,
		HasNext:   hasNext,
		HasPrev:   pageNum > 1,
	}, nil
}

func (r *Repository) paginatorOptions() []sloth.Option {
	return append([]sloth.Option{sloth.WithLogger(r.logger)}, r.pagerOpts...)
}

// Post returns a post by id, published or not.
func (r *Repository) Post(ctx context.Context, id string) (*Post, error) {
	return r.posts.Get(ctx, id)
}

// PostByPermalink resolves /posts/yyyy/mm/dd/slug to a published post.
func (r *Repository) PostByPermalink(ctx context.Context, year, month, day int, slug string) (*Post, error) {
	post, err := r.posts.First(ctx, publishedQuery().Where("slug", slug))
	if err != nil {
		return nil, err
	}

	y, m, d := post.PublishedAt.Date()
	if y != year || int(m) != month || d != day {
		return nil, sloth.ErrNotFound
	}

	return post, nil
}

// CreatePost validates in, stores a new post authored by actor and clears
// the listings it appears in.
func (r *Repository) CreatePost(ctx context.Context, actor Actor, in PostInput) (*Post, error) {
	now := r.now().UTC()
	post := &Post{
		ID:        uuid.NewString(),
		Author:    actor.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.apply(ctx, post, in, now); err != nil {
		return nil, err
	}

	if err := r.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{"post": post.ID, "author": actor.Email}).Info("post created")

	return post, r.invalidate(ctx, nil, post)
}

// UpdatePost replaces the editable fields of post id.
func (r *Repository) UpdatePost(ctx context.Context, actor Actor, id string, in PostInput) (*Post, error) {
	old, err := r.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	post := *old
	post.LastUpdatedBy = actor.Email
	post.UpdatedAt = now

	if err = r.apply(ctx, &post, in, now); err != nil {
		return nil, err
	}

	if err = r.posts.Save(ctx, &post); err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{"post": post.ID, "editor": actor.Email}).Info("post updated")

	return &post, r.invalidate(ctx, old, &post)
}

// DeletePost removes post id.
func (r *Repository) DeletePost(ctx context.Context, id string) error {
	old, err := r.posts.Get(ctx, id)
	if err != nil {
		return err
	}

	if err = r.posts.Delete(ctx, id); err != nil {
		return err
	}

	r.logger.WithField("post", id).Info("post deleted")

	return r.invalidate(ctx, old, nil)
}

// apply copies in onto post, derives the slug, tags and HTML, and validates
// the result. PublishedAt is stamped only when a post becomes published.
func (r *Repository) apply(ctx context.Context, post *Post, in PostInput, now time.Time) error {
	post.Title = in.Title
	post.Slug = MakeSlug(in.Slug, in.Title)
	post.Body = in.Body
	post.Tags = NormalizeTags(in.Tags)

	switch {
	case in.Published && !post.Published:
		post.PublishedAt = now
	case !in.Published:
		post.PublishedAt = time.Time{}
	}
	post.Published = in.Published

	if err := validateStruct(post); err != nil {
		return err
	}

	html, err := RenderMarkdown(post.Body)
	if err != nil {
		return err
	}
	post.BodyHTML = html

	if err = r.ensureUniqueSlug(ctx, post); err != nil {
		return err
	}

	return r.setCategory(ctx, post, in.Category)
}

func (r *Repository) ensureUniqueSlug(ctx context.Context, post *Post) error {
	q := sloth.NewQuery(kindPost, sloth.Asc("id")).Where("slug", post.Slug)

	other, err := r.posts.First(ctx, q)
	switch {
	case errors.Is(err, sloth.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID != post.ID:
		return fmt.Errorf("%w: %s", ErrDuplicateSlug, post.Slug)
	default:
		return nil
	}
}

func (r *Repository) setCategory(ctx context.Context, post *Post, name string) error {
	if name == "" {
		post.CategoryID = ""
		return nil
	}

	category, err := r.EnsureCategory(ctx, name)
	if err != nil {
		return err
	}
	post.CategoryID = category.ID

	return nil
}

// EnsureCategory returns the category called name, creating it if needed.
func (r *Repository) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	existing, err := r.categories.First(ctx, categoriesQuery().Where("name", name))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sloth.ErrNotFound) {
		return nil, err
	}

	return r.CreateCategory(ctx, name)
}

// CreateCategory stores a new category.
func (r *Repository) CreateCategory(ctx context.Context, name string) (*Category, error) {
	category := &Category{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: r.now().UTC(),
	}
	if err := validateStruct(category); err != nil {
		return nil, err
	}

	if err := r.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	r.logger.WithField("category", category.Name).Info("category created")

	return category, r.clearCategories(ctx)
}

// DeleteCategory removes a category and detaches its posts.
func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.categories.Get(ctx, id); err != nil {
		return err
	}

	q := sloth.NewQuery(kindPost, sloth.Asc("id")).Where("category_id", id)
	for {
		res, err := r.posts.Scan(ctx, q, sloth.ScanRequest{Limit: MaxBatch})
		if err != nil {
			return &sloth.StoreError{Op: "scan", Err: err}
		}
		if len(res.Items) == 0 {
			break
		}

		for _, old := range res.Items {
			post := old
			post.CategoryID = ""
			if err = r.posts.Save(ctx, &post); err != nil {
				return err
			}
			if err = r.invalidate(ctx, &old, &post); err != nil {
				return err
			}
		}
	}

	if err := r.categories.Delete(ctx, id); err != nil {
		return err
	}

	r.logger.WithField("category", id).Info("category deleted")

	if err := r.clear(ctx, CategoryNamespace(id)); err != nil {
		return err
	}

	return r.clearCategories(ctx)
}

// MaxBatch bounds the scans of bulk updates.
const MaxBatch = 100

// invalidate clears every namespace listing old or updated. Either may be nil.
func (r *Repository) invalidate(ctx context.Context, versions ...*Post) error {
	var namespaces []string
	for _, p := range versions {
		if p != nil {
			namespaces = append(namespaces, Namespaces(p)...)
		}
	}

	return r.clear(ctx, lo.Uniq(namespaces)...)
}

func (r *Repository) clearCategories(ctx context.Context) error {
	namespaces, err := CategoryNamespaces()
	if err != nil {
		return err
	}

	return r.clear(ctx, namespaces...)
}

func (r *Repository) clear(ctx context.Context, namespaces ...string) error {
	for _, ns := range namespaces {
		if err := sloth.Clear(ctx, r.cache, ns); err != nil {
			return err
		}
	}

	r.logger.WithField("namespaces", namespaces).Debug("cleared page cursors")

	return nil
}
