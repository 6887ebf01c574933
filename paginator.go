package sloth

import (
	"context"
	"io"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Stats counts the work a Paginator delegated to its store and cache.
type Stats struct {
	FirstPageScans int
	CursorScans    int
	OffsetScans    int
	CountScans     int
	Persists       int
	Restores       int
}

// Option configures a Paginator.
type Option func(*options)

type options struct {
	logger     logrus.FieldLogger
	casEnabled bool
	casRetries int
}

// WithLogger routes cursor hits, misses and cache writes to logger at debug
// level.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCompareAndSwap writes the cursor map with compare-and-swap instead of a
// blind overwrite. On conflict the map is re-read, every change this
// Paginator has not yet written is applied on top and the write is retried up
// to retries times. Changes left over when the retries run out are carried to
// the next write. The cache must implement Swapper.
func WithCompareAndSwap(retries int) Option {
	return func(o *options) {
		o.casEnabled = true
		o.casRetries = max(retries, 0)
	}
}

// Paginator returns numbered pages of one Query. It is meant to live for a
// single request and is not safe for concurrent use.
//
// The cursor map is read from the cache once, in NewPaginator, and written
// back whole whenever a fetch changed it. Without WithCompareAndSwap two
// requests racing on the same namespace can lose each other's entries; the
// cost is a later offset scan, never wrong data.
type Paginator[T any] struct {
	store     Store[T]
	cache     Cache
	query     Query
	pageSize  int
	namespace string
	opts      options

	cursors   PageCursors
	persisted PageCursors
	// observed holds the raw cursor-map bytes last seen in the cache, nil
	// when the key was absent. Used as the expected value of a swap.
	observed []byte
	// pending are the changes not yet swapped into the cache.
	pending []cursorChange
	count   *int64
	stats   Stats
}

// NewPaginator loads the cached state of namespace and returns a Paginator
// over q.
func NewPaginator[T any](
	ctx context.Context,
	store Store[T],
	cache Cache,
	q Query,
	pageSize int,
	namespace string,
	opts ...Option,
) (*Paginator[T], error) {
	switch {
	case store == nil:
		return nil, configErr("store", "is nil")
	case cache == nil:
		return nil, configErr("cache", "is nil")
	case pageSize <= 0:
		return nil, configErr("page size", "must be positive, got %d", pageSize)
	case namespace == "":
		return nil, configErr("namespace", "is empty")
	}
	if err := q.Validate(); err != nil {
		return nil, configErr("query", "%v", err)
	}

	silent := logrus.New()
	silent.SetOutput(io.Discard)
	o := options{logger: silent}
	for _, opt := range opts {
		opt(&o)
	}

	if o.casEnabled {
		if _, ok := cache.(Swapper); !ok {
			return nil, configErr("cache", "%T does not support compare-and-swap", cache)
		}
	}

	p := &Paginator[T]{
		store:     store,
		cache:     cache,
		query:     q,
		pageSize:  pageSize,
		namespace: namespace,
		opts:      o,
	}
	p.opts.logger = o.logger.WithField("namespace", namespace)

	if err := p.restore(ctx); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *Paginator[T]) restore(ctx context.Context) error {
	cursors, raw, err := p.readCursors(ctx)
	if err != nil {
		return err
	}
	p.cursors = cursors
	p.persisted = cursors.Clone()
	p.observed = raw

	data, ok, err := p.cache.Get(ctx, CountKey(p.namespace))
	if err != nil {
		return storeErr("cache get count", err)
	}
	if ok {
		n, err := decodeCount(data)
		if err != nil {
			p.opts.logger.WithError(err).Warn("ignoring undecodable cached count")
		} else {
			p.count = &n
		}
	}

	p.stats.Restores++

	return nil
}

// readCursors returns the cached map (empty on a miss) and the raw bytes it
// was decoded from.
func (p *Paginator[T]) readCursors(ctx context.Context) (PageCursors, []byte, error) {
	data, ok, err := p.cache.Get(ctx, p.namespace)
	if err != nil {
		return nil, nil, storeErr("cache get cursors", err)
	}
	if !ok {
		return PageCursors{}, nil, nil
	}

	cursors, err := decodePageCursors(data)
	if err != nil {
		p.opts.logger.WithError(err).Warn("ignoring undecodable cached page cursors")
		return PageCursors{}, data, nil
	}

	return cursors, data, nil
}

// FetchPage returns the records of page pageNum (1-based). A page past the
// end is an empty slice, not an error.
func (p *Paginator[T]) FetchPage(ctx context.Context, pageNum int) ([]T, error) {
	if pageNum < 1 {
		return nil, configErr("page number", "must be positive, got %d", pageNum)
	}

	log := p.opts.logger.WithField("page", pageNum)
	req := ScanRequest{Limit: p.pageSize}

	if cursor, ok := p.cursors[pageNum]; ok {
		log.Debug("page cursor hit")
		req.ResumeFrom = cursor
		p.stats.CursorScans++
	} else if pageNum > 1 {
		log.Debug("page cursor miss, scanning with offset")
		req.Offset = p.pageSize * (pageNum - 1)
		p.stats.OffsetScans++
	} else {
		p.stats.FirstPageScans++
	}

	res, err := p.store.Scan(ctx, p.query, req)
	if err != nil {
		return nil, storeErr("scan", err)
	}

	change := p.applyResult(pageNum, res)
	if err = p.persist(ctx, change); err != nil {
		return nil, err
	}

	if res.Items == nil {
		return []T{}, nil
	}

	return res.Items, nil
}

// cursorChange is the effect one fetch had on the cursor map.
type cursorChange struct {
	page   int
	cursor string
	remove bool
}

func (c cursorChange) apply(pc PageCursors) {
	if c.page == 0 {
		return
	}
	if c.remove {
		delete(pc, c.page)
		return
	}
	pc[c.page] = c.cursor
}

func (p *Paginator[T]) applyResult(pageNum int, res ScanResult[T]) cursorChange {
	next := pageNum + 1

	switch n := len(res.Items); {
	case n == p.pageSize:
		if res.End == nil || res.End.IsEmpty() {
			p.opts.logger.WithField("page", pageNum).Warn("store returned a full page without an end cursor")
			return cursorChange{}
		}
		change := cursorChange{page: next, cursor: res.End.String()}
		change.apply(p.cursors)
		return change
	case n == 0:
		change := cursorChange{page: next, remove: true}
		change.apply(p.cursors)
		return change
	default:
		return cursorChange{}
	}
}

func (p *Paginator[T]) persist(ctx context.Context, change cursorChange) error {
	if p.cursors.Equal(p.persisted) {
		return nil
	}

	if p.opts.casEnabled {
		return p.swap(ctx, change)
	}

	data, err := p.cursors.encode()
	if err != nil {
		return storeErr("encode cursors", err)
	}
	if err = p.cache.Set(ctx, p.namespace, data); err != nil {
		return storeErr("cache set cursors", err)
	}

	p.opts.logger.WithField("pages", lo.Keys(p.cursors)).Debug("persisted page cursors")
	p.markPersisted(data)

	return nil
}

func (p *Paginator[T]) swap(ctx context.Context, change cursorChange) error {
	swapper := p.cache.(Swapper)
	if change.page != 0 {
		p.pending = append(p.pending, change)
	}

	for attempt := 0; attempt <= p.opts.casRetries; attempt++ {
		data, err := p.cursors.encode()
		if err != nil {
			return storeErr("encode cursors", err)
		}

		swapped, err := swapper.CompareAndSwap(ctx, p.namespace, p.observed, data)
		if err != nil {
			return storeErr("cache swap cursors", err)
		}
		if swapped {
			p.opts.logger.WithField("attempt", attempt).Debug("swapped page cursors")
			p.markPersisted(data)
			p.pending = nil
			return nil
		}

		remote, raw, err := p.readCursors(ctx)
		if err != nil {
			return err
		}
		p.observed = raw
		p.persisted = remote.Clone()
		for _, c := range p.pending {
			c.apply(remote)
		}
		p.cursors = remote

		if p.cursors.Equal(p.persisted) {
			p.pending = nil
			return nil
		}
	}

	p.opts.logger.WithFields(logrus.Fields{
		"retries": p.opts.casRetries,
		"pending": len(p.pending),
	}).Warn("gave up swapping page cursors")

	return nil
}

func (p *Paginator[T]) markPersisted(data []byte) {
	p.persisted = p.cursors.Clone()
	p.observed = data
	p.stats.Persists++
}

// HasPage reports whether page pageNum is expected to hold records. It is a
// hint for rendering navigation: data can change between the answer and the
// fetch.
//
// A known total decides exactly. Without one, a cached cursor for a page
// after pageNum is taken as proof, since it is only stored once pageNum came
// back full. Otherwise the total is counted.
func (p *Paginator[T]) HasPage(ctx context.Context, pageNum int) (bool, error) {
	if pageNum <= 0 {
		return false, nil
	}

	if p.count == nil && p.cursorAfter(pageNum) {
		return true, nil
	}

	pages, err := p.PageCount(ctx)
	if err != nil {
		return false, err
	}

	return pageNum <= pages, nil
}

func (p *Paginator[T]) cursorAfter(pageNum int) bool {
	return lo.SomeBy(lo.Keys(p.cursors), func(page int) bool { return page > pageNum })
}

// PageCount returns ceil(total / page size). The total is counted by the
// store only when the cache has none, then cached without expiry.
func (p *Paginator[T]) PageCount(ctx context.Context) (int, error) {
	total, err := p.Total(ctx)
	if err != nil {
		return 0, err
	}

	size := int64(p.pageSize)
	full, rest := total/size, total%size
	if rest == 0 {
		return int(full), nil
	}

	return int(full) + 1, nil
}

// Total returns the (possibly stale) number of records matching the query.
func (p *Paginator[T]) Total(ctx context.Context) (int64, error) {
	if p.count != nil {
		return *p.count, nil
	}

	n, err := p.store.Count(ctx, p.query)
	if err != nil {
		return 0, storeErr("count", err)
	}
	p.stats.CountScans++

	if err = p.cache.Set(ctx, CountKey(p.namespace), encodeCount(n)); err != nil {
		return 0, storeErr("cache set count", err)
	}
	p.opts.logger.WithField("count", n).Debug("persisted query count")
	p.count = &n

	return n, nil
}

// Clear drops the cached state of this Paginator's namespace and forgets
// everything loaded so far.
func (p *Paginator[T]) Clear(ctx context.Context) error {
	if err := Clear(ctx, p.cache, p.namespace); err != nil {
		return err
	}

	p.cursors = PageCursors{}
	p.persisted = PageCursors{}
	p.observed = nil
	p.pending = nil
	p.count = nil

	return nil
}

// Cursors returns a copy of the current page-cursor map.
func (p *Paginator[T]) Cursors() PageCursors {
	return p.cursors.Clone()
}

func (p *Paginator[T]) Stats() Stats {
	return p.stats
}

func (p *Paginator[T]) PageSize() int {
	return p.pageSize
}

func (p *Paginator[T]) Namespace() string {
	return p.namespace
}
