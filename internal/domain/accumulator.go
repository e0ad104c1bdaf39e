package domain

import (
	"context"
	"fmt"
	"sync"
)

// PageFetchFunc fetches one page of a paginated listing from the remote
// service.
type PageFetchFunc func(ctx context.Context, page int) (*FeedPage, error)

// FeedAccumulator maintains the accumulated, infinite-scroll view of one
// paginated listing. Page 1 replaces the accumulated sequence; later pages
// append in arrival order. Fetched posts merge into the shared cache and the
// accumulator keeps only the ordering.
type FeedAccumulator struct {
	name  string
	cache *PostCache
	fetch PageFetchFunc

	mu         sync.Mutex
	page       int
	ids        []string
	pagination Pagination
	loaded     bool
}

// NewFeedAccumulator creates an accumulator over the named listing. The name
// prefixes the cache page entries (e.g. "feed" stores "feed:1", "feed:2", ...).
func NewFeedAccumulator(name string, cache *PostCache, fetch PageFetchFunc) *FeedAccumulator {
	return &FeedAccumulator{
		name:  name,
		cache: cache,
		fetch: fetch,
		page:  1,
	}
}

// Reset clears the accumulated state and drops the listing's cache pages, as
// on navigation re-entry. Cached pages are not trusted across re-entry; the
// next Load fetches page 1 fresh.
func (a *FeedAccumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.page = 1
	a.ids = nil
	a.pagination = Pagination{}
	a.loaded = false
	a.cache.InvalidatePages(a.name + ":")
}

// Load fetches the current page and folds it into the accumulated sequence.
// The fetch itself runs without the accumulator lock held; only the fold is
// guarded.
func (a *FeedAccumulator) Load(ctx context.Context) error {
	a.mu.Lock()
	page := a.page
	a.mu.Unlock()

	result, err := a.fetch(ctx, page)
	if err != nil {
		return fmt.Errorf("fetch %s page %d: %w", a.name, page, err)
	}

	ids := make([]string, len(result.Posts))
	for i := range result.Posts {
		ids[i] = result.Posts[i].ID
	}

	a.cache.MergePosts(result.Posts...)
	a.cache.SetPage(fmt.Sprintf("%s:%d", a.name, page), ids, result.Pagination)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.page != page {
		// A Reset or Refresh superseded this fetch; drop the stale fold.
		return nil
	}
	if page == 1 {
		a.ids = ids
	} else {
		a.ids = append(a.ids, ids...)
	}
	a.pagination = result.Pagination
	a.loaded = true
	return nil
}

// LoadMore advances to the next page and fetches it. It is a no-op when the
// last fetched page reported no further pages, no matter how often it is
// called.
func (a *FeedAccumulator) LoadMore(ctx context.Context) error {
	a.mu.Lock()
	if !a.loaded || !a.pagination.HasNext {
		a.mu.Unlock()
		return nil
	}
	a.page++
	a.mu.Unlock()

	return a.Load(ctx)
}

// Refresh discards every accumulated page and refetches page 1.
func (a *FeedAccumulator) Refresh(ctx context.Context) error {
	a.Reset()
	return a.Load(ctx)
}

// Posts resolves the accumulated sequence against the cache, preserving
// accumulation order.
func (a *FeedAccumulator) Posts() []Post {
	a.mu.Lock()
	ids := make([]string, len(a.ids))
	copy(ids, a.ids)
	a.mu.Unlock()

	posts := make([]Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := a.cache.Get(id); ok {
			posts = append(posts, *p)
		}
	}
	return posts
}

// Pagination returns the metadata of the most recently fetched page.
func (a *FeedAccumulator) Pagination() Pagination {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pagination
}

// HasNext reports whether the listing has more pages to load.
func (a *FeedAccumulator) HasNext() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded && a.pagination.HasNext
}
