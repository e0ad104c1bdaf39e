package domain

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPages serves predefined listing pages and counts fetches.
type scriptedPages struct {
	mu      sync.Mutex
	pages   map[int]*FeedPage
	fetches int
	err     error
}

func (s *scriptedPages) fetch(ctx context.Context, page int) (*FeedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	result, ok := s.pages[page]
	if !ok {
		return &FeedPage{Pagination: Pagination{Page: page}}, nil
	}
	return result, nil
}

func (s *scriptedPages) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func pageOf(page int, hasNext bool, ids ...string) *FeedPage {
	posts := make([]Post, len(ids))
	for i, id := range ids {
		posts[i] = newTestPost(id, 0, false)
	}
	return &FeedPage{
		Posts:      posts,
		Pagination: Pagination{Page: page, HasNext: hasNext},
	}
}

func postIDs(posts []Post) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func TestAccumulationAppendsInArrivalOrder(t *testing.T) {
	src := &scriptedPages{pages: map[int]*FeedPage{
		1: pageOf(1, true, "A", "B"),
		2: pageOf(2, false, "C", "D"),
	}}
	acc := NewFeedAccumulator("feed", NewPostCache(), src.fetch)

	ctx := context.Background()
	require.NoError(t, acc.Load(ctx))
	require.NoError(t, acc.LoadMore(ctx))

	assert.Equal(t, []string{"A", "B", "C", "D"}, postIDs(acc.Posts()))
	assert.False(t, acc.HasNext())
}

func TestLoadMoreIsIdempotentWithoutNextPage(t *testing.T) {
	src := &scriptedPages{pages: map[int]*FeedPage{
		1: pageOf(1, false, "A", "B"),
	}}
	acc := NewFeedAccumulator("feed", NewPostCache(), src.fetch)

	ctx := context.Background()
	require.NoError(t, acc.Load(ctx))
	fetchesAfterLoad := src.fetchCount()

	for i := 0; i < 5; i++ {
		require.NoError(t, acc.LoadMore(ctx))
	}

	assert.Equal(t, []string{"A", "B"}, postIDs(acc.Posts()))
	assert.Equal(t, fetchesAfterLoad, src.fetchCount(), "no fetch when hasNext is false")
}

func TestLoadMoreBeforeFirstLoadIsNoOp(t *testing.T) {
	src := &scriptedPages{pages: map[int]*FeedPage{}}
	acc := NewFeedAccumulator("feed", NewPostCache(), src.fetch)

	require.NoError(t, acc.LoadMore(context.Background()))
	assert.Zero(t, src.fetchCount())
}

func TestRefreshDiscardsAccumulatedPages(t *testing.T) {
	src := &scriptedPages{pages: map[int]*FeedPage{
		1: pageOf(1, true, "A", "B"),
		2: pageOf(2, true, "C", "D"),
	}}
	acc := NewFeedAccumulator("feed", NewPostCache(), src.fetch)

	ctx := context.Background()
	require.NoError(t, acc.Load(ctx))
	require.NoError(t, acc.LoadMore(ctx))
	require.Equal(t, []string{"A", "B", "C", "D"}, postIDs(acc.Posts()))

	// The next page-1 fetch returns fresh content.
	src.mu.Lock()
	src.pages[1] = pageOf(1, true, "E", "A")
	src.mu.Unlock()

	require.NoError(t, acc.Refresh(ctx))
	assert.Equal(t, []string{"E", "A"}, postIDs(acc.Posts()))
	assert.Equal(t, 1, acc.Pagination().Page)
}

func TestResetForcesFreshFetchOnReentry(t *testing.T) {
	cache := NewPostCache()
	src := &scriptedPages{pages: map[int]*FeedPage{
		1: pageOf(1, false, "A"),
	}}
	acc := NewFeedAccumulator("feed", cache, src.fetch)

	ctx := context.Background()
	require.NoError(t, acc.Load(ctx))
	_, _, ok := cache.Page("feed:1")
	require.True(t, ok)

	acc.Reset()

	assert.Empty(t, acc.Posts())
	assert.False(t, acc.HasNext())
	_, _, ok = cache.Page("feed:1")
	assert.False(t, ok, "re-entry does not trust cached pages")
	require.NoError(t, acc.Load(ctx))
	assert.Equal(t, []string{"A"}, postIDs(acc.Posts()))
}

func TestFetchedPostsMergeIntoSharedCache(t *testing.T) {
	cache := NewPostCache()
	cache.MergePosts(newTestPost("A", 3, true))

	src := &scriptedPages{pages: map[int]*FeedPage{
		1: pageOf(1, false, "A"),
	}}
	acc := NewFeedAccumulator("feed", cache, src.fetch)
	require.NoError(t, acc.Load(context.Background()))

	// The fetched record replaced counters; accumulator reads through the
	// shared cache either way.
	cache.Update("A", func(p *Post) {
		p.IsLiked = true
		p.LikeCount = 9
	})
	posts := acc.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, 9, posts[0].LikeCount)
	assert.True(t, posts[0].IsLiked)
}

func TestLoadErrorLeavesAccumulationUntouched(t *testing.T) {
	src := &scriptedPages{pages: map[int]*FeedPage{
		1: pageOf(1, true, "A"),
	}}
	acc := NewFeedAccumulator("feed", NewPostCache(), src.fetch)

	ctx := context.Background()
	require.NoError(t, acc.Load(ctx))

	src.mu.Lock()
	src.err = &Error{Kind: KindNetwork, Message: "down"}
	src.mu.Unlock()

	err := acc.LoadMore(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"A"}, postIDs(acc.Posts()))
}
