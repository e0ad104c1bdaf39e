package domain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePostService implements PostService with per-call hooks and counters.
type fakePostService struct {
	mu           sync.Mutex
	likeCalls    int
	shareCalls   int
	commentCalls int

	likeFn    func(ctx context.Context, id string, liked bool) (*InteractionResult, error)
	shareFn   func(ctx context.Context, id string) (*InteractionResult, error)
	commentFn func(ctx context.Context, id, text string) (*Comment, error)
}

func (f *fakePostService) Feed(ctx context.Context, page int) (*FeedPage, error) {
	return &FeedPage{}, nil
}

func (f *fakePostService) Explore(ctx context.Context, page int) (*FeedPage, error) {
	return &FeedPage{}, nil
}

func (f *fakePostService) Post(ctx context.Context, id string) (*Post, error) {
	return nil, &Error{Kind: KindNotFound, Status: 404, Message: "no such post"}
}

func (f *fakePostService) CreatePost(ctx context.Context, draft PostDraft) (*Post, error) {
	return nil, errors.New("not implemented")
}

func (f *fakePostService) DeletePost(ctx context.Context, id string) error {
	return nil
}

func (f *fakePostService) Like(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
	f.mu.Lock()
	f.likeCalls++
	f.mu.Unlock()
	return f.likeFn(ctx, id, liked)
}

func (f *fakePostService) Share(ctx context.Context, id string) (*InteractionResult, error) {
	f.mu.Lock()
	f.shareCalls++
	f.mu.Unlock()
	return f.shareFn(ctx, id)
}

func (f *fakePostService) Comment(ctx context.Context, id, text string) (*Comment, error) {
	f.mu.Lock()
	f.commentCalls++
	f.mu.Unlock()
	return f.commentFn(ctx, id, text)
}

func (f *fakePostService) commentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commentCalls
}

// fakeUserService implements UserService for follow tests.
type fakeUserService struct {
	followFn func(ctx context.Context, id string) (*FollowResult, error)
}

func (f *fakeUserService) User(ctx context.Context, id string) (*UserProfile, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserService) UserPosts(ctx context.Context, id string, page int) (*FeedPage, error) {
	return &FeedPage{}, nil
}

func (f *fakeUserService) Follow(ctx context.Context, id string) (*FollowResult, error) {
	return f.followFn(ctx, id)
}

func (f *fakeUserService) Followers(ctx context.Context, id string, page int) ([]Author, Pagination, error) {
	return nil, Pagination{}, nil
}

func (f *fakeUserService) Following(ctx context.Context, id string, page int) ([]Author, Pagination, error) {
	return nil, Pagination{}, nil
}

func (f *fakeUserService) Search(ctx context.Context, query string, page int) ([]UserProfile, Pagination, error) {
	return nil, Pagination{}, nil
}

// recordingNotifier captures surfaced notifications.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	redirects int
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	n.successes = append(n.successes, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	n.errors = append(n.errors, message)
	n.mu.Unlock()
}

func (n *recordingNotifier) RedirectToLogin() {
	n.mu.Lock()
	n.redirects++
	n.mu.Unlock()
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

// memClipboard is an in-memory clipboard stub.
type memClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *memClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func newTestPost(id string, likes int, liked bool) Post {
	return Post{
		ID:        id,
		Caption:   "caption for " + id,
		ImageURL:  "https://cdn.example/" + id + ".jpg",
		Author:    Author{ID: "u1", Username: "casey"},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		LikeCount: likes,
		IsLiked:   liked,
	}
}

func newTestSynchronizer(posts PostService, users UserService, clip Clipboard, notifier Notifier) (*Synchronizer, *PostCache) {
	cache := NewPostCache()
	s := NewSynchronizer(cache, posts, users, clip, notifier, func(id string) string {
		return "https://picfeed.example/post/" + id
	}, nil)
	s.SetViewer(Author{ID: "viewer", Username: "me"})
	return s, cache
}

func TestLikeReconcilesWithServerValues(t *testing.T) {
	// P1: likeCount=10, not liked; optimistic (11, true); server confirms.
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			return &InteractionResult{IsLiked: true, LikeCount: 11}, nil
		},
	}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, notifier)
	cache.MergePosts(newTestPost("p1", 10, false))

	require.NoError(t, s.Like(context.Background(), "p1", true))

	got, ok := cache.Get("p1")
	require.True(t, ok)
	assert.True(t, got.IsLiked)
	assert.Equal(t, 11, got.LikeCount)
	assert.Zero(t, notifier.errorCount())
}

func TestLikeFailureRollsBackExactly(t *testing.T) {
	// P2: likeCount=5, not liked; server fails; state reverts byte-for-byte.
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			return nil, &Error{Kind: KindNetwork, Status: 500, Message: "boom"}
		},
	}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, notifier)
	cache.MergePosts(newTestPost("p2", 5, false))

	before, ok := cache.Get("p2")
	require.True(t, ok)

	err := s.Like(context.Background(), "p2", true)
	require.Error(t, err)

	after, ok := cache.Get("p2")
	require.True(t, ok)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, notifier.errorCount())
	assert.Zero(t, notifier.redirects)
}

func TestLikeAppliesOptimisticallyBeforeResponse(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			close(inFlight)
			<-release
			return &InteractionResult{IsLiked: true, LikeCount: 11}, nil
		},
	}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, &recordingNotifier{})
	cache.MergePosts(newTestPost("p1", 10, false))

	done := make(chan error, 1)
	go func() { done <- s.Like(context.Background(), "p1", true) }()

	<-inFlight
	got, ok := cache.Get("p1")
	require.True(t, ok)
	assert.True(t, got.IsLiked, "optimistic flag should be visible while the request is in flight")
	assert.Equal(t, 11, got.LikeCount)

	close(release)
	require.NoError(t, <-done)
}

func TestUnlikeClampsCountAtZero(t *testing.T) {
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			return &InteractionResult{IsLiked: false, LikeCount: 0}, nil
		},
	}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, &recordingNotifier{})
	cache.MergePosts(newTestPost("p1", 0, true))

	require.NoError(t, s.Like(context.Background(), "p1", false))

	got, _ := cache.Get("p1")
	assert.False(t, got.IsLiked)
	assert.Equal(t, 0, got.LikeCount, "decrement floors at zero")
}

func TestLikeParityAcrossToggleSequence(t *testing.T) {
	serverLikes := 10
	serverLiked := false
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			serverLiked = liked
			if liked {
				serverLikes++
			} else {
				serverLikes--
			}
			return &InteractionResult{IsLiked: serverLiked, LikeCount: serverLikes}, nil
		},
	}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, &recordingNotifier{})
	cache.MergePosts(newTestPost("p1", 10, false))

	ctx := context.Background()
	for _, liked := range []bool{true, false, true, false, true} {
		require.NoError(t, s.Like(ctx, "p1", liked))
		got, _ := cache.Get("p1")
		assert.GreaterOrEqual(t, got.LikeCount, 0, "count never negative mid-sequence")
	}

	got, _ := cache.Get("p1")
	assert.True(t, got.IsLiked, "odd number of toggles ends liked")
	assert.Equal(t, serverLikes, got.LikeCount, "final count is the server's last word")
}

func TestSameRecordRaceLastResponseWins(t *testing.T) {
	// Two interactions on the same post are deliberately not serialized;
	// whichever response returns last owns the final state.
	gates := []chan *InteractionResult{
		make(chan *InteractionResult),
		make(chan *InteractionResult),
	}
	started := make(chan int, 2)
	var calls int
	var mu sync.Mutex
	posts := &fakePostService{}
	posts.likeFn = func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
		mu.Lock()
		n := calls
		calls++
		mu.Unlock()
		started <- n
		return <-gates[n], nil
	}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, &recordingNotifier{})
	cache.MergePosts(newTestPost("p1", 10, false))

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = s.Like(ctx, "p1", true) }()
	<-started
	go func() { defer wg.Done(); _ = s.Like(ctx, "p1", false) }()
	<-started

	gates[0] <- &InteractionResult{IsLiked: true, LikeCount: 11}
	require.Eventually(t, func() bool {
		p, ok := cache.Get("p1")
		return ok && p.IsLiked && p.LikeCount == 11
	}, time.Second, time.Millisecond, "first response reconciled")

	gates[1] <- &InteractionResult{IsLiked: false, LikeCount: 10}
	wg.Wait()

	got, _ := cache.Get("p1")
	assert.False(t, got.IsLiked, "the response released last wins reconciliation")
	assert.Equal(t, 10, got.LikeCount)
}

func TestShareCopiesLinkBestEffort(t *testing.T) {
	posts := &fakePostService{
		shareFn: func(ctx context.Context, id string) (*InteractionResult, error) {
			return &InteractionResult{IsShared: true, ShareCount: 4}, nil
		},
	}
	clip := &memClipboard{}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, clip, notifier)
	cache.MergePosts(newTestPost("p1", 0, false))

	require.NoError(t, s.Share(context.Background(), "p1"))

	got, _ := cache.Get("p1")
	assert.True(t, got.IsShared)
	assert.Equal(t, 4, got.ShareCount)
	assert.Equal(t, "https://picfeed.example/post/p1", clip.text)
	assert.Contains(t, notifier.successes, "Post link copied to clipboard!")
}

func TestShareSucceedsWhenClipboardFails(t *testing.T) {
	posts := &fakePostService{
		shareFn: func(ctx context.Context, id string) (*InteractionResult, error) {
			return &InteractionResult{IsShared: true, ShareCount: 1}, nil
		},
	}
	clip := &memClipboard{err: errors.New("no clipboard")}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, clip, notifier)
	cache.MergePosts(newTestPost("p1", 0, false))

	require.NoError(t, s.Share(context.Background(), "p1"))

	got, _ := cache.Get("p1")
	assert.True(t, got.IsShared, "a clipboard failure must not mask the share")
	assert.Contains(t, notifier.successes, "Post shared successfully!")
	assert.Zero(t, notifier.errorCount())
}

func TestShareFailureRollsBack(t *testing.T) {
	posts := &fakePostService{
		shareFn: func(ctx context.Context, id string) (*InteractionResult, error) {
			return nil, &Error{Kind: KindNetwork, Status: 502, Message: "bad gateway"}
		},
	}
	clip := &memClipboard{}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, clip, notifier)
	cache.MergePosts(newTestPost("p1", 0, false))
	before, _ := cache.Get("p1")

	require.Error(t, s.Share(context.Background(), "p1"))

	after, _ := cache.Get("p1")
	assert.Equal(t, before, after)
	assert.Empty(t, clip.text, "no link copy on failure")
	assert.Equal(t, 1, notifier.errorCount())
}

func TestEmptyCommentNeverReachesTheNetwork(t *testing.T) {
	posts := &fakePostService{
		commentFn: func(ctx context.Context, id, text string) (*Comment, error) {
			t.Fatal("empty comment must not issue a request")
			return nil, nil
		},
	}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, notifier)
	cache.MergePosts(newTestPost("p1", 0, false))

	for _, text := range []string{"", "   ", "\t\n"} {
		err := s.Comment(context.Background(), "p1", text)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	}

	got, _ := cache.Get("p1")
	assert.Equal(t, 0, got.CommentCount)
	assert.Empty(t, got.Comments)
	assert.Zero(t, posts.commentCount())
}

func TestCommentSwapsPlaceholderForServerRecord(t *testing.T) {
	created := Comment{
		ID:        "c-42",
		PostID:    "p1",
		Text:      "nice shot",
		Author:    Author{ID: "viewer", Username: "me"},
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	posts := &fakePostService{
		commentFn: func(ctx context.Context, id, text string) (*Comment, error) {
			c := created
			return &c, nil
		},
	}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, notifier)
	cache.MergePosts(newTestPost("p1", 0, false))

	require.NoError(t, s.Comment(context.Background(), "p1", "  nice shot  "))

	got, _ := cache.Get("p1")
	require.Len(t, got.Comments, 1)
	assert.Equal(t, created, got.Comments[0], "placeholder replaced by the server record")
	assert.Equal(t, 1, got.CommentCount)
	assert.Contains(t, notifier.successes, "Comment added successfully!")
}

func TestCommentFailureRollsBack(t *testing.T) {
	posts := &fakePostService{
		commentFn: func(ctx context.Context, id, text string) (*Comment, error) {
			return nil, &Error{Kind: KindNetwork, Message: "timeout"}
		},
	}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, notifier)
	cache.MergePosts(newTestPost("p1", 0, false))
	before, _ := cache.Get("p1")

	require.Error(t, s.Comment(context.Background(), "p1", "hello"))

	after, _ := cache.Get("p1")
	assert.Equal(t, before, after)
	assert.Equal(t, 1, notifier.errorCount())
}

func TestAuthFailureRollsBackAndRedirects(t *testing.T) {
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			return nil, &Error{Kind: KindAuth, Status: 401, Message: "unauthenticated"}
		},
	}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, notifier)
	cache.MergePosts(newTestPost("p1", 3, false))
	before, _ := cache.Get("p1")

	err := s.Like(context.Background(), "p1", true)
	require.Error(t, err)
	assert.True(t, IsAuth(err))

	after, _ := cache.Get("p1")
	assert.Equal(t, before, after)
	assert.Equal(t, 1, notifier.redirects)
}

func TestReconciliationAfterInvalidationIsNoOp(t *testing.T) {
	release := make(chan struct{})
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			<-release
			return &InteractionResult{IsLiked: true, LikeCount: 11}, nil
		},
	}
	s, cache := newTestSynchronizer(posts, &fakeUserService{}, nil, &recordingNotifier{})
	cache.MergePosts(newTestPost("p1", 10, false))

	done := make(chan error, 1)
	go func() { done <- s.Like(context.Background(), "p1", true) }()

	// Navigate away: the entry is evicted while the request is in flight.
	cache.InvalidatePost("p1")
	close(release)
	require.NoError(t, <-done)

	_, ok := cache.Get("p1")
	assert.False(t, ok, "a late reconciliation cannot resurrect an evicted entry")
}

func TestInteractionOnUncachedPostIsNotFound(t *testing.T) {
	posts := &fakePostService{
		likeFn: func(ctx context.Context, id string, liked bool) (*InteractionResult, error) {
			t.Fatal("no request without a cached record")
			return nil, nil
		},
	}
	s, _ := newTestSynchronizer(posts, &fakeUserService{}, nil, &recordingNotifier{})

	err := s.Like(context.Background(), "ghost", true)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestFollowOptimisticCycle(t *testing.T) {
	users := &fakeUserService{
		followFn: func(ctx context.Context, id string) (*FollowResult, error) {
			return &FollowResult{IsFollowing: true, FollowerCount: 101}, nil
		},
	}
	s, cache := newTestSynchronizer(&fakePostService{}, users, nil, &recordingNotifier{})
	cache.MergeProfile(UserProfile{ID: "u9", Username: "robin", FollowerCount: 100})

	require.NoError(t, s.Follow(context.Background(), "u9", true))

	got, ok := cache.Profile("u9")
	require.True(t, ok)
	assert.True(t, got.IsFollowing)
	assert.Equal(t, 101, got.FollowerCount)
}

func TestFollowFailureRollsBack(t *testing.T) {
	users := &fakeUserService{
		followFn: func(ctx context.Context, id string) (*FollowResult, error) {
			return nil, &Error{Kind: KindNetwork, Message: "down"}
		},
	}
	notifier := &recordingNotifier{}
	s, cache := newTestSynchronizer(&fakePostService{}, users, nil, notifier)
	cache.MergeProfile(UserProfile{ID: "u9", Username: "robin", FollowerCount: 100})
	before, _ := cache.Profile("u9")

	require.Error(t, s.Follow(context.Background(), "u9", true))

	after, _ := cache.Profile("u9")
	assert.Equal(t, before, after)
	assert.Equal(t, 1, notifier.errorCount())
}
