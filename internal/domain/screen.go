package domain

import (
	"context"
	"log/slog"
	"sync"
)

// ScreenData is the render-side view of a listing screen.
type ScreenData struct {
	Posts      []Post
	Pagination Pagination
	Loading    bool
	Err        error
}

// ScreenActions is the intent surface the rendering layer invokes. Every
// action returns immediately; the work runs off the caller's goroutine.
type ScreenActions struct {
	OnLike      func(postID string, liked bool)
	OnShare     func(postID string)
	OnComment   func(postID, text string)
	OnUserClick func(userID string)
	OnRefresh   func()
	OnLoadMore  func()
}

// FeedController binds one listing screen to the accumulator and
// synchronizer. It is the seam between the core and rendering: the screen
// reads Data and fires Actions, nothing else.
type FeedController struct {
	ctx       context.Context
	acc       *FeedAccumulator
	sync      *Synchronizer
	navigator Navigator
	logger    *slog.Logger

	mu      sync.Mutex
	loading bool
	err     error

	wg sync.WaitGroup
}

// NewFeedController creates a controller for one listing screen. ctx bounds
// every action the screen fires.
func NewFeedController(
	ctx context.Context,
	acc *FeedAccumulator,
	sync *Synchronizer,
	navigator Navigator,
	logger *slog.Logger,
) *FeedController {
	return &FeedController{
		ctx:       ctx,
		acc:       acc,
		sync:      sync,
		navigator: navigator,
		logger:    logger,
	}
}

// Enter resets the listing and loads page 1, as on navigation to the
// screen's root route. It blocks until the first page resolves.
func (c *FeedController) Enter() error {
	c.setLoading(true)
	c.acc.Reset()
	err := c.acc.Load(c.ctx)
	c.finish(err)
	return err
}

// Data returns the current screen state. A fetch failure is carried in Err
// so the screen can render a retry affordance instead of crashing.
func (c *FeedController) Data() ScreenData {
	c.mu.Lock()
	loading, err := c.loading, c.err
	c.mu.Unlock()

	return ScreenData{
		Posts:      c.acc.Posts(),
		Pagination: c.acc.Pagination(),
		Loading:    loading,
		Err:        err,
	}
}

// Actions returns the intent surface for the screen.
func (c *FeedController) Actions() ScreenActions {
	return ScreenActions{
		OnLike: func(postID string, liked bool) {
			c.dispatch(func() { _ = c.sync.Like(c.ctx, postID, liked) })
		},
		OnShare: func(postID string) {
			c.dispatch(func() { _ = c.sync.Share(c.ctx, postID) })
		},
		OnComment: func(postID, text string) {
			c.dispatch(func() { _ = c.sync.Comment(c.ctx, postID, text) })
		},
		OnUserClick: func(userID string) {
			if c.navigator != nil {
				c.navigator.NavigateTo("/profile/" + userID)
			}
		},
		OnRefresh: func() {
			c.setLoading(true)
			c.dispatch(func() { c.finish(c.acc.Refresh(c.ctx)) })
		},
		OnLoadMore: func() {
			if !c.acc.HasNext() {
				return
			}
			c.dispatch(func() { c.finish(c.acc.LoadMore(c.ctx)) })
		},
	}
}

// Wait blocks until every dispatched action has settled. The rendering loop
// doesn't need this; tests and one-shot CLI invocations do.
func (c *FeedController) Wait() {
	c.wg.Wait()
}

func (c *FeedController) dispatch(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func (c *FeedController) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.err = nil
	c.mu.Unlock()
}

func (c *FeedController) finish(err error) {
	c.mu.Lock()
	c.loading = false
	c.err = err
	c.mu.Unlock()
	if err != nil && c.logger != nil {
		c.logger.Error("listing load failed", "error", err)
	}
}
