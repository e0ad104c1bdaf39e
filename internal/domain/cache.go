package domain

import (
	"strings"
	"sync"
)

// PostCache is the single shared mutable store of post and profile records.
// A post ID maps to at most one record, so an update through any screen is
// observed by every view of that post. All mutation goes through the
// synchronizer's snapshot/apply/reconcile/rollback sequence or through the
// merge paths for fetched and pushed server data.
//
// Methods are safe for concurrent use. Accessors return deep copies;
// callers never hold references into the cache.
type PostCache struct {
	mu       sync.RWMutex
	posts    map[string]*Post
	profiles map[string]*UserProfile
	pages    map[string]cachePage
}

type cachePage struct {
	ids        []string
	pagination Pagination
}

// NewPostCache returns an empty cache.
func NewPostCache() *PostCache {
	return &PostCache{
		posts:    make(map[string]*Post),
		profiles: make(map[string]*UserProfile),
		pages:    make(map[string]cachePage),
	}
}

// Get returns a copy of the cached post, if present.
func (c *PostCache) Get(id string) (*Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.posts[id]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// MergePosts upserts fetched records. Server data is authoritative for
// counters, flags and content; an existing record's comment list is kept
// when the incoming record carries none (listing endpoints omit comment
// bodies).
func (c *PostCache) MergePosts(posts ...Post) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range posts {
		incoming := posts[i].Clone()
		incoming.LikeCount = clampCount(incoming.LikeCount)
		incoming.ShareCount = clampCount(incoming.ShareCount)
		incoming.CommentCount = clampCount(incoming.CommentCount)

		if existing, ok := c.posts[incoming.ID]; ok && incoming.Comments == nil {
			incoming.Comments = existing.Comments
		}
		c.posts[incoming.ID] = incoming
	}
}

// Snapshot captures a deep copy of the post for later rollback.
func (c *PostCache) Snapshot(id string) (*Post, bool) {
	return c.Get(id)
}

// Restore puts a snapshot back. It is a no-op when the entry has been
// evicted since the snapshot was taken, so a late rollback against an
// invalidated cache cannot resurrect stale state.
func (c *PostCache) Restore(snap *Post) {
	if snap == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.posts[snap.ID]; !ok {
		return
	}
	c.posts[snap.ID] = snap.Clone()
}

// Update applies fn to the cached post under the cache lock. It reports
// whether the entry existed; a late reconciliation against an evicted entry
// is a no-op. Counters are clamped after fn runs.
func (c *PostCache) Update(id string, fn func(*Post)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.posts[id]
	if !ok {
		return false
	}
	fn(p)
	p.LikeCount = clampCount(p.LikeCount)
	p.ShareCount = clampCount(p.ShareCount)
	p.CommentCount = clampCount(p.CommentCount)
	return true
}

// ApplyStats merges server-pushed counters into the record. Viewer-scoped
// flags are deliberately untouched: other people's interactions move the
// counts, never the viewer's own state.
func (c *PostCache) ApplyStats(stats PostStats) bool {
	return c.Update(stats.PostID, func(p *Post) {
		p.LikeCount = stats.LikeCount
		p.ShareCount = stats.ShareCount
		p.CommentCount = stats.CommentCount
	})
}

// SetPage records the ordered post IDs and pagination metadata for one
// fetched page of a named listing.
func (c *PostCache) SetPage(name string, ids []string, pg Pagination) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]string, len(ids))
	copy(stored, ids)
	c.pages[name] = cachePage{ids: stored, pagination: pg}
}

// Page resolves a named page to its post records, skipping IDs whose records
// have been evicted.
func (c *PostCache) Page(name string) ([]Post, Pagination, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pg, ok := c.pages[name]
	if !ok {
		return nil, Pagination{}, false
	}

	posts := make([]Post, 0, len(pg.ids))
	for _, id := range pg.ids {
		if p, ok := c.posts[id]; ok {
			posts = append(posts, *p.Clone())
		}
	}
	return posts, pg.pagination, true
}

// InvalidatePost evicts a single post record.
func (c *PostCache) InvalidatePost(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.posts, id)
}

// InvalidatePages drops every named page whose name starts with prefix. Post
// records themselves stay cached and keep merging on refetch.
func (c *PostCache) InvalidatePages(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name := range c.pages {
		if strings.HasPrefix(name, prefix) {
			delete(c.pages, name)
		}
	}
}

// Clear evicts everything, as on logout or a full reload.
func (c *PostCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.posts = make(map[string]*Post)
	c.profiles = make(map[string]*UserProfile)
	c.pages = make(map[string]cachePage)
}

// Profile returns a copy of the cached user profile, if present.
func (c *PostCache) Profile(id string) (*UserProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.profiles[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// MergeProfile upserts a fetched profile record.
func (c *PostCache) MergeProfile(profile UserProfile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile.FollowerCount = clampCount(profile.FollowerCount)
	profile.FollowingCount = clampCount(profile.FollowingCount)
	c.profiles[profile.ID] = profile.Clone()
}

// SnapshotProfile captures a copy of the profile for later rollback.
func (c *PostCache) SnapshotProfile(id string) (*UserProfile, bool) {
	return c.Profile(id)
}

// RestoreProfile puts a profile snapshot back; no-op when evicted.
func (c *PostCache) RestoreProfile(snap *UserProfile) {
	if snap == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.profiles[snap.ID]; !ok {
		return
	}
	c.profiles[snap.ID] = snap.Clone()
}

// UpdateProfile applies fn to the cached profile under the cache lock,
// reporting whether the entry existed.
func (c *PostCache) UpdateProfile(id string, fn func(*UserProfile)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.profiles[id]
	if !ok {
		return false
	}
	fn(u)
	u.FollowerCount = clampCount(u.FollowerCount)
	u.FollowingCount = clampCount(u.FollowingCount)
	return true
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
