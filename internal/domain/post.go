package domain

import "time"

// Author is the minimal user reference attached to posts and comments.
type Author struct {
	ID        string
	Username  string
	AvatarURL string
}

// Comment is a single comment on a post. The comment list is append-only
// from the client's perspective; nothing here reorders or deletes.
type Comment struct {
	// ID is the server-assigned identifier, or a local placeholder while the
	// comment is still in flight.
	ID string

	PostID    string
	Text      string
	Author    Author
	CreatedAt time.Time
}

// Post is the unit of cached state: one record per post ID, shared by every
// view (feed, profile gallery, detail screen) that shows the post.
type Post struct {
	ID string

	// Content fields, immutable after creation from the client's point of view.
	Caption   string
	ImageURL  string
	Location  string
	Author    Author
	CreatedAt time.Time

	// Interaction counters. Never negative; decrements clamp at zero.
	LikeCount    int
	ShareCount   int
	CommentCount int

	// Viewer-scoped interaction flags. A flag and its counter always change
	// together.
	IsLiked  bool
	IsShared bool

	Comments []Comment
}

// Clone returns a deep structural copy, so holders of the copy are isolated
// from later cache mutations.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Comments != nil {
		cp.Comments = make([]Comment, len(p.Comments))
		copy(cp.Comments, p.Comments)
	}
	return &cp
}

// UserProfile is the cached record for a user, carrying the viewer-scoped
// follow state alongside the public counters.
type UserProfile struct {
	ID        string
	Username  string
	Email     string
	Bio       string
	AvatarURL string

	FollowerCount  int
	FollowingCount int
	PostCount      int

	IsFollowing bool
}

// Clone returns a copy of the profile record.
func (u *UserProfile) Clone() *UserProfile {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Pagination describes one fetched page of a paginated listing.
type Pagination struct {
	Page    int
	HasNext bool
}

// FeedPage is the result of fetching a single listing page.
type FeedPage struct {
	Posts      []Post
	Pagination Pagination
}

// PostStats carries server-authoritative counters pushed over the live event
// stream. It says nothing about the viewer's own flags.
type PostStats struct {
	PostID       string
	LikeCount    int
	ShareCount   int
	CommentCount int
}

// PostDraft is the input to post creation.
type PostDraft struct {
	Caption  string
	Location string
	Image    Image
}

// Image is raw image content acquired from a capture capability.
type Image struct {
	Name     string
	MimeType string
	Data     []byte
}
