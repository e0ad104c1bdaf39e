package domain

import "context"

// PostService is the remote API surface for posts and post interactions.
type PostService interface {
	// Feed retrieves one page of the followed-users feed.
	Feed(ctx context.Context, page int) (*FeedPage, error)

	// Explore retrieves one page of the public listing.
	Explore(ctx context.Context, page int) (*FeedPage, error)

	// Post retrieves a single post by ID.
	Post(ctx context.Context, id string) (*Post, error)

	// CreatePost uploads a new post (caption, image, optional location).
	CreatePost(ctx context.Context, draft PostDraft) (*Post, error)

	// DeletePost removes one of the viewer's own posts.
	DeletePost(ctx context.Context, id string) error

	// Like sets the viewer's like state for a post and returns the
	// authoritative flag and count.
	Like(ctx context.Context, id string, liked bool) (*InteractionResult, error)

	// Share records a share of the post and returns the authoritative flag
	// and count.
	Share(ctx context.Context, id string) (*InteractionResult, error)

	// Comment adds a comment and returns the created record with its
	// server-assigned ID and timestamp.
	Comment(ctx context.Context, id, text string) (*Comment, error)
}

// UserService is the remote API surface for users and follow relationships.
type UserService interface {
	// User retrieves a user's profile, including the viewer's follow state.
	User(ctx context.Context, id string) (*UserProfile, error)

	// UserPosts retrieves one page of a user's post gallery.
	UserPosts(ctx context.Context, id string, page int) (*FeedPage, error)

	// Follow toggles the viewer's follow state for a user and returns the
	// authoritative state and follower count.
	Follow(ctx context.Context, id string) (*FollowResult, error)

	// Followers retrieves one page of a user's followers.
	Followers(ctx context.Context, id string, page int) ([]Author, Pagination, error)

	// Following retrieves one page of the users someone follows.
	Following(ctx context.Context, id string, page int) ([]Author, Pagination, error)

	// Search retrieves one page of users matching the query.
	Search(ctx context.Context, query string, page int) ([]UserProfile, Pagination, error)
}

// AuthService is the remote API surface for accounts and sessions.
type AuthService interface {
	// Register creates an account and returns an authenticated session.
	Register(ctx context.Context, params RegisterParams) (*Session, error)

	// Login authenticates and returns a session token plus the viewer's
	// profile.
	Login(ctx context.Context, email, password string) (*Session, error)

	// Me retrieves the authenticated viewer's profile.
	Me(ctx context.Context) (*UserProfile, error)

	// UpdateProfile updates the viewer's profile fields.
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*UserProfile, error)

	// ChangePassword replaces the viewer's password.
	ChangePassword(ctx context.Context, current, updated string) error
}

// InteractionResult is the authoritative interaction state returned by the
// like and share endpoints.
type InteractionResult struct {
	IsLiked    bool
	LikeCount  int
	IsShared   bool
	ShareCount int
}

// FollowResult is the authoritative state returned by the follow endpoint.
type FollowResult struct {
	IsFollowing   bool
	FollowerCount int
}

// Session is an authenticated session: the bearer token and the viewer.
type Session struct {
	Token string
	User  UserProfile
}

// RegisterParams is the input to account creation.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Username  string
	Bio       string
	AvatarURL string
}

// Clipboard is the host clipboard capability. The synchronizer uses it for
// the best-effort share link copy; failures never mask the share itself.
type Clipboard interface {
	Copy(text string) error
}

// MediaCapture acquires image bytes from the host (camera, file picker, or
// whatever the environment provides).
type MediaCapture interface {
	Capture(ctx context.Context) (Image, error)
}

// Notifier surfaces transient, user-dismissible notifications. None of them
// are fatal states.
type Notifier interface {
	// Success reports a completed action.
	Success(message string)

	// Error reports a failed action the user may retry.
	Error(message string)

	// RedirectToLogin signals that the session is gone and the login screen
	// should be shown.
	RedirectToLogin()
}

// Navigator routes the user to another screen.
type Navigator interface {
	NavigateTo(route string)
}
