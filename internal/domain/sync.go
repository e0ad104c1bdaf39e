package domain

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Synchronizer converts user intents (like, share, comment, follow) into
// low-latency cache updates that eventually agree with server state. Each
// interaction runs one snapshot → optimistic apply → dispatch → reconcile
// cycle, rolling back to the snapshot when the request fails.
//
// Interactions on different records proceed independently. Rapid repeated
// interactions on the same record are not serialized: both requests run and
// the response that returns last wins reconciliation.
type Synchronizer struct {
	cache     *PostCache
	posts     PostService
	users     UserService
	clipboard Clipboard
	notifier  Notifier
	logger    *slog.Logger

	// postURL builds the canonical share URL for a post.
	postURL func(id string) string

	viewer Author
}

// NewSynchronizer wires the synchronizer to the cache, remote services and
// host capabilities. clipboard may be nil; the share link copy is then
// skipped.
func NewSynchronizer(
	cache *PostCache,
	posts PostService,
	users UserService,
	clipboard Clipboard,
	notifier Notifier,
	postURL func(id string) string,
	logger *slog.Logger,
) *Synchronizer {
	if postURL == nil {
		postURL = func(id string) string { return "/post/" + id }
	}
	return &Synchronizer{
		cache:     cache,
		posts:     posts,
		users:     users,
		clipboard: clipboard,
		notifier:  notifier,
		postURL:   postURL,
		logger:    logger,
	}
}

// SetViewer records the authenticated user, used to author the local
// placeholder records for in-flight comments.
func (s *Synchronizer) SetViewer(viewer Author) {
	s.viewer = viewer
}

// optimistic runs one update-dispatch-reconcile-rollback cycle. snapshot
// captures the rollback scope and returns a restore closure; apply performs
// the optimistic mutation; request hits the remote service; reconcile folds
// the authoritative response back in. reconcile runs against whatever cache
// entry exists by then, which makes a late response after invalidation a
// harmless no-op.
func optimistic[R any](
	ctx context.Context,
	snapshot func() (restore func(), ok bool),
	apply func(),
	request func(context.Context) (R, error),
	reconcile func(R),
) (R, error) {
	var zero R

	restore, ok := snapshot()
	if !ok {
		return zero, &Error{Kind: KindNotFound, Message: "record is not cached"}
	}

	apply()

	result, err := request(ctx)
	if err != nil {
		restore()
		return zero, err
	}

	reconcile(result)
	return result, nil
}

// postScope is the rollback scope for a single post record.
func (s *Synchronizer) postScope(postID string) func() (func(), bool) {
	return func() (func(), bool) {
		snap, ok := s.cache.Snapshot(postID)
		if !ok {
			return nil, false
		}
		return func() { s.cache.Restore(snap) }, true
	}
}

// profileScope is the rollback scope for a single profile record.
func (s *Synchronizer) profileScope(userID string) func() (func(), bool) {
	return func() (func(), bool) {
		snap, ok := s.cache.SnapshotProfile(userID)
		if !ok {
			return nil, false
		}
		return func() { s.cache.RestoreProfile(snap) }, true
	}
}

// Like sets the viewer's like state for a post. The flag and counter flip
// together immediately; the server's exact count replaces the estimate on
// success.
func (s *Synchronizer) Like(ctx context.Context, postID string, liked bool) error {
	_, err := optimistic(ctx,
		s.postScope(postID),
		func() {
			s.cache.Update(postID, func(p *Post) {
				p.IsLiked = liked
				if liked {
					p.LikeCount++
				} else {
					p.LikeCount--
				}
			})
		},
		func(ctx context.Context) (*InteractionResult, error) {
			return s.posts.Like(ctx, postID, liked)
		},
		func(res *InteractionResult) {
			s.cache.Update(postID, func(p *Post) {
				p.IsLiked = res.IsLiked
				p.LikeCount = res.LikeCount
			})
		},
	)
	if err != nil {
		s.surface(err, "Failed to update like")
		return err
	}
	return nil
}

// Share records a share. Shares are monotonic; there is no unshare. On
// success the canonical post URL is copied to the clipboard when possible;
// the copy is best-effort and never masks the share result.
func (s *Synchronizer) Share(ctx context.Context, postID string) error {
	_, err := optimistic(ctx,
		s.postScope(postID),
		func() {
			s.cache.Update(postID, func(p *Post) {
				p.IsShared = true
				p.ShareCount++
			})
		},
		func(ctx context.Context) (*InteractionResult, error) {
			return s.posts.Share(ctx, postID)
		},
		func(res *InteractionResult) {
			s.cache.Update(postID, func(p *Post) {
				p.IsShared = res.IsShared
				p.ShareCount = res.ShareCount
			})
		},
	)
	if err != nil {
		s.surface(err, "Failed to share post")
		return err
	}

	if s.clipboard != nil {
		if cerr := s.clipboard.Copy(s.postURL(postID)); cerr == nil {
			s.notify(func(n Notifier) { n.Success("Post link copied to clipboard!") })
			return nil
		} else if s.logger != nil {
			s.logger.Warn("share link copy failed", "post_id", postID, "error", cerr)
		}
	}
	s.notify(func(n Notifier) { n.Success("Post shared successfully!") })
	return nil
}

// Comment validates and posts a comment. Empty text (after trimming) fails
// synchronously with a validation error and issues no request and no cache
// mutation. Otherwise a local placeholder comment is appended immediately
// and swapped for the server's record on success.
func (s *Synchronizer) Comment(ctx context.Context, postID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		err := Validationf("comment text is required")
		s.notify(func(n Notifier) { n.Error("Please enter a comment") })
		return err
	}

	pending := Comment{
		ID:        "pending-" + uuid.NewString(),
		PostID:    postID,
		Text:      text,
		Author:    s.viewer,
		CreatedAt: time.Now().UTC(),
	}

	_, err := optimistic(ctx,
		s.postScope(postID),
		func() {
			s.cache.Update(postID, func(p *Post) {
				p.Comments = append(p.Comments, pending)
				p.CommentCount++
			})
		},
		func(ctx context.Context) (*Comment, error) {
			return s.posts.Comment(ctx, postID, text)
		},
		func(created *Comment) {
			s.cache.Update(postID, func(p *Post) {
				for i := range p.Comments {
					if p.Comments[i].ID == pending.ID {
						p.Comments[i] = *created
						return
					}
				}
				// Placeholder already gone (page refetch raced us); the
				// merged server state is authoritative.
			})
		},
	)
	if err != nil {
		s.surface(err, "Failed to add comment")
		return err
	}
	s.notify(func(n Notifier) { n.Success("Comment added successfully!") })
	return nil
}

// Follow toggles the viewer's follow state for a user, with the same
// optimistic cycle applied to the profile cache.
func (s *Synchronizer) Follow(ctx context.Context, userID string, follow bool) error {
	_, err := optimistic(ctx,
		s.profileScope(userID),
		func() {
			s.cache.UpdateProfile(userID, func(u *UserProfile) {
				u.IsFollowing = follow
				if follow {
					u.FollowerCount++
				} else {
					u.FollowerCount--
				}
			})
		},
		func(ctx context.Context) (*FollowResult, error) {
			return s.users.Follow(ctx, userID)
		},
		func(res *FollowResult) {
			s.cache.UpdateProfile(userID, func(u *UserProfile) {
				u.IsFollowing = res.IsFollowing
				u.FollowerCount = res.FollowerCount
			})
		},
	)
	if err != nil {
		s.surface(err, "Failed to update follow status")
		return err
	}
	return nil
}

// surface reports a failed interaction. Auth failures additionally signal
// the login redirect; the optimistic action must not be retried without
// re-authenticating.
func (s *Synchronizer) surface(err error, message string) {
	if s.logger != nil {
		s.logger.Error("interaction failed", "kind", KindOf(err).String(), "error", err)
	}
	if IsAuth(err) {
		s.notify(func(n Notifier) {
			n.Error("Please log in to continue")
			n.RedirectToLogin()
		})
		return
	}
	s.notify(func(n Notifier) { n.Error(message) })
}

func (s *Synchronizer) notify(fn func(Notifier)) {
	if s.notifier != nil {
		fn(s.notifier)
	}
}
