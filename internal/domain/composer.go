package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// maxCaptionLength matches the server-side caption cap.
const maxCaptionLength = 2200

// PostComposer drives the create-post flow: caption validation, image
// acquisition through the injected capture capability, upload, and cache
// insertion. The composer never touches the host directly, so it runs the
// same against a camera, a file picker, or a test stub.
type PostComposer struct {
	cache    *PostCache
	posts    PostService
	capture  MediaCapture
	notifier Notifier
	logger   *slog.Logger
}

// NewPostComposer wires the composer.
func NewPostComposer(
	cache *PostCache,
	posts PostService,
	capture MediaCapture,
	notifier Notifier,
	logger *slog.Logger,
) *PostComposer {
	return &PostComposer{
		cache:    cache,
		posts:    posts,
		capture:  capture,
		notifier: notifier,
		logger:   logger,
	}
}

// Compose validates the caption, captures an image, uploads the draft, and
// merges the created post into the cache. Validation failures are
// synchronous and issue no capture and no request.
func (c *PostComposer) Compose(ctx context.Context, caption, location string) (*Post, error) {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		err := Validationf("caption is required")
		c.notifyError("Please write a caption")
		return nil, err
	}
	if len(caption) > maxCaptionLength {
		err := Validationf("caption exceeds %d characters", maxCaptionLength)
		c.notifyError("Caption is too long")
		return nil, err
	}

	img, err := c.capture.Capture(ctx)
	if err != nil {
		c.notifyError("Unable to access camera. Please try uploading an image instead.")
		return nil, fmt.Errorf("capture image: %w", err)
	}
	if len(img.Data) == 0 {
		err := Validationf("image is required")
		c.notifyError("Please choose an image")
		return nil, err
	}

	post, err := c.posts.CreatePost(ctx, PostDraft{
		Caption:  caption,
		Location: strings.TrimSpace(location),
		Image:    img,
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Error("post upload failed", "error", err)
		}
		c.notifyError("Failed to create post")
		return nil, err
	}

	c.cache.MergePosts(*post)
	// The feed listing is stale now; force a refetch on next entry.
	c.cache.InvalidatePages("feed:")

	if c.notifier != nil {
		c.notifier.Success("Post created!")
	}
	return post, nil
}

func (c *PostComposer) notifyError(message string) {
	if c.notifier != nil {
		c.notifier.Error(message)
	}
}
