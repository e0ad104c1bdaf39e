// Command picfeed is a terminal client for the picfeed photo-sharing API:
// session management, feed browsing, interactions, post creation, and a live
// watch mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmarsh/picfeed-client/internal/config"
	"github.com/dmarsh/picfeed-client/internal/domain"
	"github.com/dmarsh/picfeed-client/internal/host"
	"github.com/dmarsh/picfeed-client/internal/live"
	"github.com/dmarsh/picfeed-client/internal/picfeed"
	"github.com/dmarsh/picfeed-client/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		register bool
		login    bool
		logout   bool
		username string
		email    string
		password string

		feed    bool
		explore bool
		pages   int

		likeID    string
		unlikeID  string
		shareID   string
		commentID string
		text      string

		imagePath string
		caption   string
		location  string

		deleteID string

		profileID   string
		followID    string
		unfollowID  string
		searchQuery string

		watch bool
	)

	flag.BoolVar(&register, "register", false, "Create an account")
	flag.BoolVar(&login, "login", false, "Sign in and persist the session")
	flag.BoolVar(&logout, "logout", false, "Discard the persisted session")
	flag.StringVar(&username, "user", "", "Username (for -register)")
	flag.StringVar(&email, "email", envOrDefault("PICFEED_EMAIL", ""), "Account email")
	flag.StringVar(&password, "pass", envOrDefault("PICFEED_PASSWORD", ""), "Account password")

	flag.BoolVar(&feed, "feed", false, "Show the followed-users feed")
	flag.BoolVar(&explore, "explore", false, "Show the public listing")
	flag.IntVar(&pages, "pages", 1, "Number of listing pages to accumulate")

	flag.StringVar(&likeID, "like", "", "Like the post with this ID")
	flag.StringVar(&unlikeID, "unlike", "", "Unlike the post with this ID")
	flag.StringVar(&shareID, "share", "", "Share the post with this ID")
	flag.StringVar(&commentID, "comment", "", "Comment on the post with this ID")
	flag.StringVar(&text, "text", "", "Comment text (for -comment)")

	flag.StringVar(&imagePath, "post", "", "Create a post from this image file")
	flag.StringVar(&caption, "caption", "", "Post caption (for -post)")
	flag.StringVar(&location, "location", "", "Post location (for -post)")

	flag.StringVar(&deleteID, "delete", "", "Delete your post with this ID")

	flag.StringVar(&profileID, "profile", "", "Show the profile and gallery of this user ID")
	flag.StringVar(&followID, "follow", "", "Follow the user with this ID")
	flag.StringVar(&unfollowID, "unfollow", "", "Unfollow the user with this ID")
	flag.StringVar(&searchQuery, "search", "", "Search users by name")

	flag.BoolVar(&watch, "watch", false, "Stay connected and apply live counter updates")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := session.Open(cfg.SessionDBPath)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	client := picfeed.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)

	token, viewer, err := store.Load()
	switch {
	case err == nil:
		client.SetToken(token)
	case errors.Is(err, session.ErrNoSession):
		// Not signed in; commands that need a session will say so.
	default:
		return err
	}

	cache := domain.NewPostCache()
	notifier := host.NewConsoleNotifier(os.Stdout)

	var clipboard domain.Clipboard
	if cfg.ClipboardCommand != "" {
		clipboard, err = host.NewCommandClipboard(cfg.ClipboardCommand)
		if err != nil {
			return err
		}
	} else {
		clipboard = &host.MemoryClipboard{}
	}

	syncer := domain.NewSynchronizer(cache, client, client, clipboard, notifier, cfg.PostURL, logger)
	if viewer != nil {
		syncer.SetViewer(domain.Author{ID: viewer.ID, Username: viewer.Username, AvatarURL: viewer.AvatarURL})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmdErr := func() error {
		switch {
		case register:
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("-register needs -user, -email and -pass")
			}
			sess, err := client.Register(ctx, domain.RegisterParams{Username: username, Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := store.Save(sess.Token, sess.User); err != nil {
				return err
			}
			fmt.Printf("Registered and signed in as %s\n", sess.User.Username)
			return nil

		case login:
			if email == "" || password == "" {
				return fmt.Errorf("-login needs -email and -pass (or PICFEED_EMAIL / PICFEED_PASSWORD)")
			}
			sess, err := client.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := store.Save(sess.Token, sess.User); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s\n", sess.User.Username)
			return nil

		case logout:
			if err := store.Clear(); err != nil {
				return err
			}
			fmt.Println("Signed out")
			return nil

		case feed, explore:
			fetch := client.Explore
			name := "explore"
			if feed {
				if viewer == nil {
					return fmt.Errorf("the feed needs a session; run -login first")
				}
				fetch = client.Feed
				name = "feed"
			}

			acc := domain.NewFeedAccumulator(name, cache, fetch)
			controller := domain.NewFeedController(ctx, acc, syncer, host.NewConsoleNavigator(os.Stdout), logger)
			if err := controller.Enter(); err != nil {
				return err
			}
			actions := controller.Actions()
			for p := 1; p < pages; p++ {
				actions.OnLoadMore()
				controller.Wait()
			}
			data := controller.Data()
			if data.Err != nil {
				return data.Err
			}
			printPosts(data.Posts)
			return nil

		case likeID != "" || unlikeID != "":
			id, liked := likeID, true
			if unlikeID != "" {
				id, liked = unlikeID, false
			}
			if err := primePost(ctx, client, cache, id); err != nil {
				return err
			}
			return syncer.Like(ctx, id, liked)

		case shareID != "":
			if viewer == nil {
				// Unauthenticated shares aren't tracked; just hand over the link.
				if err := clipboard.Copy(cfg.PostURL(shareID)); err == nil {
					notifier.Success("Post link copied to clipboard!")
				} else {
					fmt.Println(cfg.PostURL(shareID))
				}
				return nil
			}
			if err := primePost(ctx, client, cache, shareID); err != nil {
				return err
			}
			return syncer.Share(ctx, shareID)

		case commentID != "":
			if err := primePost(ctx, client, cache, commentID); err != nil {
				return err
			}
			return syncer.Comment(ctx, commentID, text)

		case imagePath != "":
			composer := domain.NewPostComposer(cache, client, host.NewFileCapture(imagePath), notifier, logger)
			post, err := composer.Compose(ctx, caption, location)
			if err != nil {
				return err
			}
			fmt.Printf("Created post %s\n", post.ID)
			return nil

		case deleteID != "":
			if err := client.DeletePost(ctx, deleteID); err != nil {
				return err
			}
			cache.InvalidatePost(deleteID)
			cache.InvalidatePages("feed:")
			fmt.Printf("Deleted post %s\n", deleteID)
			return nil

		case profileID != "":
			profile, err := client.User(ctx, profileID)
			if err != nil {
				return err
			}
			cache.MergeProfile(*profile)
			printProfile(profile)

			gallery := domain.NewFeedAccumulator("user:"+profileID, cache, func(ctx context.Context, page int) (*domain.FeedPage, error) {
				return client.UserPosts(ctx, profileID, page)
			})
			if err := gallery.Load(ctx); err != nil {
				return err
			}
			printPosts(gallery.Posts())
			return nil

		case followID != "" || unfollowID != "":
			id, follow := followID, true
			if unfollowID != "" {
				id, follow = unfollowID, false
			}
			profile, err := client.User(ctx, id)
			if err != nil {
				return err
			}
			cache.MergeProfile(*profile)
			return syncer.Follow(ctx, id, follow)

		case searchQuery != "":
			profiles, _, err := client.Search(ctx, searchQuery, 1)
			if err != nil {
				return err
			}
			for i := range profiles {
				printProfile(&profiles[i])
			}
			return nil

		case watch:
			if cfg.StreamURL == "" {
				return fmt.Errorf("-watch needs PICFEED_STREAM_URL")
			}
			return runWatch(ctx, cancel, cfg, client, cache, logger)

		default:
			flag.Usage()
			return nil
		}
	}()

	if domain.IsAuth(cmdErr) {
		// The server rejected the session; drop it so the next invocation
		// goes straight to login.
		if err := store.Clear(); err != nil {
			logger.Warn("clear rejected session", "error", err)
		}
	}
	return cmdErr
}

// runWatch loads the first feed page, then keeps the cache current from the
// live event stream until interrupted.
func runWatch(
	ctx context.Context,
	cancel context.CancelFunc,
	cfg *config.Config,
	client *picfeed.Client,
	cache *domain.PostCache,
	logger *slog.Logger,
) error {
	acc := domain.NewFeedAccumulator("feed", cache, client.Feed)
	if err := acc.Load(ctx); err != nil {
		return err
	}
	printPosts(acc.Posts())

	subscriber := live.NewSubscriber(cfg.StreamURL, cache, logger)
	go func() {
		if err := subscriber.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("event stream exited with error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Printf("received %s, final feed state:\n", sig)
	cancel()

	printPosts(acc.Posts())
	return nil
}

// primePost ensures the post is cached before an interaction, the way a
// screen would have rendered it first.
func primePost(ctx context.Context, client *picfeed.Client, cache *domain.PostCache, id string) error {
	post, err := client.Post(ctx, id)
	if err != nil {
		return err
	}
	cache.MergePosts(*post)
	return nil
}

func printPosts(posts []domain.Post) {
	for _, p := range posts {
		likedMark := " "
		if p.IsLiked {
			likedMark = "♥"
		}
		fmt.Printf("%s %s  @%s  likes:%d shares:%d comments:%d\n  %s\n",
			likedMark, p.ID, p.Author.Username, p.LikeCount, p.ShareCount, p.CommentCount, p.Caption)
		if p.Location != "" {
			fmt.Printf("  at %s\n", p.Location)
		}
	}
}

func printProfile(u *domain.UserProfile) {
	following := ""
	if u.IsFollowing {
		following = " (following)"
	}
	fmt.Printf("@%s%s\n  posts:%d followers:%d following:%d\n",
		u.Username, following, u.PostCount, u.FollowerCount, u.FollowingCount)
	if u.Bio != "" {
		fmt.Printf("  %s\n", u.Bio)
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
