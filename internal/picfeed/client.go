// Package picfeed implements the picfeed REST API client consumed by the
// domain layer's ports.
package picfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/dmarsh/picfeed-client/internal/domain"
)

const (
	defaultBaseURL = "http://localhost:5000/api"

	feedPageSize    = 10
	galleryPageSize = 12
	userPageSize    = 20
)

// Client is the picfeed API client. It satisfies domain.PostService,
// domain.UserService and domain.AuthService.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates an API client. If baseURL is empty it defaults to the
// local development server.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken installs a bearer token, e.g. a session resumed from disk.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, empty when unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register creates an account and stores the returned session token.
func (c *Client) Register(ctx context.Context, params domain.RegisterParams) (*domain.Session, error) {
	body := map[string]string{
		"username": params.Username,
		"email":    params.Email,
		"password": params.Password,
	}

	var resp sessionResponse
	if err := c.post(ctx, "/auth/register", body, &resp); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	c.SetToken(resp.Token)
	session := resp.toDomain()
	return &session, nil
}

// Login authenticates and stores the returned session token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp sessionResponse
	if err := c.post(ctx, "/auth/login", body, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	c.SetToken(resp.Token)
	session := resp.toDomain()
	return &session, nil
}

// Me retrieves the authenticated viewer's profile.
func (c *Client) Me(ctx context.Context) (*domain.UserProfile, error) {
	var resp envelope[wireProfile]
	if err := c.get(ctx, "/auth/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("get me: %w", err)
	}
	profile := resp.Data.toDomain()
	return &profile, nil
}

// UpdateProfile updates the viewer's profile fields.
func (c *Client) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.UserProfile, error) {
	body := map[string]string{
		"username": update.Username,
		"bio":      update.Bio,
		"avatar":   update.AvatarURL,
	}

	var resp envelope[wireProfile]
	if err := c.put(ctx, "/auth/profile", body, &resp); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	profile := resp.Data.toDomain()
	return &profile, nil
}

// ChangePassword replaces the viewer's password.
func (c *Client) ChangePassword(ctx context.Context, current, updated string) error {
	body := map[string]string{
		"currentPassword": current,
		"newPassword":     updated,
	}
	if err := c.post(ctx, "/auth/change-password", body, nil); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// Feed retrieves one page of the followed-users feed.
func (c *Client) Feed(ctx context.Context, page int) (*domain.FeedPage, error) {
	return c.listing(ctx, "/posts/feed", page, feedPageSize)
}

// Explore retrieves one page of the public listing.
func (c *Client) Explore(ctx context.Context, page int) (*domain.FeedPage, error) {
	return c.listing(ctx, "/posts", page, feedPageSize)
}

// Post retrieves a single post.
func (c *Client) Post(ctx context.Context, id string) (*domain.Post, error) {
	var resp envelope[wirePost]
	if err := c.get(ctx, "/posts/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	post := resp.Data.toDomain()
	return &post, nil
}

// CreatePost uploads a new post as a multipart form (caption, image,
// optional location).
func (c *Client) CreatePost(ctx context.Context, draft domain.PostDraft) (*domain.Post, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if err := form.WriteField("caption", draft.Caption); err != nil {
		return nil, fmt.Errorf("write caption field: %w", err)
	}
	if draft.Location != "" {
		if err := form.WriteField("location", draft.Location); err != nil {
			return nil, fmt.Errorf("write location field: %w", err)
		}
	}

	name := draft.Image.Name
	if name == "" {
		name = "upload"
	}
	part, err := form.CreateFormFile("image", name)
	if err != nil {
		return nil, fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(draft.Image.Data); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	var resp envelope[wirePost]
	if err := c.do(ctx, http.MethodPost, "/posts", &buf, form.FormDataContentType(), &resp); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post := resp.Data.toDomain()
	return &post, nil
}

// DeletePost removes one of the viewer's own posts.
func (c *Client) DeletePost(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/posts/"+id, nil, "", nil); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// Like toggles the viewer's like on the server and returns the
// authoritative flag and count. The endpoint is a toggle; liked only
// documents the caller's intent.
func (c *Client) Like(ctx context.Context, id string, liked bool) (*domain.InteractionResult, error) {
	var resp envelope[wireInteraction]
	if err := c.post(ctx, "/posts/"+id+"/like", nil, &resp); err != nil {
		return nil, fmt.Errorf("like post: %w", err)
	}
	return &domain.InteractionResult{
		IsLiked:   resp.Data.IsLiked,
		LikeCount: resp.Data.LikeCount,
	}, nil
}

// Share records a share and returns the authoritative flag and count.
func (c *Client) Share(ctx context.Context, id string) (*domain.InteractionResult, error) {
	var resp envelope[wireInteraction]
	if err := c.post(ctx, "/posts/"+id+"/share", nil, &resp); err != nil {
		return nil, fmt.Errorf("share post: %w", err)
	}
	return &domain.InteractionResult{
		IsShared:   resp.Data.IsShared,
		ShareCount: resp.Data.ShareCount,
	}, nil
}

// Comment adds a comment and returns the created record.
func (c *Client) Comment(ctx context.Context, id, text string) (*domain.Comment, error) {
	body := map[string]string{"text": text}

	var resp envelope[wireComment]
	if err := c.post(ctx, "/posts/"+id+"/comment", body, &resp); err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	comment := resp.Data.toDomain(id)
	return &comment, nil
}

// User retrieves a user's profile.
func (c *Client) User(ctx context.Context, id string) (*domain.UserProfile, error) {
	var resp envelope[wireProfile]
	if err := c.get(ctx, "/users/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	profile := resp.Data.toDomain()
	return &profile, nil
}

// UserPosts retrieves one page of a user's gallery.
func (c *Client) UserPosts(ctx context.Context, id string, page int) (*domain.FeedPage, error) {
	return c.listing(ctx, "/users/"+id+"/posts", page, galleryPageSize)
}

// Follow toggles the viewer's follow state for a user.
func (c *Client) Follow(ctx context.Context, id string) (*domain.FollowResult, error) {
	var resp envelope[wireFollow]
	if err := c.post(ctx, "/users/"+id+"/follow", nil, &resp); err != nil {
		return nil, fmt.Errorf("follow user: %w", err)
	}
	return &domain.FollowResult{
		IsFollowing:   resp.Data.IsFollowing,
		FollowerCount: resp.Data.FollowerCount,
	}, nil
}

// Followers retrieves one page of a user's followers.
func (c *Client) Followers(ctx context.Context, id string, page int) ([]domain.Author, domain.Pagination, error) {
	return c.userListing(ctx, "/users/"+id+"/followers", page)
}

// Following retrieves one page of the users someone follows.
func (c *Client) Following(ctx context.Context, id string, page int) ([]domain.Author, domain.Pagination, error) {
	return c.userListing(ctx, "/users/"+id+"/following", page)
}

// Search retrieves one page of users matching the query.
func (c *Client) Search(ctx context.Context, query string, page int) ([]domain.UserProfile, domain.Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(userPageSize))
	q.Set("search", query)

	var resp envelope[wireUserPage]
	if err := c.get(ctx, "/users", q, &resp); err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("search users: %w", err)
	}

	profiles := make([]domain.UserProfile, len(resp.Data.Users))
	for i, u := range resp.Data.Users {
		profiles[i] = u.toDomain()
	}
	return profiles, resp.Data.Pagination.toDomain(), nil
}

func (c *Client) listing(ctx context.Context, path string, page, limit int) (*domain.FeedPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp envelope[wireFeedPage]
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, fmt.Errorf("get listing %s: %w", path, err)
	}

	posts := make([]domain.Post, len(resp.Data.Posts))
	for i, p := range resp.Data.Posts {
		posts[i] = p.toDomain()
	}
	return &domain.FeedPage{
		Posts:      posts,
		Pagination: resp.Data.Pagination.toDomain(),
	}, nil
}

func (c *Client) userListing(ctx context.Context, path string, page int) ([]domain.Author, domain.Pagination, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(userPageSize))

	var resp envelope[wireUserPage]
	if err := c.get(ctx, path, q, &resp); err != nil {
		return nil, domain.Pagination{}, fmt.Errorf("get listing %s: %w", path, err)
	}

	authors := make([]domain.Author, len(resp.Data.Users))
	for i, u := range resp.Data.Users {
		authors[i] = domain.Author{ID: u.ID, Username: u.Username, AvatarURL: u.Avatar}
	}
	return authors, resp.Data.Pagination.toDomain(), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, "", result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPut, path, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, result)
}

// do sends one request and decodes the response into result. Non-2xx
// responses become classified domain errors.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// classify maps an HTTP failure to the domain error taxonomy. 401 is the
// unauthenticated signal; 404 is a missing record; other 4xx are rejected
// input; everything else counts as a transient network/server failure.
func classify(status int, body []byte) error {
	message := string(body)
	var apiErr struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			message = apiErr.Message
		} else if apiErr.Error != "" {
			message = apiErr.Error
		}
	}

	kind := domain.KindNetwork
	switch {
	case status == http.StatusUnauthorized:
		kind = domain.KindAuth
	case status == http.StatusNotFound:
		kind = domain.KindNotFound
	case status >= 400 && status < 500:
		kind = domain.KindValidation
	}

	return &domain.Error{Kind: kind, Status: status, Message: message}
}
