package picfeed

import (
	"time"

	"github.com/dmarsh/picfeed-client/internal/domain"
)

// envelope is the server's standard response wrapper.
type envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  wireProfile `json:"user"`
}

func (r sessionResponse) toDomain() domain.Session {
	return domain.Session{
		Token: r.Token,
		User:  r.User.toDomain(),
	}
}

type wireAuthor struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func (a wireAuthor) toDomain() domain.Author {
	return domain.Author{ID: a.ID, Username: a.Username, AvatarURL: a.Avatar}
}

type wirePost struct {
	ID           string        `json:"_id"`
	Caption      string        `json:"caption"`
	Image        string        `json:"image"`
	Location     string        `json:"location,omitempty"`
	Author       wireAuthor    `json:"author"`
	CreatedAt    time.Time     `json:"createdAt"`
	LikeCount    int           `json:"likeCount"`
	ShareCount   int           `json:"shareCount"`
	CommentCount int           `json:"commentCount"`
	IsLiked      bool          `json:"isLiked"`
	IsShared     bool          `json:"isShared"`
	Comments     []wireComment `json:"comments,omitempty"`
}

func (p wirePost) toDomain() domain.Post {
	post := domain.Post{
		ID:           p.ID,
		Caption:      p.Caption,
		ImageURL:     p.Image,
		Location:     p.Location,
		Author:       p.Author.toDomain(),
		CreatedAt:    p.CreatedAt,
		LikeCount:    p.LikeCount,
		ShareCount:   p.ShareCount,
		CommentCount: p.CommentCount,
		IsLiked:      p.IsLiked,
		IsShared:     p.IsShared,
	}
	if p.Comments != nil {
		post.Comments = make([]domain.Comment, len(p.Comments))
		for i, c := range p.Comments {
			post.Comments[i] = c.toDomain(p.ID)
		}
	}
	return post
}

type wireComment struct {
	ID        string     `json:"_id"`
	Text      string     `json:"text"`
	Author    wireAuthor `json:"author"`
	CreatedAt time.Time  `json:"createdAt"`
}

func (c wireComment) toDomain(postID string) domain.Comment {
	return domain.Comment{
		ID:        c.ID,
		PostID:    postID,
		Text:      c.Text,
		Author:    c.Author.toDomain(),
		CreatedAt: c.CreatedAt,
	}
}

type wireProfile struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	Bio            string `json:"bio,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	FollowerCount  int    `json:"followerCount"`
	FollowingCount int    `json:"followingCount"`
	PostCount      int    `json:"postCount"`
	IsFollowing    bool   `json:"isFollowing"`
}

func (u wireProfile) toDomain() domain.UserProfile {
	return domain.UserProfile{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Bio:            u.Bio,
		AvatarURL:      u.Avatar,
		FollowerCount:  u.FollowerCount,
		FollowingCount: u.FollowingCount,
		PostCount:      u.PostCount,
		IsFollowing:    u.IsFollowing,
	}
}

type wirePagination struct {
	Page    int  `json:"page"`
	HasNext bool `json:"hasNext"`
}

func (p wirePagination) toDomain() domain.Pagination {
	return domain.Pagination{Page: p.Page, HasNext: p.HasNext}
}

type wireFeedPage struct {
	Posts      []wirePost     `json:"posts"`
	Pagination wirePagination `json:"pagination"`
}

type wireUserPage struct {
	Users      []wireProfile  `json:"users"`
	Pagination wirePagination `json:"pagination"`
}

type wireInteraction struct {
	IsLiked    bool `json:"isLiked"`
	LikeCount  int  `json:"likeCount"`
	IsShared   bool `json:"isShared"`
	ShareCount int  `json:"shareCount"`
}

type wireFollow struct {
	IsFollowing   bool `json:"isFollowing"`
	FollowerCount int  `json:"followerCount"`
}
