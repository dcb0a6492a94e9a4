// SPDX-License-Identifier: AGPL-3.0-only
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fluffyriot/notbadfeed/internal/commentcache"
	"github.com/fluffyriot/notbadfeed/internal/feedapi"
)

// User-facing failures. The wrapped cause is only logged.
var (
	ErrLogin         = errors.New("Login failed, please check your credentials.")
	ErrFetchPosts    = errors.New("Failed to fetch posts.")
	ErrEmptyComment  = errors.New("Comment cannot be empty.")
	ErrPostComment   = errors.New("Failed to post comment.")
	ErrDeleteComment = errors.New("Failed to delete comment.")
)

// API is the part of feedapi.Client the service depends on.
type API interface {
	Login(ctx context.Context, email, password string) (*feedapi.LoginResponse, error)
	Feed(ctx context.Context, userID int) ([]feedapi.FeedPost, error)
	Comments(ctx context.Context, postID int) ([]feedapi.Comment, error)
	CreateComment(ctx context.Context, nc feedapi.NewComment) (*feedapi.Comment, error)
	DeleteComment(ctx context.Context, commentID int) error
}

type Service struct {
	api    API
	store  commentcache.Store
	logger *slog.Logger
}

func NewService(api API, store commentcache.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, store: store, logger: logger}
}

func (s *Service) Login(ctx context.Context, email, password string) (*feedapi.LoginResponse, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.WarnContext(ctx, "login failed", slog.String("email", email), slog.String("error", err.Error()))
		return nil, ErrLogin
	}
	return resp, nil
}

func (s *Service) LoadFeed(ctx context.Context, userID int) ([]feedapi.FeedPost, error) {
	posts, err := s.api.Feed(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to fetch feed", slog.Int("user_id", userID), slog.String("error", err.Error()))
		return nil, ErrFetchPosts
	}
	return posts, nil
}

// View returns the session's comment state, empty when nothing was cached.
func (s *Service) View(ctx context.Context, sid string) *commentcache.State {
	st, err := s.load(ctx, sid)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load comment cache", slog.String("error", err.Error()))
		return commentcache.NewState()
	}
	return st
}

func (s *Service) load(ctx context.Context, sid string) (*commentcache.State, error) {
	st, err := s.store.Load(ctx, sid)
	if errors.Is(err, commentcache.ErrNotFound) {
		return commentcache.NewState(), nil
	}
	return st, err
}

// ToggleComments expands or collapses a post's comments. Only the first
// expansion hits the API. A failed fetch is logged and leaves the post
// collapsed.
func (s *Service) ToggleComments(ctx context.Context, sid string, postID int) error {
	st, err := s.load(ctx, sid)
	if err != nil {
		return fmt.Errorf("load comment cache: %w", err)
	}

	if st.Cached(postID) {
		st.Toggle(postID)
		return s.store.Save(ctx, sid, st)
	}

	comments, err := s.api.Comments(ctx, postID)
	if err != nil {
		s.logger.ErrorContext(ctx, fmt.Sprintf("Failed to fetch comments for post %d", postID), slog.String("error", err.Error()))
		return nil
	}

	st.Put(postID, comments)
	return s.store.Save(ctx, sid, st)
}

func (s *Service) AddComment(ctx context.Context, sid string, userID, postID int, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyComment
	}

	created, err := s.api.CreateComment(ctx, feedapi.NewComment{
		UserID:  userID,
		PostID:  postID,
		Content: content,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to post comment", slog.Int("post_id", postID), slog.String("error", err.Error()))
		return ErrPostComment
	}

	st, err := s.load(ctx, sid)
	if err != nil {
		return fmt.Errorf("load comment cache: %w", err)
	}
	st.Append(postID, *created)
	return s.store.Save(ctx, sid, st)
}

func (s *Service) DeleteComment(ctx context.Context, sid string, postID, commentID int) error {
	if err := s.api.DeleteComment(ctx, commentID); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete comment", slog.Int("comment_id", commentID), slog.String("error", err.Error()))
		return ErrDeleteComment
	}

	st, err := s.load(ctx, sid)
	if err != nil {
		return fmt.Errorf("load comment cache: %w", err)
	}
	st.Remove(postID, commentID)
	return s.store.Save(ctx, sid, st)
}

// Forget drops everything cached for the session.
func (s *Service) Forget(ctx context.Context, sid string) error {
	return s.store.Drop(ctx, sid)
}
