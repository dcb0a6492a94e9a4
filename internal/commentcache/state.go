// SPDX-License-Identifier: AGPL-3.0-only

// Package commentcache keeps the comments a browser session has expanded,
// together with which posts currently show them.
package commentcache

import (
	"context"
	"errors"

	"github.com/fluffyriot/notbadfeed/internal/feedapi"
)

var ErrNotFound = errors.New("no cached state for session")

type State struct {
	Comments map[int][]feedapi.Comment `json:"comments"`
	Visible  map[int]bool              `json:"visible"`
}

func NewState() *State {
	return &State{
		Comments: make(map[int][]feedapi.Comment),
		Visible:  make(map[int]bool),
	}
}

func (s *State) Cached(postID int) bool {
	_, ok := s.Comments[postID]
	return ok
}

func (s *State) IsVisible(postID int) bool {
	return s.Visible[postID]
}

func (s *State) List(postID int) []feedapi.Comment {
	return s.Comments[postID]
}

// Put stores the fetched comments and expands the post.
func (s *State) Put(postID int, comments []feedapi.Comment) {
	if comments == nil {
		comments = []feedapi.Comment{}
	}
	s.Comments[postID] = comments
	s.Visible[postID] = true
}

// Toggle flips visibility and reports the new value.
func (s *State) Toggle(postID int) bool {
	s.Visible[postID] = !s.Visible[postID]
	return s.Visible[postID]
}

func (s *State) Append(postID int, c feedapi.Comment) {
	s.Comments[postID] = append(s.Comments[postID], c)
}

func (s *State) Remove(postID, commentID int) {
	list, ok := s.Comments[postID]
	if !ok {
		return
	}
	kept := make([]feedapi.Comment, 0, len(list))
	for _, c := range list {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	s.Comments[postID] = kept
}

func (s *State) Clone() *State {
	out := NewState()
	for id, list := range s.Comments {
		out.Comments[id] = append([]feedapi.Comment{}, list...)
	}
	for id, v := range s.Visible {
		out.Visible[id] = v
	}
	return out
}

// Store persists one State per session id. Load returns ErrNotFound for an
// unknown session.
type Store interface {
	Load(ctx context.Context, sid string) (*State, error)
	Save(ctx context.Context, sid string, s *State) error
	Drop(ctx context.Context, sid string) error
}
