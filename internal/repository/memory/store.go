// Package memory is an in-process implementation of repository.Store used
// by tests and local tooling. Transactions hold a store-wide lock and roll
// back by restoring a snapshot taken at begin.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/edulite_core/internal/model"
	"github.com/Freeeeeet/edulite_core/internal/repository"
)

type tables struct {
	seq         int64
	users       map[int64]model.User
	privacy     map[int64]model.PrivacySettings
	friends     map[int64]model.IDSet
	requests    map[int64]model.FriendRequest
	courses     map[int64]model.Course
	memberships map[int64]model.CourseMembership
	modules     map[int64]model.CourseModule
	rooms       map[int64]model.IDSet
	messages    []model.ChatMessage
	slideshows  map[int64]model.Slideshow
	slides      map[int64]model.Slide
	suggestions map[int64][]model.FriendSuggestion
}

func newTables() *tables {
	return &tables{
		users:       make(map[int64]model.User),
		privacy:     make(map[int64]model.PrivacySettings),
		friends:     make(map[int64]model.IDSet),
		requests:    make(map[int64]model.FriendRequest),
		courses:     make(map[int64]model.Course),
		memberships: make(map[int64]model.CourseMembership),
		modules:     make(map[int64]model.CourseModule),
		rooms:       make(map[int64]model.IDSet),
		slideshows:  make(map[int64]model.Slideshow),
		slides:      make(map[int64]model.Slide),
		suggestions: make(map[int64][]model.FriendSuggestion),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSets(m map[int64]model.IDSet) map[int64]model.IDSet {
	out := make(map[int64]model.IDSet, len(m))
	for k, set := range m {
		out[k] = cloneMap(set)
	}
	return out
}

func (t *tables) clone() *tables {
	suggestions := make(map[int64][]model.FriendSuggestion, len(t.suggestions))
	for k, v := range t.suggestions {
		suggestions[k] = append([]model.FriendSuggestion(nil), v...)
	}
	return &tables{
		seq:         t.seq,
		users:       cloneMap(t.users),
		privacy:     cloneMap(t.privacy),
		friends:     cloneSets(t.friends),
		requests:    cloneMap(t.requests),
		courses:     cloneMap(t.courses),
		memberships: cloneMap(t.memberships),
		modules:     cloneMap(t.modules),
		rooms:       cloneSets(t.rooms),
		messages:    append([]model.ChatMessage(nil), t.messages...),
		slideshows:  cloneMap(t.slideshows),
		slides:      cloneMap(t.slides),
		suggestions: suggestions,
	}
}

func (t *tables) nextID() int64 {
	t.seq++
	return t.seq
}

type db struct {
	mu sync.Mutex
	t  *tables
}

// Store implements repository.Store in memory. The zero value is not usable; call NewStore.
type Store struct {
	db   *db
	inTx bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{db: &db{t: newTables()}}
}

// with runs fn under the store lock, unless the caller already holds it inside InTx.
func (s *Store) with(fn func(t *tables) error) error {
	if !s.inTx {
		s.db.mu.Lock()
		defer s.db.mu.Unlock()
	}
	return fn(s.db.t)
}

func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.t.clone()
	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.t = snapshot
		return err
	}
	return nil
}

func (s *Store) Users() repository.Users                   { return usersRepo{s} }
func (s *Store) Privacy() repository.Privacy               { return privacyRepo{s} }
func (s *Store) Friends() repository.Friends               { return friendsRepo{s} }
func (s *Store) FriendRequests() repository.FriendRequests { return requestsRepo{s} }
func (s *Store) Courses() repository.Courses               { return coursesRepo{s} }
func (s *Store) Memberships() repository.Memberships       { return membershipsRepo{s} }
func (s *Store) CourseModules() repository.CourseModules   { return modulesRepo{s} }
func (s *Store) Chats() repository.Chats                   { return chatsRepo{s} }
func (s *Store) Slideshows() repository.Slideshows         { return slideshowsRepo{s} }
func (s *Store) Slides() repository.Slides                 { return slidesRepo{s} }
func (s *Store) Suggestions() repository.Suggestions       { return suggestionsRepo{s} }

// AddChatRoom creates a room with the given participants and returns its id.
func (s *Store) AddChatRoom(participants ...int64) int64 {
	var id int64
	_ = s.with(func(t *tables) error {
		id = t.nextID()
		t.rooms[id] = model.NewIDSet(participants...)
		return nil
	})
	return id
}

// AddChatMessage records a message posted by senderID in roomID.
func (s *Store) AddChatMessage(roomID, senderID int64, content string) {
	_ = s.with(func(t *tables) error {
		t.messages = append(t.messages, model.ChatMessage{
			ID:         t.nextID(),
			ChatRoomID: roomID,
			SenderID:   senderID,
			Content:    content,
			CreatedAt:  time.Now(),
		})
		return nil
	})
}

func page[T any](items []T, p model.Page) []T {
	p = p.Normalize()
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + p.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
