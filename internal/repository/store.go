package repository

import (
	"context"
	"errors"

	"github.com/Freeeeeet/edulite_core/internal/model"
)

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate row")

// Lookups return (nil, nil) when the row does not exist.

type Users interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Search matches username, first or last name case-insensitively.
	Search(ctx context.Context, query string, excludeID int64) ([]*model.User, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
}

type Privacy interface {
	Get(ctx context.Context, userID int64) (*model.PrivacySettings, error)
	GetMany(ctx context.Context, userIDs []int64) (map[int64]*model.PrivacySettings, error)
	Upsert(ctx context.Context, settings *model.PrivacySettings) error
}

type Friends interface {
	FriendIDs(ctx context.Context, userID int64) (model.IDSet, error)
	AreFriends(ctx context.Context, a, b int64) (bool, error)
	HaveMutualFriends(ctx context.Context, a, b int64) (bool, error)
	// Add stores the friendship in both directions.
	Add(ctx context.Context, a, b int64) error
}

type FriendRequests interface {
	Create(ctx context.Context, req *model.FriendRequest) error
	GetByID(ctx context.Context, id int64) (*model.FriendRequest, error)
	Delete(ctx context.Context, id int64) error
	Exists(ctx context.Context, senderID, receiverID int64) (bool, error)
	ListIncoming(ctx context.Context, userID int64) ([]*model.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID int64) ([]*model.FriendRequest, error)
	// PeerIDs returns everyone with a pending request to or from userID.
	PeerIDs(ctx context.Context, userID int64) (model.IDSet, error)
}

type Courses interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	// LockByID reads the course and holds a row lock until the transaction ends.
	LockByID(ctx context.Context, id int64) (*model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id int64) error
	// List returns public courses and courses viewerID is enrolled in, newest first.
	List(ctx context.Context, viewerID int64, filter model.CourseFilter, page model.Page) ([]*model.Course, error)
}

type Memberships interface {
	Get(ctx context.Context, courseID, userID int64) (*model.CourseMembership, error)
	GetByID(ctx context.Context, id int64) (*model.CourseMembership, error)
	List(ctx context.Context, courseID int64, role *model.CourseRole, status *model.MembershipStatus) ([]*model.CourseMembership, error)
	// CountEnrolledTeachersExcept counts enrolled teachers of the course other than the given membership.
	CountEnrolledTeachersExcept(ctx context.Context, courseID, membershipID int64) (int, error)
	Create(ctx context.Context, m *model.CourseMembership) error
	Update(ctx context.Context, m *model.CourseMembership) error
	Delete(ctx context.Context, id int64) error
	CourseIDsForUser(ctx context.Context, userID int64) (model.IDSet, error)
	TeacherIDsForUser(ctx context.Context, userID int64) (model.IDSet, error)
}

type CourseModules interface {
	Create(ctx context.Context, m *model.CourseModule) error
	GetByID(ctx context.Context, id int64) (*model.CourseModule, error)
	Update(ctx context.Context, m *model.CourseModule) error
	Delete(ctx context.Context, id int64) error
	// ListByCourse returns the modules ordered by Order, then id.
	ListByCourse(ctx context.Context, courseID int64) ([]*model.CourseModule, error)
}

type Chats interface {
	RoomExists(ctx context.Context, roomID int64) (bool, error)
	RoomIDsForUser(ctx context.Context, userID int64) (model.IDSet, error)
	// SendersIn returns the users who posted at least one message in the rooms.
	SendersIn(ctx context.Context, roomIDs []int64) (model.IDSet, error)
}

type Slideshows interface {
	Create(ctx context.Context, s *model.Slideshow) error
	GetByID(ctx context.Context, id int64) (*model.Slideshow, error)
	LockByID(ctx context.Context, id int64) (*model.Slideshow, error)
	// Update writes all mutable fields including Version.
	Update(ctx context.Context, s *model.Slideshow) error
	Delete(ctx context.Context, id int64) error
	// List returns slideshows owned by viewerID plus published public ones, most recently updated first.
	List(ctx context.Context, viewerID int64, filter model.SlideshowFilter, page model.Page) ([]*model.Slideshow, error)
}

type Slides interface {
	Create(ctx context.Context, s *model.Slide) error
	GetByID(ctx context.Context, id int64) (*model.Slide, error)
	// LockByID reads the slide and holds a row lock until the transaction ends.
	LockByID(ctx context.Context, id int64) (*model.Slide, error)
	Update(ctx context.Context, s *model.Slide) error
	Delete(ctx context.Context, id int64) error
	ListBySlideshow(ctx context.Context, slideshowID int64) ([]*model.Slide, error)
	MaxOrder(ctx context.Context, slideshowID int64) (*int, error)
	OrderTaken(ctx context.Context, slideshowID int64, order int, exceptID int64) (bool, error)
}

type Suggestions interface {
	// Replace drops the stored suggestions of userID and stores the given ones.
	Replace(ctx context.Context, userID int64, suggestions []*model.FriendSuggestion) error
	List(ctx context.Context, userID int64, limit int) ([]*model.FriendSuggestion, error)
}

// Store groups the repositories over one connection scope.
type Store interface {
	Users() Users
	Privacy() Privacy
	Friends() Friends
	FriendRequests() FriendRequests
	Courses() Courses
	Memberships() Memberships
	CourseModules() CourseModules
	Chats() Chats
	Slideshows() Slideshows
	Slides() Slides
	Suggestions() Suggestions

	// InTx runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a transactional store reuses the open transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}
