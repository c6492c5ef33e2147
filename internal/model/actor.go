package model

// Actor is the identity behind a request. A nil *Actor is an anonymous requester.
type Actor struct {
	UserID      int64
	Occupation  string
	IsStaff     bool
	IsSuperuser bool
}

// ActorFromUser builds the actor for an authenticated user.
func ActorFromUser(u *User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{
		UserID:      u.ID,
		Occupation:  u.Occupation,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

// IsAnonymous is true for a nil actor.
func (a *Actor) IsAnonymous() bool {
	return a == nil
}

// Is reports whether the actor is the given user.
func (a *Actor) Is(userID int64) bool {
	return a != nil && a.UserID == userID
}

// IsPrivileged reports staff or superuser status.
func (a *Actor) IsPrivileged() bool {
	return a != nil && (a.IsStaff || a.IsSuperuser)
}

// IsTeacher reports whether the actor's occupation is teacher.
func (a *Actor) IsTeacher() bool {
	return a != nil && a.Occupation == OccupationTeacher
}
