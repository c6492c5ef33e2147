package policy

import (
	"sort"

	"github.com/Freeeeeet/edulite_core/internal/model"
)

const (
	FieldURL        = "url"
	FieldUsername   = "username"
	FieldProfileURL = "profile_url"
	FieldEmail      = "email"
	FieldFirstName  = "first_name"
	FieldLastName   = "last_name"
	FieldFullName   = "full_name"
)

// FieldSet is a set of visible field names.
type FieldSet map[string]struct{}

func (s FieldSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s FieldSet) add(names ...string) {
	for _, name := range names {
		s[name] = struct{}{}
	}
}

// Names returns the field names sorted.
func (s FieldSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func seesEverything(ownerID int64, actor *model.Actor) bool {
	return actor.Is(ownerID) || actor.IsPrivileged()
}

// ShouldShowEmail: hidden unless self, privileged or opted in. No record hides it.
func (e *Evaluator) ShouldShowEmail(p Profile, actor *model.Actor) bool {
	if seesEverything(p.OwnerID, actor) {
		return true
	}
	if p.Settings == nil {
		return false
	}
	return p.Settings.ShowEmail
}

// ShouldShowFullName: shown unless opted out. No record shows it.
func (e *Evaluator) ShouldShowFullName(p Profile, actor *model.Actor) bool {
	if seesEverything(p.OwnerID, actor) {
		return true
	}
	if p.Settings == nil {
		return true
	}
	return p.Settings.ShowFullName
}

// VisibleFields lists the profile fields actor may see.
func (e *Evaluator) VisibleFields(p Profile, actor *model.Actor) FieldSet {
	visible := FieldSet{}
	visible.add(FieldURL, FieldUsername, FieldProfileURL)
	if e.ShouldShowEmail(p, actor) {
		visible.add(FieldEmail)
	}
	if e.ShouldShowFullName(p, actor) {
		visible.add(FieldFirstName, FieldLastName, FieldFullName)
	}
	return visible
}

// UserCard is a user rendered through VisibleFields. Hidden fields are empty.
type UserCard struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
}

// Card applies the visible field set to u.
func (e *Evaluator) Card(u *model.User, settings *model.PrivacySettings, actor *model.Actor) UserCard {
	visible := e.VisibleFields(Profile{OwnerID: u.ID, Settings: settings}, actor)
	card := UserCard{ID: u.ID, Username: u.Username}
	if visible.Has(FieldEmail) {
		card.Email = u.Email
	}
	if visible.Has(FieldFullName) {
		card.FirstName = u.FirstName
		card.LastName = u.LastName
		card.FullName = u.FullName()
	}
	return card
}
