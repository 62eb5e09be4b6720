package user

import "fmt"

// Demographics holds the categorical attributes of a user.
// AgeGroup and Gender are already bucket indices; Occupation is the raw value
// from the user table and is mapped to an index by the feature vocabulary.
type Demographics struct {
	AgeGroup   int
	Gender     int
	Occupation string
}

// User is a known user with their rated/watched history (immutable value object).
type User struct {
	id   int
	demo *Demographics
	seen []int
	set  map[int]struct{}
}

// New creates a User. demo may be nil. Duplicate history entries are collapsed.
func New(id int, demo *Demographics, seen []int) User {
	u := User{id: id, set: make(map[int]struct{}, len(seen))}
	if demo != nil {
		d := *demo
		u.demo = &d
	}
	for _, itemID := range seen {
		if _, ok := u.set[itemID]; ok {
			continue
		}
		u.set[itemID] = struct{}{}
		u.seen = append(u.seen, itemID)
	}
	return u
}

// ID returns the user identifier.
func (u *User) ID() int { return u.id }

// Demographics returns the categorical attributes; ok is false when absent.
func (u *User) Demographics() (Demographics, bool) {
	if u.demo == nil {
		return Demographics{}, false
	}
	return *u.demo, true
}

// Seen returns rated/watched item ids in first-seen order.
func (u *User) Seen() []int { return u.seen }

// HasSeen reports whether the user already rated or watched itemID.
func (u *User) HasSeen(itemID int) bool {
	_, ok := u.set[itemID]
	return ok
}

// Directory is the user table, keyed by user id. Immutable after construction.
type Directory struct {
	byID  map[int]User
	order []int
}

// NewDirectory indexes users by id. Duplicate ids are rejected.
func NewDirectory(users []User) (*Directory, error) {
	d := &Directory{byID: make(map[int]User, len(users)), order: make([]int, 0, len(users))}
	for _, u := range users {
		if _, dup := d.byID[u.id]; dup {
			return nil, fmt.Errorf("duplicate user id %d", u.id)
		}
		d.byID[u.id] = u
		d.order = append(d.order, u.id)
	}
	return d, nil
}

// Get returns the user with id.
func (d *Directory) Get(id int) (User, bool) {
	u, ok := d.byID[id]
	return u, ok
}

// Users returns all users in load order.
func (d *Directory) Users() []User {
	out := make([]User, len(d.order))
	for i, id := range d.order {
		out[i] = d.byID[id]
	}
	return out
}

// Len returns the number of users.
func (d *Directory) Len() int { return len(d.byID) }
