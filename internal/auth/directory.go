package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Directory is the static username to role table loaded from configuration.
type Directory struct {
	users map[string]Role
}

func NewDirectory(users []User) (*Directory, error) {
	d := &Directory{users: make(map[string]Role, len(users))}
	for _, u := range users {
		name := strings.TrimSpace(u.Name)
		if name == "" {
			return nil, fmt.Errorf("directory entry with empty name")
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("user %s has unknown role %q", name, u.Role)
		}
		if _, dup := d.users[name]; dup {
			return nil, fmt.Errorf("user %s listed twice", name)
		}
		d.users[name] = u.Role
	}
	return d, nil
}

// Lookup returns the user or an *AuthError.
func (d *Directory) Lookup(name string) (User, error) {
	name = strings.TrimSpace(name)
	role, ok := d.users[name]
	if !ok {
		return User{}, &AuthError{Username: name}
	}
	return User{Name: name, Role: role}, nil
}

// Users returns the directory sorted by name.
func (d *Directory) Users() []User {
	out := make([]User, 0, len(d.users))
	for n, r := range d.users {
		out = append(out, User{Name: n, Role: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
