package api

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/consorcioci/viernes/internal/util"
)

// tempPasswordLen is the length of generated temporary passwords.
const tempPasswordLen = 10

var (
	errUnknownCedula = errors.New("unknown cedula")
	errUserInactive  = errors.New("user inactive")
)

// UserSpec describes a portal user to add to a Directory. When Password is
// empty the user gets a temporary password and must change it on first
// login.
type UserSpec struct {
	Cedula            string
	Name              string
	Cargo             string
	Password          string
	TemporaryPassword string
	Inactive          bool
}

type user struct {
	cedula     string
	name       string
	cargo      string
	active     bool
	mustChange bool
	temporary  util.PasswordHash
	password   util.PasswordHash
}

// Directory is the mock server's in-memory user table.
type Directory struct {
	mu     sync.RWMutex
	users  map[string]*user
	params util.Argon2idParams
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

// WithArgon2Params overrides the password hashing cost.
func WithArgon2Params(p util.Argon2idParams) DirectoryOption {
	return func(d *Directory) { d.params = p }
}

// NewDirectory returns an empty directory.
func NewDirectory(opts ...DirectoryOption) *Directory {
	d := &Directory{
		users:  make(map[string]*user),
		params: util.DefaultArgon2idParams(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Add registers spec and returns the temporary password it was given, or ""
// when the user has a definitive password.
func (d *Directory) Add(spec UserSpec) (string, error) {
	cedula := strings.TrimSpace(spec.Cedula)
	if cedula == "" {
		return "", errors.New("cedula is required")
	}
	u := &user{cedula: cedula, name: spec.Name, cargo: spec.Cargo, active: !spec.Inactive}

	var temp string
	if spec.Password != "" {
		h, err := util.HashPassword(spec.Password, d.params)
		if err != nil {
			return "", fmt.Errorf("hashing password for %s: %w", cedula, err)
		}
		u.password = h
	} else {
		temp = spec.TemporaryPassword
		if temp == "" {
			var err error
			if temp, err = util.RandomChars(tempPasswordLen); err != nil {
				return "", err
			}
		}
		h, err := util.HashPassword(temp, d.params)
		if err != nil {
			return "", fmt.Errorf("hashing temporary password for %s: %w", cedula, err)
		}
		u.temporary = h
		u.mustChange = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[cedula] = u
	return temp, nil
}

// Len returns the number of users.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}

func (d *Directory) get(cedula string) (user, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[cedula]
	if !ok {
		return user{}, errUnknownCedula
	}
	if !u.active {
		return user{}, errUserInactive
	}
	return *u, nil
}

func (d *Directory) checkTemporary(cedula, password string) (user, bool) {
	u, err := d.get(cedula)
	if err != nil || !u.mustChange {
		return user{}, false
	}
	return u, u.temporary.Matches(password)
}

func (d *Directory) checkPassword(cedula, password string) (user, bool) {
	u, err := d.get(cedula)
	if err != nil || u.mustChange {
		return user{}, false
	}
	return u, u.password.Matches(password)
}

// setPassword stores a definitive password and retires the temporary one.
func (d *Directory) setPassword(cedula, password string) (user, error) {
	h, err := util.HashPassword(password, d.params)
	if err != nil {
		return user{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[cedula]
	if !ok {
		return user{}, errUnknownCedula
	}
	u.password = h
	u.temporary = util.PasswordHash{}
	u.mustChange = false
	return *u, nil
}

// DemoUsers is the seed directory used by the development server, one user
// per role.
func DemoUsers() []UserSpec {
	return []UserSpec{
		{Cedula: "12345678", Name: "Ana Pérez", Cargo: "PROFESIONAL"},
		{Cedula: "10101010", Name: "Carlos Ruiz", Cargo: "TECNÓLOGO (Supervisor)"},
		{Cedula: "20202020", Name: "Diana Gómez", Cargo: "Tecnólogo CGO", Password: "Admin2025"},
		{Cedula: "30303030", Name: "Elena Mora", Cargo: "PROFESIONAL 3 CALIDAD"},
		{Cedula: "40404040", Name: "Fabio Díaz", Cargo: "Auxiliar de lectura"},
		{Cedula: "50505050", Name: "Gloria Niño", Cargo: "PROFESIONAL", Inactive: true},
	}
}
