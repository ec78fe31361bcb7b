// Package auth keeps the account registry: username to bcrypt credential
// records with sequential account ids. The username length policy lives
// here so every registration path applies the same bounds.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Username length bounds, counted in runes.
const (
	MinUsernameLen = 3
	MaxUsernameLen = 20
)

var (
	// ErrInvalidUsername is returned when a username falls outside the
	// length bounds.
	ErrInvalidUsername = errors.New("auth: username must be 3-20 characters")
	// ErrUsernameTaken is returned when the username is already registered.
	ErrUsernameTaken = errors.New("auth: username already taken")
	// ErrInvalidCredentials covers both unknown accounts and wrong
	// passwords, so callers cannot probe for registered names.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Account identifies a registered account.
type Account struct {
	ID       uint64
	Username string
}

// ValidUsername reports whether name satisfies the username policy.
func ValidUsername(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinUsernameLen && n <= MaxUsernameLen
}

type record struct {
	id   uint64
	hash []byte
}

// Registry is an in-memory account store. Passwords are held only as
// bcrypt hashes. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	accounts map[string]record
	nextID   uint64
	cost     int
}

// NewRegistry returns an empty registry hashing at bcrypt.DefaultCost.
func NewRegistry() *Registry {
	return NewRegistryWithCost(bcrypt.DefaultCost)
}

// NewRegistryWithCost returns an empty registry hashing at the given
// cost. Out-of-range costs fall back to bcrypt.DefaultCost. Tests pass
// bcrypt.MinCost to keep hashing cheap.
func NewRegistryWithCost(cost int) *Registry {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Registry{
		accounts: make(map[string]record),
		nextID:   1,
		cost:     cost,
	}
}

// Register creates an account for username and returns it. The hash is
// computed before the lock is taken so slow bcrypt work never blocks
// concurrent verifications.
func (r *Registry) Register(username, password string) (Account, error) {
	if !ValidUsername(username) {
		return Account{}, ErrInvalidUsername
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return Account{}, fmt.Errorf("auth: hash password: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[username]; ok {
		return Account{}, ErrUsernameTaken
	}
	acc := Account{ID: r.nextID, Username: username}
	r.accounts[username] = record{id: acc.ID, hash: hash}
	r.nextID++
	return acc, nil
}

// Verify checks a username/password pair and returns the account on
// success. Unknown accounts and wrong passwords are indistinguishable
// to the caller.
func (r *Registry) Verify(username, password string) (Account, error) {
	r.mu.RLock()
	rec, ok := r.accounts[username]
	r.mu.RUnlock()
	if !ok {
		return Account{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return Account{}, ErrInvalidCredentials
	}
	return Account{ID: rec.id, Username: username}, nil
}

// Exists reports whether the username is registered.
func (r *Registry) Exists(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.accounts[username]
	return ok
}

// Count returns the number of registered accounts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}
