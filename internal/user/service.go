package user

import (
	"log"

	"trip-planner/internal/domain"
	"trip-planner/internal/errors"
	"trip-planner/internal/store"

	"golang.org/x/crypto/bcrypt"
)

// Service defines the interface for user directory business logic
type Service interface {
	Authenticate(username, password string) (*domain.User, error)
	GetUser(username string) (*domain.User, error)
	IsAdmin(username string) bool
	SafeUsers() ([]domain.SafeUser, error)
	Usernames() ([]string, error)
	AddUser(username, password, role string) error
	DeleteUser(requester, username string) error
	ResetPassword(username, newPassword string) error
}

// DefaultService implements Service over the user directory file
type DefaultService struct {
	store store.Store
}

// NewService creates a new user service
func NewService(st store.Store) *DefaultService {
	return &DefaultService{store: st}
}

// Authenticate verifies a username/password pair
func (s *DefaultService) Authenticate(username, password string) (*domain.User, error) {
	dir, err := s.store.LoadUsers()
	if err != nil {
		return nil, errors.StoreFailure(err)
	}

	u := dir.Find(username)
	if u == nil {
		return nil, errors.Unauthorized("Invalid username or password", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errors.Unauthorized("Invalid username or password", err)
	}

	return u, nil
}

// GetUser returns the directory entry for username
func (s *DefaultService) GetUser(username string) (*domain.User, error) {
	dir, err := s.store.LoadUsers()
	if err != nil {
		return nil, errors.StoreFailure(err)
	}

	u := dir.Find(username)
	if u == nil {
		return nil, errors.NotFound("User not found", nil)
	}
	return u, nil
}

// IsAdmin reports whether username currently holds the admin role. The
// directory is consulted fresh on every call.
func (s *DefaultService) IsAdmin(username string) bool {
	u, err := s.GetUser(username)
	if err != nil {
		return false
	}
	return u.IsAdmin()
}

// SafeUsers lists every user with the password hash stripped
func (s *DefaultService) SafeUsers() ([]domain.SafeUser, error) {
	dir, err := s.store.LoadUsers()
	if err != nil {
		return nil, errors.StoreFailure(err)
	}

	users := make([]domain.SafeUser, 0, len(dir.Users))
	for i := range dir.Users {
		users = append(users, dir.Users[i].ToSafeUser())
	}
	return users, nil
}

// Usernames lists every registered username
func (s *DefaultService) Usernames() ([]string, error) {
	dir, err := s.store.LoadUsers()
	if err != nil {
		return nil, errors.StoreFailure(err)
	}
	return dir.Usernames(), nil
}

// AddUser registers a new user. Usernames are unique; an unrecognized
// role falls back to the plain user role.
func (s *DefaultService) AddUser(username, password, role string) error {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	if username == "" || password == "" {
		return errors.BadRequest("username and password required", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal(err)
	}

	_, err = s.store.WithExclusiveUsers(func(dir *domain.UserDirectory) error {
		if dir.Find(username) != nil {
			return errors.BadRequest("Username already exists", nil)
		}
		dir.Users = append(dir.Users, domain.User{
			Username:     username,
			PasswordHash: string(hash),
			Role:         role,
		})
		return nil
	})
	return errors.FromStore(err)
}

// DeleteUser removes a user. An admin may not delete themselves, and
// the last remaining admin account can never be deleted.
func (s *DefaultService) DeleteUser(requester, username string) error {
	if username == requester {
		return errors.Forbidden("You cannot delete your own account", nil)
	}

	_, err := s.store.WithExclusiveUsers(func(dir *domain.UserDirectory) error {
		target := dir.Find(username)
		if target == nil {
			return errors.NotFound("User not found", nil)
		}

		if target.IsAdmin() {
			admins := 0
			for i := range dir.Users {
				if dir.Users[i].IsAdmin() {
					admins++
				}
			}
			if admins <= 1 {
				return errors.Forbidden("Cannot delete the last admin", nil)
			}
		}

		kept := dir.Users[:0]
		for i := range dir.Users {
			if dir.Users[i].Username != username {
				kept = append(kept, dir.Users[i])
			}
		}
		dir.Users = kept
		return nil
	})
	if err == nil {
		log.Printf("User %q deleted by %q", username, requester)
	}
	return errors.FromStore(err)
}

// ResetPassword overwrites the stored hash; username and role keep
// their current values.
func (s *DefaultService) ResetPassword(username, newPassword string) error {
	if newPassword == "" {
		return errors.BadRequest("password required", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Internal(err)
	}

	_, err = s.store.WithExclusiveUsers(func(dir *domain.UserDirectory) error {
		target := dir.Find(username)
		if target == nil {
			return errors.NotFound("User not found", nil)
		}
		target.PasswordHash = string(hash)
		return nil
	})
	return errors.FromStore(err)
}
