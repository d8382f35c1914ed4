package docstore

import (
	"context"
	"strings"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
)

// UserCollection is the identity store keyed by username.
type UserCollection struct {
	c *collection[string, model.User]
}

func newUserCollection(path string) (*UserCollection, error) {
	c, err := newCollection(path, func(u model.User) string { return u.Username })
	if err != nil {
		return nil, err
	}
	return &UserCollection{c: c}, nil
}

func (s *UserCollection) GetByUsername(_ context.Context, username string) (model.User, error) {
	u, ok := s.c.get(strings.TrimSpace(username))
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (s *UserCollection) Create(_ context.Context, u *model.User) error {
	u.Username = strings.TrimSpace(u.Username)
	ok, err := s.c.insertUnique(*u)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrUsernameTaken
	}
	return nil
}

func (s *UserCollection) Count(context.Context) (int, error) {
	return s.c.count(), nil
}

var _ repository.UserStore = (*UserCollection)(nil)
