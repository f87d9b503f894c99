package fakeuserrepo

import (
	"sync"

	"github.com/google/uuid"
	gterrors "github.com/jrsteele09/greentrace/internal/errors"
	"github.com/jrsteele09/greentrace/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[users.ID]*users.User
	emailIds map[string]users.ID // normalized email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[users.ID]*users.User),
		emailIds: make(map[string]users.ID),
	}
}

func (ur *FakeUserRepo) Create(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	email := users.NormalizeEmail(user.Email)
	if _, ok := ur.emailIds[email]; ok {
		return gterrors.ErrUserExists
	}
	ur.store(email, user)
	return nil
}

func (ur *FakeUserRepo) Upsert(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	ur.store(users.NormalizeEmail(user.Email), user)
	return nil
}

func (ur *FakeUserRepo) store(email string, user *users.User) {
	if user.ID == "" {
		user.ID = users.ID(uuid.New().String())
	}
	user.Email = email
	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[email] = user.ID
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userID, ok := ur.emailIds[users.NormalizeEmail(email)]
	if !ok {
		return nil, gterrors.ErrUserNotFound
	}
	return ur.copyOf(userID)
}

func (ur *FakeUserRepo) GetByID(id users.ID) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	return ur.copyOf(id)
}

func (ur *FakeUserRepo) copyOf(id users.ID) (*users.User, error) {
	u, ok := ur.users[id]
	if !ok {
		return nil, gterrors.ErrUserNotFound
	}
	c := *u
	return &c, nil
}
