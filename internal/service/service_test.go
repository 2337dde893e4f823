package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aplatonov-me/Bank-REST/internal/config"
	"github.com/aplatonov-me/Bank-REST/internal/models"
	"github.com/aplatonov-me/Bank-REST/internal/repository"
	"github.com/aplatonov-me/Bank-REST/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// In-memory fakes. The card fake takes per-card locks in ascending id
// order, mirroring the row-lock behavior the real repository gets from
// SELECT ... FOR UPDATE, so transfer tests exercise the same serialization.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return models.ErrUserExists
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.Roles = []string{models.RoleUser}
	user.CreatedAt = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) UserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) UserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (f *fakeUserRepo) Users(_ context.Context, limit, offset int) ([]models.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.User
	for i, id := range ids {
		if i >= offset && len(out) < limit {
			out = append(out, *f.users[id])
		}
	}
	return out, int64(len(f.users)), nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) AssignRole(_ context.Context, userID int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.ErrRoleNotFound
	}
	user, ok := f.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	for _, r := range user.Roles {
		if r == role {
			return models.ErrRoleAlreadyAssigned
		}
	}
	user.Roles = append(user.Roles, role)
	return nil
}

func (f *fakeUserRepo) RemoveRole(_ context.Context, userID int64, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.ErrRoleNotFound
	}
	user, ok := f.users[userID]
	if !ok {
		return models.ErrUserNotFound
	}
	for i, r := range user.Roles {
		if r == role {
			user.Roles = append(user.Roles[:i], user.Roles[i+1:]...)
			return nil
		}
	}
	return models.ErrRoleNotAssigned
}

type fakeCardRepo struct {
	mu     sync.Mutex
	nextID int64
	cards  map[int64]*models.Card
	locks  map[int64]*sync.Mutex
}

func newFakeCardRepo() *fakeCardRepo {
	return &fakeCardRepo{
		cards: make(map[int64]*models.Card),
		locks: make(map[int64]*sync.Mutex),
	}
}

func (f *fakeCardRepo) CreateCard(_ context.Context, card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	card.ID = f.nextID
	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt
	stored := *card
	f.cards[card.ID] = &stored
	f.locks[card.ID] = &sync.Mutex{}
	return nil
}

func (f *fakeCardRepo) CardByID(_ context.Context, id int64) (*models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[id]
	if !ok {
		return nil, models.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (f *fakeCardRepo) CountCardsByOwner(_ context.Context, ownerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, c := range f.cards {
		if c.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (f *fakeCardRepo) CardsByOwner(_ context.Context, ownerID int64, limit, offset int) ([]models.Card, int64, error) {
	return f.list(func(c *models.Card) bool { return c.OwnerID == ownerID }, limit, offset)
}

func (f *fakeCardRepo) Cards(_ context.Context, limit, offset int) ([]models.Card, int64, error) {
	return f.list(func(*models.Card) bool { return true }, limit, offset)
}

func (f *fakeCardRepo) list(match func(*models.Card) bool, limit, offset int) ([]models.Card, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.cards))
	for id, c := range f.cards {
		if match(c) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []models.Card
	for i, id := range ids {
		if i >= offset && len(out) < limit {
			out = append(out, *f.cards[id])
		}
	}
	return out, int64(len(ids)), nil
}

func (f *fakeCardRepo) UpdateCardStatus(_ context.Context, id int64, status models.CardStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.cards[id]
	if !ok {
		return models.ErrCardNotFound
	}
	card.Status = status
	return nil
}

func (f *fakeCardRepo) DeleteCard(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cards[id]; !ok {
		return models.ErrCardNotFound
	}
	delete(f.cards, id)
	delete(f.locks, id)
	return nil
}

func (f *fakeCardRepo) CountExpiredActiveCards(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, c := range f.cards {
		if c.Status == models.CardStatusActive && c.ExpirationDate.Before(time.Now()) {
			count++
		}
	}
	return count, nil
}

func (f *fakeCardRepo) TransferFunds(_ context.Context, sourceID, destID int64, checks repository.TransferChecks) error {
	firstID, secondID := sourceID, destID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	for _, id := range []int64{firstID, secondID} {
		f.mu.Lock()
		lock, ok := f.locks[id]
		f.mu.Unlock()
		if !ok {
			side := "destination"
			if id == sourceID {
				side = "source"
			}
			return fmt.Errorf("%s card %d: %w", side, id, models.ErrCardNotFound)
		}
		lock.Lock()
		defer lock.Unlock()
	}

	f.mu.Lock()
	source, dest := f.cards[sourceID], f.cards[destID]
	sourceCopy, destCopy := *source, *dest
	f.mu.Unlock()

	newSource, newDest, err := checks(&sourceCopy, &destCopy)
	if err != nil {
		return err
	}

	f.mu.Lock()
	source.Balance = newSource
	dest.Balance = newDest
	f.mu.Unlock()
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		JWTTTL:                 time.Hour,
		MaxCardsPerUser:        5,
		DefaultExpirationYears: 3,
		MaxTransferAmount:      decimal.RequireFromString("100000.00"),
		LockTimeout:            time.Second,
	}
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo, *fakeCardRepo) {
	t.Helper()
	enc, err := utils.NewEncryptor([]byte("0123456789abcdef"))
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := newFakeUserRepo()
	cards := newFakeCardRepo()
	return NewService(users, cards, enc, nil, log, testConfig()), users, cards
}

func addUser(t *testing.T, users *fakeUserRepo, username string, roles ...string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, users.CreateUser(context.Background(), user))
	if len(roles) > 0 {
		users.mu.Lock()
		users.users[user.ID].Roles = roles
		user.Roles = roles
		users.mu.Unlock()
	}
	return user
}

func principalFor(user *models.User) models.Principal {
	return models.Principal{ID: user.ID, Username: user.Username, Roles: user.Roles}
}
