package service

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"sort"
	"sync"
	"testing"
	"time"

	"account_service/internal/model"
	"account_service/internal/repository"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryUserRepo enforces email/phone uniqueness the way the database constraints do
type memoryUserRepo struct {
	mu     sync.Mutex
	users  map[int]*model.User
	nextID int
	err    error // returned by every call when set
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: map[int]*model.User{}, nextID: 1}
}

func (r *memoryUserRepo) copyOf(u *model.User) *model.User {
	c := *u
	return &c
}

func (r *memoryUserRepo) taken(excludeID int, email, phone string) bool {
	for id, u := range r.users {
		if id != excludeID && (u.Email == email || u.Phone == phone) {
			return true
		}
	}
	return false
}

func (r *memoryUserRepo) find(match func(u *model.User) bool) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if match(u) {
			return r.copyOf(u), nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.taken(0, user.Email, user.Phone) {
		return repository.ErrDuplicateUser
	}
	now := time.Now()
	user.ID = r.nextID
	r.nextID++
	user.ProfileImage = model.DefaultProfileImage
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = r.copyOf(user)
	return nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *memoryUserRepo) FindByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == identifier || u.Phone == identifier })
}

func (r *memoryUserRepo) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email || u.Phone == phone })
}

func (r *memoryUserRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	return r.find(func(u *model.User) bool {
		return u.ResetPasswordToken != nil && *u.ResetPasswordToken == tokenHash &&
			u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now)
	})
}

func (r *memoryUserRepo) ExistsOtherWithEmailOrPhone(ctx context.Context, excludeID int, email, phone string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	return r.taken(excludeID, email, phone), nil
}

func (r *memoryUserRepo) FindAll(ctx context.Context) ([]model.UserSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	users := []model.UserSummary{}
	for _, u := range r.users {
		users = append(users, model.UserSummary{
			ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role,
			ProfileImage: u.ProfileImage, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *memoryUserRepo) update(id int, apply func(u *model.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := apply(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memoryUserRepo) UpdateProfile(ctx context.Context, id int, name, email, phone string) error {
	return r.update(id, func(u *model.User) error {
		if r.taken(id, email, phone) {
			return repository.ErrDuplicateUser
		}
		u.Name, u.Email, u.Phone = name, email, phone
		return nil
	})
}

func (r *memoryUserRepo) UpdateProfileImage(ctx context.Context, id int, image string) error {
	return r.update(id, func(u *model.User) error {
		u.ProfileImage = image
		return nil
	})
}

func (r *memoryUserRepo) SetResetToken(ctx context.Context, id int, tokenHash string, expire time.Time) error {
	return r.update(id, func(u *model.User) error {
		u.ResetPasswordToken = &tokenHash
		u.ResetPasswordExpire = &expire
		return nil
	})
}

func (r *memoryUserRepo) ConsumeResetToken(ctx context.Context, id int, tokenHash, passwordHash string) error {
	return r.update(id, func(u *model.User) error {
		if u.ResetPasswordToken == nil || *u.ResetPasswordToken != tokenHash {
			return repository.ErrNotFound
		}
		u.PasswordHash = passwordHash
		u.ResetPasswordToken = nil
		u.ResetPasswordExpire = nil
		u.TokenVersion++
		return nil
	})
}

func (r *memoryUserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// get returns the stored record, bypassing err injection
func (r *memoryUserRepo) get(id int) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return r.copyOf(u)
	}
	return nil
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	args := m.Called(ctx, to, resetURL)
	return args.Error(0)
}

var errStore = errors.New("store unavailable")

// newFileHeader builds a real multipart.FileHeader the way gin hands one to a handler
func newFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["image"][0]
}
