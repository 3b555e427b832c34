package userservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Joseph14078/JoAuth/internal/interfaces/mocks"
	"github.com/Joseph14078/JoAuth/internal/models"
	"github.com/Joseph14078/JoAuth/internal/schema"
	"github.com/Joseph14078/JoAuth/pkg/databases"
	"github.com/Joseph14078/JoAuth/pkg/hasher"
	"github.com/Joseph14078/JoAuth/pkg/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	goodPassword = "correct horse battery"
	idPrefix     = "user-"
)

// memRepo is an in-memory UserRepository.
type memRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]models.User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[string]models.User)}
}

func (r *memRepo) ValidID(id string) bool {
	return strings.HasPrefix(id, idPrefix)
}

func (r *memRepo) FindUser(_ context.Context, q models.UserQuery) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if (q.ID != "" && u.ID == q.ID) ||
			(q.ID == "" && q.Username != "" && u.Username == q.Username) ||
			(q.ID == "" && q.Email != "" && u.Email == q.Email) {
			found := u
			return &found, nil
		}
	}
	return nil, databases.ErrNotFound
}

func (r *memRepo) AddUser(_ context.Context, user models.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = fmt.Sprintf("%s%d", idPrefix, r.nextID)
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *memRepo) UpdateUser(_ context.Context, id string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return databases.ErrNotFound
	}
	for field, value := range fields {
		switch field {
		case models.FieldUsername:
			u.Username = value.(string)
		case models.FieldEmail:
			u.Email = value.(string)
		case models.FieldPasswordHash:
			u.PasswordHash = value.(string)
		case models.FieldVerified:
			u.Verified = value.(bool)
		default:
			return fmt.Errorf("unexpected field %s", field)
		}
	}
	r.users[id] = u
	return nil
}

func (r *memRepo) RemoveUser(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return databases.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memRepo) EnsureIndices(context.Context) error { return nil }
func (r *memRepo) Close(context.Context) error         { return nil }

func (r *memRepo) get(id string) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id]
}

// fakeTokens issues tokens of the form "session:<id>".
type fakeTokens struct{}

func (fakeTokens) CreateToken(userID string) (string, error) { return "session:" + userID, nil }

func (fakeTokens) VerifyToken(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "session:")
	if !ok {
		return "", errors.New("bad token")
	}
	return id, nil
}

func newRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry(nil)
	require.NoError(t, reg.Init(schema.Embedded()))
	return reg
}

func newTestService(t *testing.T) (*UserService, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	return NewUserService(
		repo,
		newRegistry(t),
		hasher.NewBcryptHasher(4),
		fakeTokens{},
		zerolog.NewJSONLogger("test", io.Discard),
	), repo
}

func register(t *testing.T, s *UserService, username, email string) string {
	t.Helper()
	id, err := s.Register(context.Background(), models.RegisterRequest{Username: username, Email: email, Password: goodPassword})
	require.NoError(t, err)
	return id
}

func assertErrorName(t *testing.T, err error, name string) {
	t.Helper()
	require.Error(t, err)
	names := make([]string, 0)
	for _, e := range List(err) {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, name, "got %v", err)
}

func TestRegister_ThenAuthenticate(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()

	id, err := s.Register(ctx, models.RegisterRequest{Username: "Alice", Email: "Alice@Example.com", Password: goodPassword})
	require.NoError(t, err)

	stored := repo.get(id)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.False(t, stored.Verified)
	assert.WithinDuration(t, time.Now(), stored.Creation, time.Minute)
	assert.NotEqual(t, goodPassword, stored.PasswordHash)

	user, err := s.Authenticate(ctx, models.AuthRequest{Username: "alice", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	user, err = s.Authenticate(ctx, models.AuthRequest{ID: id, Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name      string
		req       models.RegisterRequest
		wantNames []string
	}{
		{
			name:      "username taken in another case",
			req:       models.RegisterRequest{Username: "ALICE", Email: "other@example.com", Password: goodPassword},
			wantNames: []string{NameTaken},
		},
		{
			name:      "email taken in another case",
			req:       models.RegisterRequest{Username: "bob", Email: "Alice@EXAMPLE.com", Password: goodPassword},
			wantNames: []string{NameTaken},
		},
		{
			name:      "invalid user and password together",
			req:       models.RegisterRequest{Username: "a!", Email: "nope", Password: "short"},
			wantNames: []string{NameValidity, NamePasswordValidity},
		},
		{
			name:      "password only",
			req:       models.RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "short"},
			wantNames: []string{NamePasswordValidity},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t)
			register(t, s, "alice", "alice@example.com")

			_, err := s.Register(context.Background(), tt.req)
			var got []string
			for _, e := range List(err) {
				got = append(got, e.Name)
				assert.Equal(t, "JoAuth.register."+e.Name, e.NameFull)
			}
			assert.Equal(t, tt.wantNames, got)
		})
	}
}

func TestRegister_ValidityData(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Register(context.Background(), models.RegisterRequest{Username: "x", Email: "bad", Password: goodPassword})

	var accErr *Error
	require.True(t, errors.As(err, &accErr))
	assert.True(t, errors.Is(err, ErrValidity))
	assert.Equal(t, []string{"email", "username"}, accErr.Data["properties"])
}

func TestRegister_StorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("hash", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(t)
		h := mocks.NewMockPasswordHasher(t)
		s := NewUserService(repo, newRegistry(t), h, nil, zerolog.NewJSONLogger("test", io.Discard))

		repo.On("FindUser", mock.Anything, mock.Anything).Return(nil, databases.ErrNotFound).Once()
		h.On("Hash", goodPassword).Return("", errors.New("entropy")).Once()

		_, err := s.Register(ctx, models.RegisterRequest{Username: "dave", Email: "dave@example.com", Password: goodPassword})
		assert.True(t, errors.Is(err, ErrHash))
	})

	t.Run("save", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(t)
		s := NewUserService(repo, newRegistry(t), hasher.NewBcryptHasher(4), nil, zerolog.NewJSONLogger("test", io.Discard))

		repo.On("FindUser", mock.Anything, models.UserQuery{Username: "dave", Email: "dave@example.com"}).
			Return(nil, databases.ErrNotFound).Once()
		repo.On("AddUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.Username == "dave" && u.PasswordHash != ""
		})).Return("", errors.New("disk full")).Once()

		_, err := s.Register(ctx, models.RegisterRequest{Username: "Dave", Email: "dave@example.com", Password: goodPassword})
		assert.True(t, errors.Is(err, ErrSave))
		assert.Equal(t, "JoAuth.register.save", List(err)[0].NameFull)
	})
}

func TestAuthenticate_Errors(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "alice", "alice@example.com")

	_, err := s.Authenticate(ctx, models.AuthRequest{Username: "alice", Password: "wrong password"})
	assert.True(t, errors.Is(err, ErrPassword))

	_, err = s.Authenticate(ctx, models.AuthRequest{Username: "nobody", Password: goodPassword})
	assert.True(t, errors.Is(err, ErrUsername))

	_, err = s.Authenticate(ctx, models.AuthRequest{Password: goodPassword})
	assert.True(t, errors.Is(err, ErrUsername))

	_, err = s.Authenticate(ctx, models.AuthRequest{ID: "malformed", Password: goodPassword})
	assert.True(t, errors.Is(err, ErrUsername))
	assert.True(t, errors.Is(err, ErrQueryValidity), "the cause is kept")

	// Session tokens only work for the user they were issued to.
	user, err := s.Authenticate(ctx, models.AuthRequest{ID: id, SessionToken: "session:" + id})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	_, err = s.Authenticate(ctx, models.AuthRequest{ID: id, SessionToken: "session:user-99"})
	assert.True(t, errors.Is(err, ErrPassword))
}

func TestFind(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "alice", "alice@example.com")

	tests := []struct {
		name     string
		req      models.FindRequest
		wantID   string
		wantName string
	}{
		{name: "by id", req: models.FindRequest{ID: id}, wantID: id},
		{name: "by username any case", req: models.FindRequest{Username: "ALICE"}, wantID: id},
		{name: "by email", req: models.FindRequest{Email: "Alice@example.com"}, wantID: id},
		{name: "username or email", req: models.FindRequest{Username: "zed", Email: "alice@example.com"}, wantID: id},
		{name: "unknown", req: models.FindRequest{Username: "zed"}, wantName: NameNotFound},
		{name: "malformed id", req: models.FindRequest{ID: "42"}, wantName: NameQueryValidity},
		{name: "no key", req: models.FindRequest{}, wantName: NameQueryValidity},
		{name: "unknown field", req: models.FindRequest{Username: "alice", Fields: []string{"secret"}}, wantName: NameQueryValidity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.Find(ctx, tt.req)
			if tt.wantName != "" {
				assertErrorName(t, err, tt.wantName)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
		})
	}
}

func TestFindQuery_Exception(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	s := NewUserService(repo, newRegistry(t), hasher.NewBcryptHasher(4), nil, zerolog.NewJSONLogger("test", io.Discard))

	repo.On("FindUser", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("driver bug")
	}).Return(nil, nil).Once()

	_, err := s.FindQuery(context.Background(), models.UserQuery{Username: "alice"})
	assert.True(t, errors.Is(err, ErrException))
	assert.Equal(t, "JoAuth.findQuery.exception", List(err)[0].NameFull)
}

func TestEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("username without password change", func(t *testing.T) {
		s, repo := newTestService(t)
		id := register(t, s, "alice", "alice@example.com")

		err := s.Edit(ctx, models.EditRequest{
			AuthRequest: models.AuthRequest{ID: id, SessionToken: "session:" + id},
			NewData:     &models.EditData{Username: "Alicia"},
		})
		require.NoError(t, err)
		assert.Equal(t, "alicia", repo.get(id).Username)
	})

	t.Run("password change ignores session token", func(t *testing.T) {
		s, repo := newTestService(t)
		id := register(t, s, "alice", "alice@example.com")
		before := repo.get(id).PasswordHash

		err := s.Edit(ctx, models.EditRequest{
			AuthRequest: models.AuthRequest{ID: id, SessionToken: "session:" + id},
			NewData:     &models.EditData{Password: "another good password"},
		})
		assert.True(t, errors.Is(err, ErrAuthenticate))
		assert.Equal(t, before, repo.get(id).PasswordHash)

		err = s.Edit(ctx, models.EditRequest{
			AuthRequest: models.AuthRequest{ID: id, Password: goodPassword},
			NewData:     &models.EditData{Password: "another good password"},
		})
		require.NoError(t, err)
		_, err = s.Authenticate(ctx, models.AuthRequest{ID: id, Password: "another good password"})
		assert.NoError(t, err)
	})

	t.Run("email change resets verified", func(t *testing.T) {
		s, repo := newTestService(t)
		id := register(t, s, "alice", "alice@example.com")
		require.NoError(t, repo.UpdateUser(ctx, id, map[string]any{models.FieldVerified: true}))

		err := s.Edit(ctx, models.EditRequest{
			AuthRequest: models.AuthRequest{Username: "alice", Password: goodPassword},
			NewData:     &models.EditData{Email: "New@Example.com"},
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", repo.get(id).Email)
		assert.False(t, repo.get(id).Verified)
	})

	t.Run("unchanged values write nothing", func(t *testing.T) {
		repo := mocks.NewMockUserRepository(t)
		s := NewUserService(repo, newRegistry(t), hasher.NewBcryptHasher(4), nil, zerolog.NewJSONLogger("test", io.Discard))
		hash, err := s.Hasher.Hash(goodPassword)
		require.NoError(t, err)

		repo.On("FindUser", mock.Anything, models.UserQuery{Username: "alice"}).
			Return(&models.User{ID: "user-1", Username: "alice", Email: "alice@example.com", PasswordHash: hash}, nil).Once()

		err = s.Edit(ctx, models.EditRequest{
			AuthRequest: models.AuthRequest{Username: "alice", Password: goodPassword},
			NewData:     &models.EditData{Username: "ALICE", Email: "alice@example.com"},
		})
		assert.NoError(t, err)
	})

	tests := []struct {
		name     string
		newData  *models.EditData
		password string
		wantName []string
	}{
		{name: "nil data", newData: nil, password: goodPassword, wantName: []string{NameNoNewData}},
		{name: "empty data", newData: &models.EditData{}, password: goodPassword, wantName: []string{NameNoNewData}},
		{name: "wrong password", newData: &models.EditData{Username: "zed"}, password: "nope nope nope", wantName: []string{NameAuthenticate}},
		{name: "email taken", newData: &models.EditData{Email: "BOB@example.com"}, password: goodPassword, wantName: []string{NameEmailTaken}},
		{name: "username taken", newData: &models.EditData{Username: "Bob"}, password: goodPassword, wantName: []string{NameUsernameTaken}},
		{
			name:     "invalid password and edit",
			newData:  &models.EditData{Username: "x!", Password: "short"},
			password: goodPassword,
			wantName: []string{NamePasswordValidity, NameEditValidity},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t)
			register(t, s, "alice", "alice@example.com")
			register(t, s, "bob", "bob@example.com")

			err := s.Edit(ctx, models.EditRequest{
				AuthRequest: models.AuthRequest{Username: "alice", Password: tt.password},
				NewData:     tt.newData,
			})
			var got []string
			for _, e := range List(err) {
				got = append(got, e.Name)
				assert.Equal(t, "JoAuth.edit."+e.Name, e.NameFull)
			}
			assert.Equal(t, tt.wantName, got)
		})
	}
}

func TestEdit_BothConflictsStillReportOnce(t *testing.T) {
	s, _ := newTestService(t)
	register(t, s, "alice", "alice@example.com")
	register(t, s, "bob", "bob@example.com")

	err := s.Edit(context.Background(), models.EditRequest{
		AuthRequest: models.AuthRequest{Username: "alice", Password: goodPassword},
		NewData:     &models.EditData{Username: "bob", Email: "bob@example.com"},
	})
	require.Len(t, List(err), 1)
	assert.True(t, errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrUsernameTaken))
}

func TestEdit_WriteFailure(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	s := NewUserService(repo, newRegistry(t), hasher.NewBcryptHasher(4), nil, zerolog.NewJSONLogger("test", io.Discard))
	hash, err := s.Hasher.Hash(goodPassword)
	require.NoError(t, err)

	repo.On("FindUser", mock.Anything, models.UserQuery{Username: "alice"}).
		Return(&models.User{ID: "user-1", Username: "alice", Email: "alice@example.com", PasswordHash: hash}, nil).Once()
	repo.On("FindUser", mock.Anything, models.UserQuery{Username: "zed"}).
		Return(nil, databases.ErrNotFound).Once()
	repo.On("UpdateUser", mock.Anything, "user-1", map[string]any{models.FieldUsername: "zed"}).
		Return(errors.New("connection reset")).Once()

	err = s.Edit(context.Background(), models.EditRequest{
		AuthRequest: models.AuthRequest{Username: "alice", Password: goodPassword},
		NewData:     &models.EditData{Username: "zed"},
	})
	assert.True(t, errors.Is(err, ErrWrite))
}

func TestRemove(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	id := register(t, s, "alice", "alice@example.com")

	_, err := s.Remove(ctx, models.AuthRequest{ID: id, SessionToken: "session:" + id})
	assert.True(t, errors.Is(err, ErrAuthenticate), "removal needs the password")

	removed, err := s.Remove(ctx, models.AuthRequest{Username: "alice", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, id, removed)

	_, err = s.Find(ctx, models.FindRequest{ID: id})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRemove_StorageFailure(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	s := NewUserService(repo, newRegistry(t), hasher.NewBcryptHasher(4), nil, zerolog.NewJSONLogger("test", io.Discard))
	hash, err := s.Hasher.Hash(goodPassword)
	require.NoError(t, err)

	repo.On("FindUser", mock.Anything, models.UserQuery{Username: "alice"}).
		Return(&models.User{ID: "user-1", Username: "alice", PasswordHash: hash}, nil).Once()
	repo.On("RemoveUser", mock.Anything, "user-1").Return(errors.New("primary stepped down")).Once()

	_, err = s.Remove(context.Background(), models.AuthRequest{Username: "alice", Password: goodPassword})
	assert.True(t, errors.Is(err, ErrUnknown1))
	assert.Equal(t, "JoAuth.remove.unknown1", List(err)[0].NameFull)
}

func TestSafeFields(t *testing.T) {
	s, _ := newTestService(t)
	assert.NotContains(t, s.SafeFields(), models.FieldPasswordHash)
	assert.Contains(t, s.SafeFields(), models.FieldUsername)
}

func TestErrors(t *testing.T) {
	single := newError(OpEdit, NameWrite, errors.New("boom"), nil)
	assert.Equal(t, "JoAuth.edit.write: boom", single.Error())
	assert.True(t, errors.Is(single, ErrWrite))
	assert.False(t, errors.Is(single, ErrHash))

	list := Errors{newError(OpRegister, NameValidity, nil, nil), newError(OpRegister, NamePasswordValidity, nil, nil)}
	assert.Equal(t, "JoAuth.register.validity; JoAuth.register.passwordValidity", list.Error())
	assert.True(t, errors.Is(list, ErrPasswordValidity))
	assert.Len(t, List(list), 2)
	assert.Nil(t, List(errors.New("plain")))
	assert.Nil(t, join(nil))
}

func TestRegister_MultibytePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("72 bytes registers", func(t *testing.T) {
		s, _ := newTestService(t)
		password := strings.Repeat("é", 36)

		id, err := s.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: password})
		require.NoError(t, err)
		user, err := s.Authenticate(ctx, models.AuthRequest{Username: "alice", Password: password})
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
	})

	t.Run("over 72 bytes is a validity error", func(t *testing.T) {
		s, repo := newTestService(t)
		password := strings.Repeat("é", 40)

		_, err := s.Register(ctx, models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: password})
		assertErrorName(t, err, NamePasswordValidity)
		assert.False(t, errors.Is(err, ErrHash))
		assert.Equal(t, hasher.MaxPasswordBytes, List(err)[0].Data["maxBytes"])
		assert.Empty(t, repo.users)
	})

	t.Run("edit to over 72 bytes", func(t *testing.T) {
		s, repo := newTestService(t)
		id := register(t, s, "alice", "alice@example.com")
		before := repo.get(id).PasswordHash

		err := s.Edit(ctx, models.EditRequest{
			AuthRequest: models.AuthRequest{ID: id, Password: goodPassword},
			NewData:     &models.EditData{Password: strings.Repeat("ü", 37)},
		})
		assertErrorName(t, err, NamePasswordValidity)
		assert.Equal(t, before, repo.get(id).PasswordHash)
	})
}

func TestAuthenticate_FieldsKeepPasswordHash(t *testing.T) {
	repo := mocks.NewMockUserRepository(t)
	s := NewUserService(repo, newRegistry(t), hasher.NewBcryptHasher(4), nil, zerolog.NewJSONLogger("test", io.Discard))
	hash, err := s.Hasher.Hash(goodPassword)
	require.NoError(t, err)

	repo.On("FindUser", mock.Anything, models.UserQuery{
		Username: "alice",
		Fields:   []string{models.FieldEmail, models.FieldPasswordHash},
	}).Return(&models.User{ID: "user-1", Email: "alice@example.com", PasswordHash: hash}, nil).Once()

	fields := []string{models.FieldEmail}
	user, err := s.Authenticate(context.Background(), models.AuthRequest{Username: "alice", Password: goodPassword, Fields: fields})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, []string{models.FieldEmail}, fields)
}

// cancellingRepo cancels the edit's context while the email conflict check
// runs and counts writes.
type cancellingRepo struct {
	*memRepo
	cancelOn string
	cancel   context.CancelFunc
	updates  atomic.Int32
}

func (r *cancellingRepo) FindUser(ctx context.Context, q models.UserQuery) (*models.User, error) {
	if q.ID == "" && q.Username == "" && q.Email == r.cancelOn {
		r.cancel()
	}
	return r.memRepo.FindUser(ctx, q)
}

func (r *cancellingRepo) UpdateUser(ctx context.Context, id string, fields map[string]any) error {
	r.updates.Add(1)
	return r.memRepo.UpdateUser(ctx, id, fields)
}

func TestEdit_CancelledBeforeWrite(t *testing.T) {
	s, mem := newTestService(t)
	id := register(t, s, "alice", "alice@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := &cancellingRepo{memRepo: mem, cancelOn: "new@example.com", cancel: cancel}
	s.UserRepo = repo

	err := s.Edit(ctx, models.EditRequest{
		AuthRequest: models.AuthRequest{ID: id, Password: goodPassword},
		NewData:     &models.EditData{Username: "alicia", Email: "new@example.com"},
	})
	assert.True(t, errors.Is(err, ErrException), "got %v", err)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Never(t, func() bool { return repo.updates.Load() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	stored := mem.get(id)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, "alice@example.com", stored.Email)
}
