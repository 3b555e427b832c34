package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/Joseph14078/JoAuth/internal/interfaces/mocks"
	"github.com/Joseph14078/JoAuth/internal/models"
	"github.com/Joseph14078/JoAuth/internal/userrepo/constants"
	"github.com/Joseph14078/JoAuth/pkg/databases"
	"github.com/Joseph14078/JoAuth/pkg/databases/postgres"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresUserRepository(t *testing.T) {
	_, err := NewPostgresUserRepository(nil)
	assert.Error(t, err)

	_, err = NewPostgresUserRepository(mocks.NewMockDBClient(t))
	assert.Error(t, err)
}

func TestBuildFilter(t *testing.T) {
	got, err := buildFilter(models.UserQuery{ID: "x", Email: "y"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": "x"}, got)

	got, err = buildFilter(models.UserQuery{Username: "Bob", Email: "Bob@B.co"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{postgres.OrKey: []map[string]interface{}{
		{"username": "bob"},
		{"email": "bob@b.co"},
	}}, got)

	_, err = buildFilter(models.UserQuery{})
	assert.Error(t, err)
}

func TestToColumns(t *testing.T) {
	got, err := toColumns(map[string]any{"passwordHash": "h", "verified": false})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"password_hash": "h", "verified": false}, got)

	_, err = toColumns(map[string]any{"id": "x"})
	assert.Error(t, err)
	_, err = toColumns(map[string]any{"isAdmin": true})
	assert.Error(t, err)
	_, err = toColumns(nil)
	assert.Error(t, err)
}

func TestPostgresUserRepository_AddUser(t *testing.T) {
	db := mocks.NewMockDBClient(t)
	repo := &PostgresUserRepository{dbClient: db}
	id := uuid.NewString()

	db.On("InsertOne", mock.Anything, constants.UsersCollection, mock.MatchedBy(func(doc map[string]interface{}) bool {
		return doc["password_hash"] == "h" && doc["username"] == "alice"
	})).Return(id, nil).Once()
	got, err := repo.AddUser(context.Background(), models.User{Username: "alice", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	db.On("InsertOne", mock.Anything, constants.UsersCollection, mock.Anything).
		Return(nil, &pq.Error{Code: uniqueViolation}).Once()
	_, err = repo.AddUser(context.Background(), models.User{Username: "alice"})
	assert.ErrorContains(t, err, "already exists")
}

func TestPostgresUserRepository_FindUpdateRemove(t *testing.T) {
	db := mocks.NewMockDBClient(t)
	repo := &PostgresUserRepository{dbClient: db}
	id := uuid.NewString()
	ctx := context.Background()

	db.On("FindOne", ctx, constants.UsersCollection, map[string]interface{}{"id": id}, []string(nil), mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(4).(*models.User).ID = id
		}).Return(nil).Once()
	user, err := repo.FindUser(ctx, models.UserQuery{ID: id})
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	db.On("UpdateOne", ctx, constants.UsersCollection, map[string]interface{}{"id": id}, map[string]interface{}{"email": "x@y.z"}).
		Return(int64(1), nil).Once()
	assert.NoError(t, repo.UpdateUser(ctx, id, map[string]any{"email": "x@y.z"}))

	db.On("DeleteOne", ctx, constants.UsersCollection, map[string]interface{}{"id": id}).Return(int64(0), nil).Once()
	assert.True(t, errors.Is(repo.RemoveUser(ctx, id), databases.ErrNotFound))

	assert.Error(t, repo.RemoveUser(ctx, "not-a-uuid"))
	assert.False(t, repo.ValidID("not-a-uuid"))
}

func TestPostgresUserRepository_EnsureIndices(t *testing.T) {
	db := mocks.NewMockDBClient(t)
	repo := &PostgresUserRepository{dbClient: db}
	db.On("EnsureSchema", mock.Anything, constants.UsersCollection, ddl).Return(nil).Once()
	assert.NoError(t, repo.EnsureIndices(context.Background()))
}
