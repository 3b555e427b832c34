package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	type args struct {
		username     string
		email        string
		passwordHash string
	}
	tests := []struct {
		name string
		args args
		want User
	}{
		{
			name: "Create new user with valid credentials",
			args: args{
				username:     "testuser",
				email:        "test@example.com",
				passwordHash: "$2a$10$hash",
			},
			want: User{
				Username:     "testuser",
				Email:        "test@example.com",
				PasswordHash: "$2a$10$hash",
			},
		},
		{
			name: "Create new user with empty credentials",
			args: args{},
			want: User{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now().UTC()
			got := NewUser(tt.args.username, tt.args.email, tt.args.passwordHash)

			assert.Empty(t, got.ID, "ID is left for the database to populate")
			assert.False(t, got.Verified)
			assert.Equal(t, time.UTC, got.Creation.Location())
			assert.False(t, got.Creation.Before(before))

			got.Creation = time.Time{}
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestEditData_IsEmpty(t *testing.T) {
	tests := []struct {
		name string
		data EditData
		want bool
	}{
		{name: "nothing", data: EditData{}, want: true},
		{name: "username", data: EditData{Username: "a"}, want: false},
		{name: "email", data: EditData{Email: "a@b.c"}, want: false},
		{name: "password", data: EditData{Password: "secret"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.data.IsEmpty())
		})
	}
}
