// userservice.go
package userservice

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Joseph14078/JoAuth/internal/interfaces"
	"github.com/Joseph14078/JoAuth/internal/models"
	"github.com/Joseph14078/JoAuth/internal/schema"
	"github.com/Joseph14078/JoAuth/pkg/chain"
	"github.com/Joseph14078/JoAuth/pkg/hasher"
	"github.com/Joseph14078/JoAuth/pkg/helper"
)

type UserService struct {
	UserRepo interfaces.UserRepository
	Schemas  interfaces.SchemaRegistry
	Hasher   interfaces.PasswordHasher
	// Tokens is optional. Without it session tokens are never accepted.
	Tokens interfaces.TokenIssuer
	Logger interfaces.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(repo interfaces.UserRepository, schemas interfaces.SchemaRegistry, hasher interfaces.PasswordHasher, tokens interfaces.TokenIssuer, logger interfaces.Logger) *UserService {
	return &UserService{
		UserRepo: repo,
		Schemas:  schemas,
		Hasher:   hasher,
		Tokens:   tokens,
		Logger:   logger,
	}
}

// SafeFields lists the user attributes that may be shown to their owner.
func (s *UserService) SafeFields() []string {
	return s.Schemas.FieldsSafePrivate(schema.UserID)
}

// Find locates exactly one user, by ID when given and otherwise by username
// OR email.
func (s *UserService) Find(ctx context.Context, req models.FindRequest) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "id", req.ID, "user", req.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName)

	if req.ID != "" {
		if !s.UserRepo.ValidID(req.ID) {
			err := newError(OpFind, NameQueryValidity, nil, map[string]any{"id": req.ID})
			s.Logger.Debug("Could not find user by id", "func", funcName, "id", req.ID, "error", err)
			return nil, err
		}
		return s.FindQuery(ctx, models.UserQuery{ID: req.ID, Fields: req.Fields})
	}

	return s.FindQuery(ctx, models.UserQuery{
		Username: helper.Lower(req.Username),
		Email:    helper.Lower(req.Email),
		Fields:   req.Fields,
	})
}

// FindQuery runs a raw query after checking it against the Query schema.
func (s *UserService) FindQuery(ctx context.Context, query models.UserQuery) (user *models.User, err error) {
	funcName := helper.GetFuncName()

	defer func() {
		if r := recover(); r != nil {
			user = nil
			err = newError(OpFindQuery, NameException, fmt.Errorf("panic: %v", r), nil)
			s.Logger.Error("Query panicked", "func", funcName, "error", err)
		}
	}()

	if verr := s.Schemas.Validate(schema.QueryID, query); verr != nil {
		err = newError(OpFindQuery, NameQueryValidity, verr, map[string]any{"schemaErrors": schemaCauses(verr)})
		s.Logger.Debug("Could not process query", "func", funcName, "error", err)
		return nil, err
	}

	user, ferr := s.UserRepo.FindUser(ctx, query)
	if ferr != nil || user == nil {
		err = newError(OpFindQuery, NameNotFound, ferr, map[string]any{"errorFind": errorString(ferr)})
		s.Logger.Debug("Could not find user", "func", funcName, "error", err)
		return nil, err
	}

	s.Logger.Debug("Found user", "func", funcName, "ID", user.ID)
	return user, nil
}

// Register creates a user and returns its ID.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "user", req.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	var newUser models.User
	if err := s.Schemas.DecodeDefaults(schema.UserID, &newUser); err != nil {
		return "", newError(OpRegister, NameException, err, nil)
	}
	newUser.Username = helper.Lower(req.Username)
	newUser.Email = helper.Lower(req.Email)
	newUser.Creation = time.Now().UTC()

	// Report every invalid input at once.
	var errs []*Error
	preRegister := map[string]any{
		models.FieldUsername: newUser.Username,
		models.FieldEmail:    newUser.Email,
		models.FieldCreation: newUser.Creation.Format(time.RFC3339Nano),
		models.FieldVerified: newUser.Verified,
	}
	if verr := s.Schemas.Validate(schema.UserPreRegisterID, preRegister); verr != nil {
		errs = append(errs, newError(OpRegister, NameValidity, verr, map[string]any{
			"validityErrors": schemaCauses(verr),
			"properties":     schemaProperties(verr),
		}))
	}
	if perr := s.checkPassword(OpRegister, req.Password); perr != nil {
		errs = append(errs, perr)
	}
	if len(errs) > 0 {
		err := join(errs)
		s.Logger.Debug("Failed to register user", "func", funcName, "user", newUser.Username, "error", err)
		return "", err
	}

	c := chain.New()
	result, err := c.Run(ctx,
		func(args ...any) {
			// Lookup and hashing are expensive, so they come after validation.
			if _, err := s.FindQuery(ctx, models.UserQuery{Username: newUser.Username, Email: newUser.Email}); err == nil {
				c.Fail(newError(OpRegister, NameTaken, nil, nil))
				return
			}
			c.Next()
		},
		func(args ...any) {
			hash, err := s.Hasher.Hash(req.Password)
			if err != nil {
				c.Fail(newError(OpRegister, NameHash, err, map[string]any{"errorHash": err.Error()}))
				return
			}
			c.Next(hash)
		},
		func(args ...any) {
			newUser.PasswordHash = args[0].(string)
			id, err := s.UserRepo.AddUser(ctx, newUser)
			if err != nil {
				c.Fail(newError(OpRegister, NameSave, err, nil))
				return
			}
			c.Succeed(id)
		},
	)
	if err != nil {
		err = s.outcome(OpRegister, err)
		s.Logger.Warn("Failed to register user", "func", funcName, "user", newUser.Username, "error", err)
		return "", err
	}

	userID := result.(string)
	s.Logger.Info("User registered successfully", "func", funcName, "user", newUser.Username, "ID", userID)
	return userID, nil
}

// Authenticate checks the credentials of the user identified by ID or
// username. A session token issued for that same user stands in for the
// password.
func (s *UserService) Authenticate(ctx context.Context, req models.AuthRequest) (*models.User, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "id", req.ID, "user", req.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	fields := req.Fields
	if len(fields) > 0 && !slices.Contains(fields, models.FieldPasswordHash) {
		fields = append(slices.Clone(fields), models.FieldPasswordHash)
	}

	user, err := s.Find(ctx, models.FindRequest{ID: req.ID, Username: req.Username, Fields: fields})
	if err != nil {
		authErr := newError(OpAuthenticate, NameUsername, err, map[string]any{"errorFind": err})
		s.Logger.Debug("Authentication failed", "func", funcName, "user", req.Username, "error", authErr)
		return nil, authErr
	}

	if req.SessionToken != "" && s.Tokens != nil {
		tokenUser, terr := s.Tokens.VerifyToken(req.SessionToken)
		if terr == nil && tokenUser == user.ID {
			s.Logger.Debug("Authentication successful by session", "func", funcName, "ID", user.ID)
			return user, nil
		}
		s.Logger.Debug("Session token rejected", "func", funcName, "ID", user.ID, "error", terr)
	}

	ok, cerr := s.Hasher.Compare(user.PasswordHash, req.Password)
	if cerr != nil || !ok {
		authErr := newError(OpAuthenticate, NamePassword, cerr, nil)
		s.Logger.Debug("Authentication failed", "func", funcName, "user", req.Username, "error", authErr)
		return nil, authErr
	}

	s.Logger.Info("User authenticated successfully", "func", funcName, "ID", user.ID)
	return user, nil
}

// Edit re-authenticates the user and stores the changed attributes. A
// password change ignores the session token, so the current password has to
// be entered again.
func (s *UserService) Edit(ctx context.Context, req models.EditRequest) error {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "id", req.ID, "user", req.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	if req.NewData == nil || req.NewData.IsEmpty() {
		err := newError(OpEdit, NameNoNewData, nil, nil)
		s.Logger.Debug("Failed to edit user", "func", funcName, "error", err)
		return err
	}
	newData := *req.NewData

	edit := map[string]any{}
	if newData.Email != "" {
		edit[models.FieldEmail] = helper.Lower(newData.Email)
	}
	if newData.Username != "" {
		edit[models.FieldUsername] = helper.Lower(newData.Username)
	}

	c := chain.New()
	_, err := c.Run(ctx,
		func(args ...any) {
			creds := req.AuthRequest
			if newData.Password != "" {
				creds.SessionToken = ""
			}
			user, err := s.Authenticate(ctx, creds)
			if err != nil {
				c.Fail(newError(OpEdit, NameAuthenticate, err, nil))
				return
			}
			c.Next(user)
		},
		func(args ...any) {
			user := args[0].(*models.User)

			var errs []*Error
			if newData.Password != "" {
				if perr := s.checkPassword(OpEdit, newData.Password); perr != nil {
					errs = append(errs, perr)
				}
			}
			if verr := s.Schemas.Validate(schema.UserEditID, edit); verr != nil {
				errs = append(errs, newError(OpEdit, NameEditValidity, verr, map[string]any{"schemaErrors": schemaCauses(verr)}))
			}
			if len(errs) > 0 {
				c.Fail(join(errs))
				return
			}

			if newData.Password != "" {
				hash, err := s.Hasher.Hash(newData.Password)
				if err != nil {
					c.Fail(newError(OpEdit, NameHash, err, nil))
					return
				}
				edit[models.FieldPasswordHash] = hash
			}
			c.Next(user)
		},
		func(args ...any) {
			user := args[0].(*models.User)

			email, emailChanged := edit[models.FieldEmail].(string)
			if emailChanged && email == user.Email {
				delete(edit, models.FieldEmail)
				emailChanged = false
			}
			username, usernameChanged := edit[models.FieldUsername].(string)
			if usernameChanged && username == user.Username {
				delete(edit, models.FieldUsername)
				usernameChanged = false
			}
			if emailChanged {
				edit[models.FieldVerified] = false
			}

			// Both conflict checks report in; the second one continues.
			c.Pause(1)
			go func() {
				if emailChanged {
					if _, err := s.FindQuery(ctx, models.UserQuery{Email: email}); err == nil {
						c.Fail(newError(OpEdit, NameEmailTaken, nil, nil))
						return
					}
				}
				c.Next(user)
			}()
			go func() {
				if usernameChanged {
					if _, err := s.FindQuery(ctx, models.UserQuery{Username: username}); err == nil {
						c.Fail(newError(OpEdit, NameUsernameTaken, nil, nil))
						return
					}
				}
				c.Next(user)
			}()
		},
		func(args ...any) {
			user := args[0].(*models.User)
			if len(edit) == 0 {
				c.Succeed(nil)
				return
			}
			// Run has already reported a cancelled ctx to the caller; do not
			// store a change they were told failed.
			if err := ctx.Err(); err != nil {
				c.Fail(err)
				return
			}
			if err := s.UserRepo.UpdateUser(ctx, user.ID, edit); err != nil {
				c.Fail(newError(OpEdit, NameWrite, err, map[string]any{"errorUpdate": err.Error()}))
				return
			}
			c.Succeed(nil)
		},
	)
	if err != nil {
		err = s.outcome(OpEdit, err)
		s.Logger.Debug("Failed to edit user", "func", funcName, "user", req.Username, "error", err)
		return err
	}

	s.Logger.Info("User edited successfully", "func", funcName, "user", req.Username, "fields", len(edit))
	return nil
}

// Remove deletes the authenticated user and returns the removed ID. The
// password is always required.
func (s *UserService) Remove(ctx context.Context, req models.AuthRequest) (string, error) {
	funcName := helper.GetFuncName()
	s.Logger.Debug("Entering function", "func", funcName, "id", req.ID, "user", req.Username)
	defer s.Logger.Debug("Exiting function", "func", funcName, "user", req.Username)

	req.SessionToken = ""

	c := chain.New()
	result, err := c.Run(ctx,
		func(args ...any) {
			user, err := s.Authenticate(ctx, req)
			if err != nil {
				c.Fail(newError(OpRemove, NameAuthenticate, err, map[string]any{"errorFind": err}))
				return
			}
			c.Next(user)
		},
		func(args ...any) {
			user := args[0].(*models.User)
			// The user was just found, so this only fails when storage does.
			if err := s.UserRepo.RemoveUser(ctx, user.ID); err != nil {
				c.Fail(newError(OpRemove, NameUnknown1, err, map[string]any{"errorFind": err.Error()}))
				return
			}
			c.Succeed(user.ID)
		},
	)
	if err != nil {
		err = s.outcome(OpRemove, err)
		s.Logger.Debug("Failed to remove user", "func", funcName, "user", req.Username, "error", err)
		return "", err
	}

	userID := result.(string)
	s.Logger.Info("User removed successfully", "func", funcName, "ID", userID)
	return userID, nil
}

// checkPassword validates a new plaintext password. The schema counts
// characters while bcrypt limits bytes, so both are checked.
func (s *UserService) checkPassword(op, password string) *Error {
	if verr := s.Schemas.Validate(schema.PasswordID, password); verr != nil {
		return newError(op, NamePasswordValidity, verr, nil)
	}
	if len(password) > hasher.MaxPasswordBytes {
		return newError(op, NamePasswordValidity,
			fmt.Errorf("password is longer than %d bytes", hasher.MaxPasswordBytes),
			map[string]any{"maxBytes": hasher.MaxPasswordBytes})
	}
	return nil
}

// outcome keeps account errors and turns anything else (a cancelled context,
// a panicking step) into an exception of op.
func (s *UserService) outcome(op string, err error) error {
	if len(List(err)) > 0 {
		return err
	}
	var panicErr *chain.PanicError
	if errors.As(err, &panicErr) {
		s.Logger.Error("Operation panicked", "op", op, "error", err)
	}
	return newError(op, NameException, err, nil)
}

func schemaCauses(err error) []schema.Cause {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return verr.Causes
	}
	return []schema.Cause{{Message: err.Error()}}
}

func schemaProperties(err error) []string {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return verr.Properties()
	}
	return nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
