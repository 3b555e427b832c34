package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Joseph14078/JoAuth/internal/interfaces"
	"github.com/Joseph14078/JoAuth/internal/models"
	"github.com/Joseph14078/JoAuth/internal/models/dto"
	"github.com/Joseph14078/JoAuth/internal/userservice"

	structValidator "github.com/go-playground/validator/v10"
)

type Route struct {
	Metrics     interfaces.Metrics
	UserService interfaces.UserService
	Tokens      interfaces.TokenIssuer
	SessionTTL  time.Duration
	Logger      interfaces.Logger
	validator   *structValidator.Validate
}

// NewRoute creates a new Route instance.
func NewRoute(metrics interfaces.Metrics, userService interfaces.UserService,
	tokens interfaces.TokenIssuer, sessionTTL time.Duration,
	validator *structValidator.Validate, logger interfaces.Logger,
) *Route {

	return &Route{
		Metrics:     metrics,
		UserService: userService,
		Tokens:      tokens,
		SessionTTL:  sessionTTL,
		Logger:      logger,
		validator:   validator,
	}
}

// Signup handles user signup requests.
func (r *Route) Signup(w http.ResponseWriter, req *http.Request) {
	r.incCounter(SignupRequestsTotal)

	signupRequest := &dto.UserSignupRequestDTO{}
	if !r.decode(w, req, http.MethodPost, signupRequest) {
		r.incCounter(SignupErrorsTotal)
		return
	}

	startTime := time.Now()
	userID, err := r.UserService.Register(req.Context(), models.RegisterRequest{
		Username: signupRequest.Username,
		Email:    signupRequest.Email,
		Password: signupRequest.Password,
	})
	if err != nil {
		r.incCounter(SignupErrorsTotal)
		r.accountError(w, userservice.OpRegister, err, ErrFailedToRegisterUser)
		return
	}

	r.incCounter(SignupSuccessTotal)
	r.observe(SignupDurationSeconds, startTime)

	r.writeJSON(w, http.StatusCreated, &dto.UserSignupResponseDTO{
		Message: fmt.Sprintf(MsgUserCreatedFormat, userID),
		UserID:  userID,
	})
}

// Login handles user login requests. A successful login sets the session
// cookie.
func (r *Route) Login(w http.ResponseWriter, req *http.Request) {
	r.incCounter(LoginRequestsTotal)

	loginRequest := &dto.LoginRequestDTO{}
	if !r.decode(w, req, http.MethodPost, loginRequest) {
		r.incCounter(LoginFailedTotal)
		return
	}

	startTime := time.Now()
	user, err := r.UserService.Authenticate(req.Context(), models.AuthRequest{
		Username: loginRequest.Username,
		Password: loginRequest.Password,
	})
	r.observe(LoginDurationSeconds, startTime)
	if err != nil {
		r.incCounter(LoginFailedTotal)
		r.accountError(w, userservice.OpAuthenticate, err, ErrInvalidCredentials)
		return
	}

	sessionToken, err := r.Tokens.CreateToken(user.ID)
	if err != nil {
		r.incCounter(LoginFailedTotal)
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToGenerateToken)
		return
	}
	r.incCounter(LoginSuccessTotal)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sessionToken,
		Path:     "/",
		MaxAge:   int(r.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   req.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	r.writeJSON(w, http.StatusOK, &dto.LoginResponseDTO{
		Message: MsgLoginSuccessful,
		UserID:  user.ID,
	})
}

// Edit changes the username, email or password of a user. The session cookie
// is honoured except for password changes.
func (r *Route) Edit(w http.ResponseWriter, req *http.Request) {
	r.incCounter(EditRequestsTotal)

	editRequest := &dto.UserEditRequestDTO{}
	if !r.decode(w, req, http.MethodPost, editRequest) {
		return
	}

	err := r.UserService.Edit(req.Context(), models.EditRequest{
		AuthRequest: models.AuthRequest{
			ID:           editRequest.ID,
			Username:     editRequest.Username,
			Password:     editRequest.Password,
			SessionToken: sessionToken(req),
		},
		NewData: &models.EditData{
			Username: editRequest.NewUsername,
			Email:    editRequest.NewEmail,
			Password: editRequest.NewPassword,
		},
	})
	if err != nil {
		r.accountError(w, userservice.OpEdit, err, ErrFailedToEditUser)
		return
	}

	r.writeJSON(w, http.StatusOK, &dto.MessageResponseDTO{Message: MsgUserEdited, UserID: editRequest.ID})
}

// Remove deletes the user after checking the password and clears the
// session cookie.
func (r *Route) Remove(w http.ResponseWriter, req *http.Request) {
	r.incCounter(RemoveRequestsTotal)

	removeRequest := &dto.UserRemoveRequestDTO{}
	if !r.decode(w, req, http.MethodPost, removeRequest) {
		return
	}

	userID, err := r.UserService.Remove(req.Context(), models.AuthRequest{
		ID:       removeRequest.ID,
		Username: removeRequest.Username,
		Password: removeRequest.Password,
	})
	if err != nil {
		r.accountError(w, userservice.OpRemove, err, ErrFailedToRemoveUser)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	r.writeJSON(w, http.StatusOK, &dto.MessageResponseDTO{Message: MsgUserRemoved, UserID: userID})
}

// Me returns the fields of the logged in user that are safe to show them.
func (r *Route) Me(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method), ErrMethodNotAllowed)
		return
	}

	token := sessionToken(req)
	if token == "" {
		r.errorResponse(w, http.StatusUnauthorized, fmt.Errorf("no session cookie"), ErrMissingSession)
		return
	}
	userID, err := r.Tokens.VerifyToken(token)
	if err != nil {
		r.errorResponse(w, http.StatusUnauthorized, err, ErrMissingSession)
		return
	}

	safe := r.UserService.SafeFields()
	fields := make([]string, 0, len(safe))
	for _, f := range safe {
		if f != models.FieldID {
			fields = append(fields, f)
		}
	}

	user, err := r.UserService.Find(req.Context(), models.FindRequest{ID: userID, Fields: fields})
	if err != nil {
		r.accountError(w, userservice.OpFind, err, ErrFailedToFindUser)
		return
	}

	body, err := project(user, safe)
	if err != nil {
		r.errorResponse(w, http.StatusInternalServerError, err, ErrFailedToEncodeResponse)
		return
	}
	r.writeJSON(w, http.StatusOK, body)
}

// decode checks the method and content type, then decodes and validates the
// JSON body into dst. It writes the error response itself and returns false
// when the request is unusable.
func (r *Route) decode(w http.ResponseWriter, req *http.Request, method string, dst interface{}) bool {
	if req.Method != method {
		r.errorResponse(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", req.Method), ErrMethodNotAllowed)
		return false
	}

	if req.Header.Get(ContentType) != ContentTypeJson {
		r.errorResponse(w, http.StatusBadRequest, fmt.Errorf(ErrInvalidContentTypeFormat, req.Header.Get(ContentType)), ErrInvalidContentType)
		return false
	}

	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		r.errorResponse(w, http.StatusBadRequest, err, ErrInvalidRequestBody)
		return false
	}

	if err := r.validator.Struct(dst); err != nil {
		var validationErrors structValidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			err = fmt.Errorf("invalid request data: %s", validationErrors)
		}
		r.errorResponse(w, http.StatusBadRequest, err, ErrValidationFailed)
		return false
	}
	return true
}

// accountError maps an account failure to a status code and writes it with
// the structured error details.
func (r *Route) accountError(w http.ResponseWriter, op string, err error, message string) {
	list := userservice.List(err)
	response := &dto.ErrorResponseDTO{
		Error:   err.Error(),
		Message: message,
	}
	if len(list) > 0 {
		response.ErrorName = list[0].Name
		response.ErrorNameFull = list[0].NameFull
		response.ErrorData = list[0].Data
	}
	if len(list) > 1 {
		for _, e := range list {
			response.Errors = append(response.Errors, dto.ErrorItemDTO{
				ErrorName:     e.Name,
				ErrorNameFull: e.NameFull,
				ErrorData:     e.Data,
			})
		}
	}

	status := StatusFor(err)
	if r.Metrics != nil {
		reason := "unknown"
		if len(list) > 0 {
			reason = list[0].Name
		}
		r.Metrics.IncCounterVec(AccountFailuresTotal, op, reason)
	}
	if r.Logger != nil && status >= http.StatusInternalServerError {
		r.Logger.Error(message, "operation", op, "error", err)
	}
	r.writeJSON(w, status, response)
}

// StatusFor returns the HTTP status of an account error, judged by its first
// entry.
func StatusFor(err error) int {
	list := userservice.List(err)
	if len(list) == 0 {
		return http.StatusInternalServerError
	}
	switch list[0].Name {
	case userservice.NameValidity, userservice.NameQueryValidity, userservice.NamePasswordValidity,
		userservice.NameEditValidity, userservice.NameNoNewData:
		return http.StatusBadRequest
	case userservice.NameUsername, userservice.NamePassword, userservice.NameAuthenticate:
		return http.StatusUnauthorized
	case userservice.NameNotFound:
		return http.StatusNotFound
	case userservice.NameTaken, userservice.NameEmailTaken, userservice.NameUsernameTaken:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (r *Route) errorResponse(w http.ResponseWriter, status int, err error, message string) {
	r.writeJSON(w, status, &dto.ErrorResponseDTO{
		Error:   err.Error(),
		Message: message,
	})
}

func (r *Route) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set(ContentType, ContentTypeJson)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil && r.Logger != nil {
		r.Logger.Error(ErrFailedToEncodeResponse, "error", err)
	}
}

func (r *Route) incCounter(name string) {
	if r.Metrics != nil {
		r.Metrics.IncCounter(name)
	}
}

func (r *Route) observe(name string, start time.Time) {
	if r.Metrics != nil {
		r.Metrics.ObserveHistogram(name, time.Since(start).Seconds())
	}
}

func sessionToken(req *http.Request) string {
	cookie, err := req.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// project keeps only the listed fields of user.
func project(user *models.User, fields []string) (map[string]interface{}, error) {
	raw, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	all := map[string]interface{}{}
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, err
	}
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if v, ok := all[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}
