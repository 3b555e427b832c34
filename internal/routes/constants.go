package routes

var (
	SignupDurationSecondsBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	LoginDurationSecondsBuckets  = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	AccountFailuresLabels = []string{"operation", "reason"}
)

const (
	// API route constants
	MetricsRouteAPI = "/metrics"
	LoginRouteAPI   = "/login"
	SignupRouteAPI  = "/signup"
	EditRouteAPI    = "/edit"
	RemoveRouteAPI  = "/remove"
	MeRouteAPI      = "/me"

	// Content-Type constants
	ContentType     = "Content-Type"
	ContentTypeJson = "application/json"

	// SessionCookie carries the session token issued at login.
	SessionCookie = "session_token"

	// message constants
	MsgLoginSuccessful   = "Login successful"
	MsgUserCreatedFormat = "User created successfully with ID: %s"
	MsgUserEdited        = "User updated successfully"
	MsgUserRemoved       = "User removed successfully"

	// Error messages
	ErrMethodNotAllowed         = "Method not allowed"
	ErrInvalidContentType       = "Request Content-Type must be application/json"
	ErrInvalidRequestBody       = "Invalid request body"
	ErrValidationFailed         = "Request data validation failed"
	ErrFailedToRegisterUser     = "Failed to register user"
	ErrFailedToEncodeResponse   = "Failed to encode response"
	ErrFailedToGenerateToken    = "Failed to generate session token"
	ErrInvalidCredentials       = "Invalid username or password"
	ErrFailedToEditUser         = "Failed to update user"
	ErrFailedToRemoveUser       = "Failed to remove user"
	ErrFailedToFindUser         = "Failed to find user"
	ErrMissingSession           = "A valid session is required"
	ErrInvalidContentTypeFormat = "invalid content-type: %s"

	// metrics constants
	SignupRequestsTotal       = "signup_requests_total"
	SignupRequestsTotalHelp   = "Total number of signup requests received"
	SignupSuccessTotal        = "signup_success_total"
	SignupSuccessTotalHelp    = "Total number of successful signup requests"
	SignupErrorsTotal         = "signup_errors_total"
	SignupErrorsTotalHelp     = "Total number of errors during signup requests"
	SignupDurationSeconds     = "signup_duration_seconds"
	SignupDurationSecondsHelp = "Duration of signup requests in seconds"
	LoginRequestsTotal        = "login_requests_total"
	LoginRequestsTotalHelp    = "Total number of login requests received"
	LoginSuccessTotal         = "login_success_total"
	LoginSuccessTotalHelp     = "Total number of successful login requests"
	LoginFailedTotal          = "login_failed_total"
	LoginFailedTotalHelp      = "Total number of failed login requests"
	LoginDurationSeconds      = "login_duration_seconds"
	LoginDurationSecondsHelp  = "Duration of login requests in seconds"
	LoginRateLimitedTotal     = "login_rate_limited_total"
	LoginRateLimitedTotalHelp = "Total number of login, edit and remove requests that were rate limited"
	EditRequestsTotal         = "edit_requests_total"
	EditRequestsTotalHelp     = "Total number of edit requests received"
	RemoveRequestsTotal       = "remove_requests_total"
	RemoveRequestsTotalHelp   = "Total number of remove requests received"
	AccountFailuresTotal      = "account_failures_total"
	AccountFailuresTotalHelp  = "Failed account operations by operation and error name"
)
