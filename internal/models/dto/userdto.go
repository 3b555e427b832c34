package dto

type UserSignupRequestDTO struct {
	Username string `json:"username" validate:"required,max=256"`
	Email    string `json:"email" validate:"required,max=256"`
	Password string `json:"password" validate:"required,max=256"`
}

type UserSignupResponseDTO struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

type UserEditRequestDTO struct {
	Username    string `json:"username" validate:"required_without=ID,max=256"`
	ID          string `json:"id" validate:"omitempty,max=64"`
	Password    string `json:"password" validate:"max=256"`
	NewUsername string `json:"new_username" validate:"max=256"`
	NewEmail    string `json:"new_email" validate:"max=256"`
	NewPassword string `json:"new_password" validate:"max=256"`
}

type UserRemoveRequestDTO struct {
	Username string `json:"username" validate:"required_without=ID,max=256"`
	ID       string `json:"id" validate:"omitempty,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

type MessageResponseDTO struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// ErrorResponseDTO mirrors the structured account error.
type ErrorResponseDTO struct {
	Error         string         `json:"error"`
	Message       string         `json:"message"`
	ErrorName     string         `json:"errorName,omitempty"`
	ErrorNameFull string         `json:"errorNameFull,omitempty"`
	ErrorData     map[string]any `json:"errorData,omitempty"`
	Errors        []ErrorItemDTO `json:"errors,omitempty"`
}

type ErrorItemDTO struct {
	ErrorName     string         `json:"errorName"`
	ErrorNameFull string         `json:"errorNameFull"`
	ErrorData     map[string]any `json:"errorData,omitempty"`
}
