package dto

type LoginRequestDTO struct {
	Username string `json:"username" validate:"required,max=256"`
	Password string `json:"password" validate:"required,max=256"`
}

type LoginResponseDTO struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

type RateLimitResponse struct {
	Message string `json:"message"`
}
