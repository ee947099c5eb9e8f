package auth

// LoginResult is returned by a successful sign-in.
type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// Registration carries a new self-service account.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Recovery resets the password of an existing account.
type Recovery struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// EmailCheck reports whether an email already has an account.
type EmailCheck struct {
	Message    string `json:"message"`
	Registered bool   `json:"registered"`
}

// VerificationCode is the response to a code request.
type VerificationCode struct {
	Message string `json:"message"`
	Code    string `json:"verification_code"`
}

type credentials struct {
	Account  string `json:"account" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type roleResponse struct {
	Role string `json:"role"`
}

type nameResponse struct {
	Username string `json:"username"`
}
