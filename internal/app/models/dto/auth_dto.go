package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"SCT211-0001/2020"`
	Password string `json:"password" binding:"required" example:"+254712345678"`
}

// PasswordResetRequest carries the new password of a credential in the reset state
type PasswordResetRequest struct {
	Username string `json:"username" binding:"required" example:"SCT211-0001/2020"`
	Password string `json:"password" binding:"required" example:"s3cret-Pass"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int    `json:"expiresIn" example:"28800"`
}

// IdentityResponse summarises the logged-in credential
type IdentityResponse struct {
	ID       int64  `json:"id" example:"7"`
	Username string `json:"username" example:"SCT211-0001/2020"`
	Type     string `json:"type" example:"Student"`
	TypeID   int64  `json:"typeID" example:"3"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse    `json:"token"`
	User  IdentityResponse `json:"user"`
}
