package dto

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest entrada para renovar el access token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UserResponse perfil del usuario autenticado (sin password).
type UserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	BranchID    string   `json:"branchId,omitempty"`
	BranchName  string   `json:"branchName,omitempty"`
	Permissions []string `json:"permissions"`
}

// LoginResponse tokens + usuario.
type LoginResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         UserResponse `json:"user"`
}

// RefreshResponse nuevo access token.
type RefreshResponse struct {
	Token string `json:"token"`
}
