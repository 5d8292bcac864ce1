package model

// Header names shared by the server and the client. They must round-trip unchanged.
const (
	HeaderAccessToken  = "x-access-token"
	HeaderRefreshToken = "x-refresh-token"
	HeaderUserID       = "_id"
)

type AuthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthUser is the identity produced by access token verification.
type AuthUser struct {
	ID string
}
