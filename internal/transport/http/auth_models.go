package http

import (
	"time"

	"github.com/njprem/travelswipe/internal/deck"
	"github.com/njprem/travelswipe/internal/domain"
	"github.com/njprem/travelswipe/internal/service"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid email or password"`
	Kind  string `json:"kind,omitempty" example:"validation"`
}

// AuthUser is the public user representation returned by auth endpoints.
type AuthUser struct {
	ID    string `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email string `json:"email" example:"traveller@example.com"`
	Name  string `json:"name" example:"Ana"`
}

// AuthTokenResponse is returned by sign up and sign in.
type AuthTokenResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at" example:"2026-01-08T09:30:00Z"`
	User      AuthUser `json:"user"`
}

// LikeRequest carries the package being liked. Either the full package or
// just its id may be sent; an id alone is resolved through the catalog.
type LikeRequest struct {
	PackageID string          `json:"package_id" example:"1"`
	Package   *domain.Package `json:"package,omitempty"`
}

// LikeResponse reports where the like was recorded besides the Local Store.
type LikeResponse struct {
	PackageID string `json:"package_id"`
	Source    string `json:"source" example:"remote"`
	LikedAt   string `json:"liked_at"`
}

// GestureRequest carries a drag displacement in points.
type GestureRequest struct {
	DX float64 `json:"dx" example:"150"`
	DY float64 `json:"dy" example:"4"`
}

// SettlementResponse is returned when a committed swipe completes.
type SettlementResponse struct {
	Decision  deck.Decision  `json:"decision"`
	Card      domain.Package `json:"card"`
	Cursor    int            `json:"cursor"`
	LikeError *ErrorResponse `json:"like_error,omitempty"`
}

func toAuthUser(u domain.SessionUser) AuthUser {
	return AuthUser{ID: u.ID, Email: u.Email, Name: u.Name}
}

func toAuthTokenResponse(res *service.AuthResult) AuthTokenResponse {
	return AuthTokenResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toAuthUser(res.User),
	}
}

func toLikeResponse(rec *domain.LikeRecord) LikeResponse {
	return LikeResponse{
		PackageID: rec.PackageID,
		Source:    string(rec.Source),
		LikedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}
