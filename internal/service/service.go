package service

import (
	"context"
	"net/url"

	"github.com/sefazor/storefront/internal/models"
)

// API is the slice of the HTTP client the services rely on.
type API interface {
	Do(ctx context.Context, method, path string, body, out interface{}) (int, error)
	DoNullable(ctx context.Context, method, path string, body, out interface{}) (bool, error)
}

// UserSource yields the logged in user's id.
type UserSource interface {
	UserID(ctx context.Context) (string, error)
}

// RoleWriter persists a role change reported by the backend.
type RoleWriter interface {
	UpdateRole(ctx context.Context, role models.Role) (models.Role, error)
}

// StructValidator checks request structs before they go out.
type StructValidator interface {
	Struct(s interface{}) error
}

const apiPrefix = "/v1/api"

func endpoint(parts ...string) string {
	path := apiPrefix
	for _, part := range parts {
		path += "/" + url.PathEscape(part)
	}
	return path
}
