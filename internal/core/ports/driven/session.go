package driven

import (
	"context"

	"github.com/pwnpy/sharesentry/internal/core/domain"
)

// Session is an already-authenticated client bound to one target root address.
// Implementations map platform failures onto the domain error kinds
// (ErrTransport, ErrNotFound, ErrPermissionDenied, ErrRateLimited).
type Session interface {
	// Target returns the address this session is bound to.
	Target() domain.Target

	// Search returns the rows [startRow, startRow+pageSize) for the query.
	Search(ctx context.Context, query string, pageSize, startRow int) (domain.SearchPage, error)

	// DefaultLibrary resolves the target's default document library.
	DefaultLibrary(ctx context.Context) (*domain.Library, error)

	// SiteOwner resolves the nominal owner (creator) of the target.
	SiteOwner(ctx context.Context) (*domain.Principal, error)

	// UploadFile writes content into the library root under name, overwriting.
	UploadFile(ctx context.Context, library *domain.Library, name string, content []byte) (*domain.RemoteFile, error)

	// UpdateItemMetadata sets list item fields of the named file.
	// A nil error with per-field exceptions is a partial failure; callers inspect the results.
	UpdateItemMetadata(
		ctx context.Context, library *domain.Library, name string, fields []domain.FieldValue,
	) ([]domain.FieldUpdateResult, error)

	// CreateProbeFile creates a zero-length document with a platform-default
	// name in the default library.
	CreateProbeFile(ctx context.Context) (*domain.RemoteFile, error)

	// DeleteFile removes the file at the server-relative URL.
	DeleteFile(ctx context.Context, serverRelativeURL string) error

	// FileExists reports whether the file at the server-relative URL exists.
	FileExists(ctx context.Context, serverRelativeURL string) (bool, error)
}

// SessionFactory opens sessions for targets using one identity descriptor.
type SessionFactory interface {
	// Open returns a session bound to target.
	Open(ctx context.Context, target domain.Target) (Session, error)

	// IdentityClass returns the class of the identity behind every session,
	// used to pick the throttle interval.
	IdentityClass() domain.IdentityClass
}
