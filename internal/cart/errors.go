package cart

import (
	"errors"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var (
	ErrAuthRequired           = errors.New("authentication required")
	ErrItemNotFound           = errors.New("catalog item not found")
	ErrLineNotFound           = errors.New("cart line not found")
	ErrForbidden              = errors.New("cart line belongs to another user")
	ErrConflictRetryExhausted = errors.New("cart write conflict persisted after retry")
)

// errRowVanished marks a re-attempt that found no row to increment.
var errRowVanished = errors.New("cart line vanished during re-attempt")

func authRequired() error {
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrAuthRequired, "authentication required")
}

func itemNotFound() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrItemNotFound, "item not found")
}

func lineNotFound() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrLineNotFound, "cart line not found")
}

func forbidden() error {
	return pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrForbidden, "cart line not owned by caller")
}

func conflictRetryExhausted(cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrConflictRetryExhausted, cause), "cart is busy, try again")
}
