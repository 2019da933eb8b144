// Package services contains the application operations of the portal.
// Services are called by handlers; they load state from the store, run it
// through the lifecycle engine, and commit the result.
package services

import (
	"errors"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/store"
)

// AuthError reports failed authentication (bad credentials, bad token)
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// storeErr converts a store failure into the engine's error taxonomy.
// Errors that are already classified pass through untouched.
func storeErr(op, resource, key string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &lifecycle.NotFoundError{Resource: resource, Key: key}
	case lifecycle.KindOf(err) != lifecycle.KindUnknown:
		return err
	default:
		return &lifecycle.StoreUnavailableError{Op: op, Err: err}
	}
}
