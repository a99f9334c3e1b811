package services

import (
	"fmt"

	"github.com/dmitrijs2005/veyra/internal/client/client"
)

// NotFoundError is returned when a key given to a resource module does not
// resolve to any entity. It differs from a remote 404 on a plain fetch, which
// is reported as a nil result.
type NotFoundError struct {
	Resolvable any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not resolve %v", e.Resolvable)
}

// Is lets callers match with client.ErrNotFound too.
func (e *NotFoundError) Is(target error) bool { return target == client.ErrNotFound }

func isNotFound(err error) bool {
	return client.IsStatus(err, 404)
}
