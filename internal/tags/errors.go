package tags

import (
	"errors"
	"fmt"

	"github.com/nibzard/tagtree/internal/tree"
)

var (
	// ErrNotFound is returned when a tag lookup fails.
	ErrNotFound = tree.ErrNotFound
	// ErrCycle is returned when a reparent would make a tag its own ancestor.
	ErrCycle = tree.ErrCycle

	ErrExists            = errors.New("tag already exists")
	ErrInvalidName       = errors.New("invalid tag name")
	ErrInvalidRename     = errors.New("invalid rename")
	ErrMalformedDocument = errors.New("malformed tag document")
	ErrEncoding          = errors.New("attribute not representable as text")
	ErrReadOnlyAttribute = errors.New("attribute is read-only")
	ErrProtected         = errors.New("tag is protected")
	ErrTagInUse          = errors.New("tag is in use")
	ErrNoRequester       = errors.New("no task requester configured")
	ErrForeignTag        = errors.New("tag belongs to another store")
)

// RenameError describes why a rename was refused.
type RenameError struct {
	Old, New string
	Reason   string
}

func (e *RenameError) Error() string {
	return fmt.Sprintf("%s: %q -> %q: %s", ErrInvalidRename, e.Old, e.New, e.Reason)
}

func (e *RenameError) Unwrap() error { return ErrInvalidRename }
