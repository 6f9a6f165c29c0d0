package core

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		err := NewValidationError("name", ErrNameConflict, "collection %q already exists", "Users")
		assert.ErrorIs(t, err, ErrNameConflict)
		assert.Equal(t, CodeValidation, CodeOf(err))
		assert.Equal(t, "name", FieldOf(err))
		assert.Contains(t, err.Error(), `collection "Users" already exists`)
	})

	t.Run("not found", func(t *testing.T) {
		err := fmt.Errorf("move: %w", NewNotFoundError("request", "r1"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, CodeNotFound, CodeOf(err))
	})

	t.Run("persistence", func(t *testing.T) {
		assert.NoError(t, NewPersistenceError(nil))
		cause := &os.PathError{Op: "write", Path: "/data/u1.yaml", Err: errors.New("disk full")}
		err := NewPersistenceError(cause)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, cause)
		var pathErr *os.PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "/data/u1.yaml", pathErr.Path)
		assert.Equal(t, CodePersistence, CodeOf(err))
		assert.Contains(t, err.Error(), "disk full")
	})

	t.Run("canceled", func(t *testing.T) {
		assert.Equal(t, CodeCanceled, CodeOf(ErrCanceled))
		assert.Equal(t, CodeUnknown, CodeOf(errors.New("other")))
	})
}
