//go:build windows

package ops

import (
	"os"

	"github.com/hpungsan/objdb/internal/errors"
)

// openNoFollow has no O_NOFOLLOW on Windows; ValidatePath has already
// rejected symlinked files.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, flag, perm)
	if os.IsNotExist(err) && flag&os.O_CREATE == 0 {
		return nil, errors.NewFileNotFound(path)
	}
	return f, err
}
