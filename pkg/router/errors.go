package router

import (
	"errors"
	"fmt"
)

// ErrNoFileName is returned for uploads whose path has no usable base name.
var ErrNoFileName = errors.New("no file name in request path")

// UploadError reports that an uploaded body could not be stored.
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %q: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}
