package receipt

import "fmt"

// InvalidImageError means the uploaded bytes did not decode as a supported
// image. The upload is rejected before anything touches the disk; the user
// can correct this by re-uploading.
type InvalidImageError struct {
	Err error
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image: %v", e.Err)
}

func (e *InvalidImageError) Unwrap() error {
	return e.Err
}

// StorageWriteError means the normalized image could not be written to the
// artifact store. Surfaced to the caller, never retried.
type StorageWriteError struct {
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("writing to artifact store: %v", e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}
