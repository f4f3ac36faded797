package library

import "errors"

var (
	// ErrDownload covers non-2xx responses, missing bodies and transport I/O errors.
	ErrDownload = errors.New("download failed")
	// ErrExtraction means the archive was corrupt or the destination unwritable.
	ErrExtraction = errors.New("extraction failed")
	// ErrMissingAsset means the unzipped book lacks its cover image or content HTML.
	ErrMissingAsset = errors.New("missing book asset")
	// ErrMalformedState means persisted client state did not decode into its fields.
	ErrMalformedState = errors.New("malformed client state")
	// ErrNotFound is returned for unknown book or chapter ids.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateOrder means two content items of one chapter share an order index.
	ErrDuplicateOrder = errors.New("duplicate order index")
)
