package media

import "context"

// Result holds the outcome of a successful upload.
type Result struct {
	// PublicID is the provider-assigned identifier, usable for deletion.
	PublicID string
	// URL is the durable public URL of the uploaded asset.
	URL string
}

// Uploader sends locally buffered files to an external media host.
type Uploader interface {
	// Upload sends the file at localPath to the given logical folder and
	// returns its durable public URL plus provider metadata.
	Upload(ctx context.Context, localPath, folder string) (*Result, error)

	// Delete removes a previously uploaded asset by its public ID.
	Delete(ctx context.Context, publicID string) error
}
