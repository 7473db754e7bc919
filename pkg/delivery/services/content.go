package services

import (
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
)

// FetchRequest carries the request state that influences a content fetch.
type FetchRequest struct {
	// IfNoneMatch is the raw If-None-Match header value.
	IfNoneMatch string
	// Probe requests headers only (HEAD); storage is never read.
	Probe bool
	// Token is the access token offered for a non-public asset.
	Token string
}

// Content is a representation ready to be written to the client. Body is
// nil for probes and for not-modified results.
type Content struct {
	Body          []byte
	ETag          string
	CacheControl  string
	MediaType     string
	Size          int64
	Filename      string
	LastModified  time.Time
	VersionNumber int
	NotModified   bool
}

func contentFromAsset(asset *models.Asset, directive string) *Content {
	return &Content{
		ETag:         asset.ETag,
		CacheControl: directive,
		MediaType:    asset.MimeType,
		Size:         asset.Size,
		Filename:     asset.Filename,
		LastModified: asset.UpdatedAt,
	}
}

// UploadInput describes new content for Upload.
type UploadInput struct {
	Filename  string
	MediaType string
	Content   []byte
	IsPublic  bool
}
