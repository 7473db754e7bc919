package models

import "time"

// AssetResponse is de externe view van een asset
type AssetResponse struct {
	Id        string    `json:"id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mimeType"`
	Size      int64     `json:"size"`
	ETag      string    `json:"etag"`
	Version   int       `json:"version"`
	IsPublic  bool      `json:"isPublic"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Links     *Links    `json:"_links,omitempty"`
}

type AssetVersionResponse struct {
	Id            string    `json:"id"`
	AssetId       string    `json:"assetId"`
	VersionNumber int       `json:"versionNumber"`
	ETag          string    `json:"etag"`
	CreatedAt     time.Time `json:"createdAt"`
	Url           string    `json:"url"`
}

type PublishResponse struct {
	VersionId     string `json:"versionId"`
	VersionNumber int    `json:"versionNumber"`
	ETag          string `json:"etag"`
	Url           string `json:"url"`
}

type AccessTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type ServiceInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Docs    string `json:"docs"`
}

// Link representeert een hypermedia‐link
type Link struct {
	Href string `json:"href"`
}

type Links struct {
	Self     *Link `json:"self"`
	Download *Link `json:"download,omitempty"`
	Versions *Link `json:"versions,omitempty"`
}
