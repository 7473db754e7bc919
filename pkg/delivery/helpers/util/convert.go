package util

import (
	"fmt"
	"strings"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
)

// PublicVersionURL is the canonical edge URL of a published version.
func PublicVersionURL(baseURL, versionID string) string {
	return fmt.Sprintf("%s/v1/public/%s", strings.TrimRight(baseURL, "/"), versionID)
}

// AssetDownloadURL is the edge URL of the live asset content.
func AssetDownloadURL(baseURL, assetID string) string {
	return fmt.Sprintf("%s/v1/assets/%s/download", strings.TrimRight(baseURL, "/"), assetID)
}

func ToAssetResponse(asset *models.Asset) models.AssetResponse {
	return models.AssetResponse{
		Id:        asset.ID,
		Filename:  asset.Filename,
		MimeType:  asset.MimeType,
		Size:      asset.Size,
		ETag:      asset.ETag,
		Version:   asset.Version,
		IsPublic:  asset.IsPublic,
		CreatedAt: asset.CreatedAt,
		UpdatedAt: asset.UpdatedAt,
		Links: &models.Links{
			Self:     &models.Link{Href: fmt.Sprintf("/v1/assets/%s", asset.ID)},
			Download: &models.Link{Href: fmt.Sprintf("/v1/assets/%s/download", asset.ID)},
			Versions: &models.Link{Href: fmt.Sprintf("/v1/assets/%s/versions", asset.ID)},
		},
	}
}

func ToAssetVersionResponse(version *models.AssetVersion, baseURL string) models.AssetVersionResponse {
	return models.AssetVersionResponse{
		Id:            version.ID,
		AssetId:       version.AssetID,
		VersionNumber: version.VersionNumber,
		ETag:          version.ETag,
		CreatedAt:     version.CreatedAt,
		Url:           PublicVersionURL(baseURL, version.ID),
	}
}

func ToPublishResponse(version *models.AssetVersion, baseURL string) models.PublishResponse {
	return models.PublishResponse{
		VersionId:     version.ID,
		VersionNumber: version.VersionNumber,
		ETag:          version.ETag,
		Url:           PublicVersionURL(baseURL, version.ID),
	}
}

func ToAccessTokenResponse(token *models.AccessToken) models.AccessTokenResponse {
	return models.AccessTokenResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	}
}
