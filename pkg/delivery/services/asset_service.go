package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/caching"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/cdn"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/helpers/util"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/models"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/repositories"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/delivery/storage"
	"github.com/developer-overheid-nl/don-content-delivery/pkg/logging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	defaultMediaType     = "application/octet-stream"
	defaultFilename      = "file"
	maxPublishAttempts   = 3
	maxConcurrentDeletes = 4
)

// AssetServiceOptions configures NewAssetService. A nil Policy selects
// caching.DefaultPolicy; an explicit one, zero max-ages included, is used as is.
type AssetServiceOptions struct {
	Policy        *caching.Policy
	PublicBaseURL string
	PurgeTimeout  time.Duration
	Logger        logrus.FieldLogger
	Now           func() time.Time
}

// AssetService implements upload, fetch, publish and delete of assets on top
// of the directory, the object store and the edge purger.
type AssetService struct {
	repo    repositories.AssetRepository
	store   storage.Store
	purger  cdn.Purger
	tokens  *TokenService
	policy  caching.Policy
	baseURL string
	purgeTO time.Duration
	logger  logrus.FieldLogger
	now     func() time.Time
}

func NewAssetService(repo repositories.AssetRepository, store storage.Store, purger cdn.Purger, tokens *TokenService, opts AssetServiceOptions) *AssetService {
	if purger == nil {
		purger = cdn.Noop{}
	}
	policy := caching.DefaultPolicy
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	if opts.PurgeTimeout <= 0 {
		opts.PurgeTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AssetService{
		repo:    repo,
		store:   store,
		purger:  purger,
		tokens:  tokens,
		policy:  policy,
		baseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
		purgeTO: opts.PurgeTimeout,
		logger:  opts.Logger,
		now:     opts.Now,
	}
}

// PublicBaseURL is the origin used to build public version URLs.
func (s *AssetService) PublicBaseURL() string {
	return s.baseURL
}

// Upload stores the content and records a new asset at version 1. Empty
// content is rejected before anything is written.
func (s *AssetService) Upload(ctx context.Context, in UploadInput) (*models.Asset, error) {
	if len(in.Content) == 0 {
		return nil, ErrEmptyContent
	}
	filename := sanitizeFilename(in.Filename)
	mediaType := strings.TrimSpace(in.MediaType)
	if mediaType == "" {
		mediaType = defaultMediaType
	}

	id := uuid.NewString()
	key := fmt.Sprintf("assets/%s/%s", id, filename)
	if err := s.store.Put(ctx, key, in.Content, mediaType); err != nil {
		return nil, fmt.Errorf("%w: put %s: %v", ErrStorage, key, err)
	}

	now := s.now().UTC()
	asset := &models.Asset{
		ID:        id,
		Filename:  filename,
		MimeType:  mediaType,
		Size:      int64(len(in.Content)),
		ETag:      caching.ComputeETag(in.Content),
		ObjectKey: key,
		Version:   1,
		IsPublic:  in.IsPublic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateAsset(ctx, asset); err != nil {
		s.removeObjects(context.WithoutCancel(ctx), id, []string{key})
		return nil, err
	}
	s.logger.WithFields(logging.AssetFields("upload", id)).
		WithField("size", asset.Size).
		Info("asset uploaded")
	return asset, nil
}

// GetAsset returns the asset metadata without touching storage.
func (s *AssetService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	asset, err := s.repo.GetAssetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}

// FetchAsset serves the live content of an asset. Non-public assets require
// a valid token scoped to the asset.
func (s *AssetService) FetchAsset(ctx context.Context, id string, req FetchRequest) (*Content, error) {
	asset, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if !asset.IsPublic {
		if err := s.tokens.Authorize(ctx, req.Token, asset.ID); err != nil {
			return nil, err
		}
	}
	content := contentFromAsset(asset, s.policy.DirectiveFor(asset.IsPublic, false))
	return s.load(ctx, content, asset.ObjectKey, req)
}

// FetchVersion serves a published version. The directive is always the
// immutable one, whatever the asset's visibility.
func (s *AssetService) FetchVersion(ctx context.Context, versionID string, req FetchRequest) (*Content, error) {
	version, err := s.repo.GetVersionByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version == nil || version.Asset == nil {
		return nil, ErrVersionNotFound
	}
	content := contentFromAsset(version.Asset, caching.ImmutableDirective())
	content.ETag = version.ETag
	content.LastModified = version.CreatedAt
	content.VersionNumber = version.VersionNumber
	return s.load(ctx, content, version.ObjectKey, req)
}

// FetchPrivate serves the asset a token is scoped to with the private
// directive.
func (s *AssetService) FetchPrivate(ctx context.Context, token string, req FetchRequest) (*Content, error) {
	asset, err := s.tokens.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}
	content := contentFromAsset(asset, caching.PrivateDirective())
	return s.load(ctx, content, asset.ObjectKey, req)
}

// load evaluates the conditional request before reading storage so that a
// validator hit or a probe never reaches the object store.
func (s *AssetService) load(ctx context.Context, content *Content, key string, req FetchRequest) (*Content, error) {
	if caching.ShouldReturnNotModified(req.IfNoneMatch, content.ETag) {
		content.NotModified = true
		return content, nil
	}
	if req.Probe {
		return content, nil
	}
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorage, key, err)
	}
	content.Body = data
	content.Size = int64(len(data))
	return content, nil
}

// Publish snapshots the asset's current content as an immutable version and
// bumps the asset's version counter. Concurrent publishes of the same asset
// are serialised by the directory; a lost race is retried a few times
// before ErrVersionConflict is returned.
func (s *AssetService) Publish(ctx context.Context, assetID string) (*models.AssetVersion, error) {
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		version, err := s.publishOnce(ctx, assetID)
		if errors.Is(err, repositories.ErrVersionConflict) {
			s.logger.WithFields(logging.AssetFields("publish", assetID)).
				WithField("attempt", attempt).
				Warn("version counter moved, retrying publish")
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.WithFields(logging.AssetFields("publish", assetID)).
			WithFields(logrus.Fields{"version_id": version.ID, "version_number": version.VersionNumber}).
			Info("asset published")
		s.purge(ctx, assetID, util.PublicVersionURL(s.baseURL, version.ID))
		return version, nil
	}
	return nil, ErrVersionConflict
}

func (s *AssetService) publishOnce(ctx context.Context, assetID string) (*models.AssetVersion, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	data, err := s.store.Get(ctx, asset.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrStorage, asset.ObjectKey, err)
	}

	// Derived from the pre-increment version so a repeated attempt for the
	// same number overwrites the same object.
	key := fmt.Sprintf("versions/%s/v%d/%s", asset.ID, asset.Version, asset.Filename)
	if err := s.store.Put(ctx, key, data, asset.MimeType); err != nil {
		return nil, fmt.Errorf("%w: put %s: %v", ErrStorage, key, err)
	}

	version := &models.AssetVersion{
		ID:        uuid.NewString(),
		AssetID:   asset.ID,
		ObjectKey: key,
		ETag:      asset.ETag,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.PublishVersion(ctx, asset.Version, version); err != nil {
		return nil, err
	}
	return version, nil
}

// ListVersions returns the published versions of an asset, oldest first.
func (s *AssetService) ListVersions(ctx context.Context, assetID string) ([]models.AssetVersion, error) {
	if _, err := s.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, assetID)
}

// DeleteAsset removes the asset with its versions and tokens, then cleans up
// the stored objects and edge caches. Cleanup failures are logged only.
func (s *AssetService) DeleteAsset(ctx context.Context, id string) error {
	asset, versions, err := s.repo.DeleteAsset(ctx, id)
	if err != nil {
		return err
	}
	if asset == nil {
		return ErrAssetNotFound
	}

	keys := make([]string, 0, len(versions)+1)
	urls := make([]string, 0, len(versions)+1)
	keys = append(keys, asset.ObjectKey)
	urls = append(urls, util.AssetDownloadURL(s.baseURL, asset.ID))
	for _, v := range versions {
		keys = append(keys, v.ObjectKey)
		urls = append(urls, util.PublicVersionURL(s.baseURL, v.ID))
	}

	cleanupCtx := context.WithoutCancel(ctx)
	s.removeObjects(cleanupCtx, asset.ID, keys)
	s.purge(cleanupCtx, asset.ID, urls...)

	s.logger.WithFields(logging.AssetFields("delete", asset.ID)).
		WithField("versions", len(versions)).
		Info("asset deleted")
	return nil
}

// removeObjects deletes keys with bounded parallelism. A failing key does
// not stop the others.
func (s *AssetService) removeObjects(ctx context.Context, assetID string, keys []string) {
	sem := semaphore.NewWeighted(maxConcurrentDeletes)
	g, ctx := errgroup.WithContext(ctx)

	for _, key := range keys {
		key := key
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.WithFields(logging.AssetFields("remove_object", assetID)).
					WithField("object_key", key).
					WithError(err).
					Warn("stored object not removed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// purge asks the edge to drop urls. It runs detached from the request's
// cancellation but bounded by the purge timeout, and only logs failures.
func (s *AssetService) purge(ctx context.Context, assetID string, urls ...string) {
	purgeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.purgeTO)
	defer cancel()

	if err := s.purger.Purge(purgeCtx, urls); err != nil {
		s.logger.WithFields(logging.AssetFields("purge", assetID)).
			WithField("urls", urls).
			WithError(err).
			Warn("edge purge failed")
	}
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	name = path.Base(name)
	switch name {
	case "", ".", "/", "..":
		return defaultFilename
	}
	return name
}
