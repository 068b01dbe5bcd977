package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Darshan-chovatiya/nexus-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

var ErrAccountNotFound = errors.New("account not found")

// DirectoryService is the read-only slice of the external identity directory
// this service consumes: resolving an opaque account id to display attributes,
// and browsing the accounts a viewer can book with.
type DirectoryService interface {
	Resolve(ctx context.Context, accountID string) (*models.AccountProfile, error)
	ListOthers(ctx context.Context, viewerID string, page int, limit int) ([]models.AccountProfile, int, error)
}

type HTTPDirectoryService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPDirectoryService(baseURL, apiKey string) *HTTPDirectoryService {
	return &HTTPDirectoryService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
	}
}

func (s *HTTPDirectoryService) Resolve(
	ctx context.Context,
	accountID string,
) (*models.AccountProfile, error) {
	requestURL := fmt.Sprintf("%s/accounts/%s", s.baseURL, url.PathEscape(accountID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build resolve request: %w", err)
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve account: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrAccountNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("resolve account: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var profile models.AccountProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode resolve response: %w", err)
	}
	if profile.ID == "" {
		profile.ID = accountID
	}
	return &profile, nil
}

func (s *HTTPDirectoryService) ListOthers(
	ctx context.Context,
	viewerID string,
	page int,
	limit int,
) ([]models.AccountProfile, int, error) {
	requestURL := fmt.Sprintf(
		"%s/accounts?exclude=%s&page=%d&limit=%d",
		s.baseURL,
		url.QueryEscape(viewerID),
		page,
		limit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build list request: %w", err)
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, 0, fmt.Errorf("list accounts: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Accounts []models.AccountProfile `json:"accounts"`
		Total    int                     `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, 0, fmt.Errorf("decode list response: %w", err)
	}
	return response.Accounts, response.Total, nil
}

func (s *HTTPDirectoryService) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}
}

// CachedDirectoryService caches resolved profiles in Redis. Cache failures
// fall through to the directory; misses for unknown accounts are not cached.
type CachedDirectoryService struct {
	inner DirectoryService
	cache *redis.Client
	ttl   time.Duration
}

func NewCachedDirectoryService(
	inner DirectoryService,
	cache *redis.Client,
	ttl time.Duration,
) *CachedDirectoryService {
	return &CachedDirectoryService{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (s *CachedDirectoryService) Resolve(
	ctx context.Context,
	accountID string,
) (*models.AccountProfile, error) {
	key := directoryCacheKey(accountID)

	cached, err := s.cache.Get(ctx, key).Result()
	if err == nil {
		var profile models.AccountProfile
		if err := json.Unmarshal([]byte(cached), &profile); err == nil {
			return &profile, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("directory cache get %s: %v", accountID, err)
	}

	profile, err := s.inner.Resolve(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(profile); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.ttl).Err(); err != nil {
			log.Printf("directory cache set %s: %v", accountID, err)
		}
	}
	return profile, nil
}

func (s *CachedDirectoryService) ListOthers(
	ctx context.Context,
	viewerID string,
	page int,
	limit int,
) ([]models.AccountProfile, int, error) {
	return s.inner.ListOthers(ctx, viewerID, page, limit)
}

func directoryCacheKey(accountID string) string {
	return "directory:account:" + accountID
}
