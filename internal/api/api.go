// Package api loads the slow changing resources of the API, the schema, the
// languages and their translations, reading the cache before the network.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/cache"
	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/shopmonkeyus/go-common/logger"
)

// DefaultSchemaPath is where the API serves its schema document.
const DefaultSchemaPath = "/api/openapi/"

// Language is one language the API has translations for.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Config configures a Client.
type Config struct {
	Logger     logger.Logger
	URL        string
	SchemaPath string
	Token      string
	Client     *http.Client
	Connector  *bulk.Connector
	Store      cache.Store

	// Version is the expected application version, it keys the cached schema.
	Version string
}

// Client reads cache first resources of one API.
type Client struct {
	logger    logger.Logger
	url       string
	schemaURL string
	token     string
	client    *http.Client
	connector *bulk.Connector
	store     cache.Store
	version   string

	namespace string
	mutex     sync.RWMutex
}

// New returns a client. Until SetVersion is called resources are cached under
// the configured version.
func New(config Config) *Client {
	client := config.Client
	if client == nil {
		client = http.DefaultClient
	}
	schemaPath := config.SchemaPath
	if schemaPath == "" {
		schemaPath = DefaultSchemaPath
	}
	url := strings.TrimRight(config.URL, "/")
	return &Client{
		logger:    config.Logger.WithPrefix("[api]"),
		url:       url,
		schemaURL: url + util.JoinPath(schemaPath) + "?format=openapi",
		token:     config.Token,
		client:    client,
		connector: config.Connector,
		store:     config.Store,
		version:   config.Version,
		namespace: cache.Namespace(config.Version, url),
	}
}

// URL returns the API url.
func (c *Client) URL() string {
	return c.url
}

// SetVersion switches the cache namespace to the API version reported by the schema.
func (c *Client) SetVersion(version string) {
	c.mutex.Lock()
	c.namespace = cache.Namespace(version, c.url)
	c.mutex.Unlock()
}

func (c *Client) key(name string) string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.namespace + name
}

// GetSchema returns the raw schema document.
func (c *Client) GetSchema(ctx context.Context) (json.RawMessage, error) {
	key := cache.Namespace(c.version, c.url) + "openapi"
	return cache.Fetch(ctx, c.store, key, c.loadSchema)
}

func (c *Client) loadSchema(ctx context.Context) (json.RawMessage, error) {
	c.logger.Debug("loading schema from %s", c.schemaURL)
	req, err := util.NewRequest(ctx, http.MethodGet, c.schemaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating schema request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := util.NewHTTPRetry(req, util.WithClient(c.client), util.WithLogger(c.logger)).Do()
	if err != nil {
		return nil, fmt.Errorf("error fetching schema: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading schema: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("schema request failed with status %d", resp.StatusCode)
	}
	return json.RawMessage(body), nil
}

// GetLanguages returns the languages of the API.
func (c *Client) GetLanguages(ctx context.Context) ([]Language, error) {
	return cache.Fetch(ctx, c.store, c.key("languages"), func(ctx context.Context) ([]Language, error) {
		res, err := bulk.Do[struct {
			Results []Language `json:"results"`
		}](ctx, c.connector, bulk.Get([]string{"_lang"}, ""))
		if err != nil {
			return nil, fmt.Errorf("error loading languages: %w", err)
		}
		return res.Results, nil
	})
}

// GetTranslations returns the translation table of lang.
func (c *Client) GetTranslations(ctx context.Context, lang string) (map[string]string, error) {
	return cache.Fetch(ctx, c.store, c.key("translations."+lang), func(ctx context.Context) (map[string]string, error) {
		res, err := bulk.Do[struct {
			Translations map[string]string `json:"translations"`
		}](ctx, c.connector, bulk.Get([]string{"_lang", lang}, ""))
		if err != nil {
			return nil, fmt.Errorf("error loading translations for %s: %w", lang, err)
		}
		return res.Translations, nil
	})
}

// LoadUser returns the user with id. Users are never cached.
func (c *Client) LoadUser(ctx context.Context, id string) (map[string]any, error) {
	user, err := bulk.Do[map[string]any](ctx, c.connector, bulk.Get([]string{"user", id}, ""))
	if err != nil {
		return nil, fmt.Errorf("error loading user %s: %w", id, err)
	}
	return user, nil
}
