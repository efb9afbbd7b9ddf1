// Package app ties the schema, the models, the views and the API client into a
// session which field resolution and query sets run against.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/FloThinksPi-Forks/vstutils/internal/api"
	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/fields"
	"github.com/FloThinksPi-Forks/vstutils/internal/model"
	"github.com/FloThinksPi-Forks/vstutils/internal/queryset"
	"github.com/FloThinksPi-Forks/vstutils/internal/schema"
	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DefaultLanguage is used when neither the config nor the schema name one.
const DefaultLanguage = "en"

// ErrNotStarted is returned by operations which need a started session.
var ErrNotStarted = errors.New("session is not started")

var tracer = otel.Tracer("github.com/FloThinksPi-Forks/vstutils/internal/app")

// Config configures a Session.
type Config struct {
	Logger    logger.Logger
	API       *api.Client
	Connector *bulk.Connector
	Registry  *fields.Registry

	// Language overrides the language of the schema settings.
	Language string

	// UserID overrides the user of the schema.
	UserID string
}

// Session is a loaded API: its models, its views and the session resources.
type Session struct {
	logger    logger.Logger
	api       *api.Client
	connector *bulk.Connector
	registry  *fields.Registry
	language  string
	userID    string

	document     *schema.Document
	models       *model.Datamodel
	views        *schema.Views
	languages    []api.Language
	translations map[string]string
	user         map[string]any
	started      bool
	mutex        sync.RWMutex
}

var _ fields.ResolveContext = (*Session)(nil)

// New returns a session which must be started before use.
func New(config Config) *Session {
	reg := config.Registry
	if reg == nil {
		reg = fields.NewRegistry()
	}
	return &Session{
		logger:    config.Logger.WithPrefix("[app]"),
		api:       config.API,
		connector: config.Connector,
		registry:  reg,
		language:  config.Language,
		userID:    config.UserID,
	}
}

// Start loads the schema, builds the models and views, loads the session
// resources and prepares every field for the views it is shown in.
func (s *Session) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "app.start")
	defer span.End()

	raw, err := s.api.GetSchema(ctx)
	if err != nil {
		return fmt.Errorf("error loading schema: %w", err)
	}
	doc, err := schema.Parse(raw)
	if err != nil {
		return err
	}
	s.registry.SetLocation(doc.Info.Settings.Location())
	s.api.SetVersion(doc.Info.Version)
	models := doc.Models(s.registry)
	views := doc.BuildViews()
	span.SetAttributes(
		attribute.String("app.version", doc.Info.Version),
		attribute.Int("app.models", len(models.Models)),
		attribute.Int("app.views", len(views.All())),
	)

	language := s.language
	if language == "" {
		language = doc.Info.Settings.Language
	}
	if language == "" {
		language = DefaultLanguage
	}
	userID := s.userID
	if userID == "" {
		userID = doc.Info.UserID.String()
	}

	s.mutex.Lock()
	s.document = doc
	s.models = models
	s.views = views
	s.language = language
	s.userID = userID
	s.mutex.Unlock()

	var languages []api.Language
	var translations map[string]string
	var user map[string]any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		languages, err = s.api.GetLanguages(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		translations, err = s.api.GetTranslations(gctx, language)
		return err
	})
	if userID != "" {
		g.Go(func() error {
			var err error
			user, err = s.api.LoadUser(gctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.prepare(ctx)

	s.mutex.Lock()
	s.languages = languages
	s.translations = translations
	s.user = user
	s.started = true
	s.mutex.Unlock()
	s.logger.Info("loaded %d models and %d views of version %s", len(models.Models), len(views.All()), doc.Info.Version)
	return nil
}

// prepare runs Prepare on the fields of every view model with the view path.
func (s *Session) prepare(ctx context.Context) {
	_, span := tracer.Start(ctx, "app.prepare")
	defer span.End()
	var count int
	for _, view := range s.views.All() {
		m := s.models.GetModel(view.Model)
		if m == nil {
			continue
		}
		for _, f := range m.Fields() {
			p, ok := f.(fields.Preparer)
			if !ok {
				continue
			}
			if prepared := p.Prepare(s, view.Path()); prepared != f {
				m.SetField(prepared)
			}
			count++
		}
	}
	s.logger.Debug("prepared %d fields", count)
}

// Registry returns the field registry.
func (s *Session) Registry() *fields.Registry {
	return s.registry
}

// FindLookup returns the list view of model closest to path.
func (s *Session) FindLookup(path string, model string) (fields.Lookup, bool) {
	view, ok := s.views.FindList(path, model)
	if !ok {
		return nil, false
	}
	return view, true
}

// LookupByPath returns the list view registered under path.
func (s *Session) LookupByPath(path string) (fields.Lookup, bool) {
	view, ok := s.views.List(path)
	if !ok {
		return nil, false
	}
	return view, true
}

// TopLevelLookup returns the shortest list view of model.
func (s *Session) TopLevelLookup(model string) (fields.Lookup, bool) {
	view, ok := s.views.TopLevel(model)
	if !ok {
		return nil, false
	}
	return view, true
}

// ModelFields returns the fields of model.
func (s *Session) ModelFields(name string) ([]fields.Field, bool) {
	m := s.models.GetModel(name)
	if m == nil {
		return nil, false
	}
	return m.Fields(), true
}

// QuerySet returns a QuerySet for a concrete path such as /project/7/task/.
func (s *Session) QuerySet(path string) (*queryset.QuerySet, error) {
	s.mutex.RLock()
	started, views, models := s.started, s.views, s.models
	s.mutex.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}
	view, params, ok := views.Match(path)
	if !ok {
		return nil, fmt.Errorf("no view for path %s", path)
	}
	m := models.GetModel(view.Model)
	if m == nil {
		return nil, fmt.Errorf("view %s has no model", view.Path())
	}
	return queryset.New(queryset.Config{
		Logger:  s.logger,
		Querier: s.connector,
		Model:   m,
		Path:    path,
		View:    view.Path(),
		Params:  params,
	}), nil
}

// Document returns the loaded schema document.
func (s *Session) Document() *schema.Document {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.document
}

// Models returns the models built from the schema.
func (s *Session) Models() *model.Datamodel {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.models
}

// Views returns the view index.
func (s *Session) Views() *schema.Views {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.views
}

// Language returns the session language.
func (s *Session) Language() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.language
}

// Languages returns the languages of the API.
func (s *Session) Languages() []api.Language {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.languages
}

// User returns the session user, nil when the schema names none.
func (s *Session) User() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.user
}

// Translate returns the translation of key in the session language, key itself when missing.
func (s *Session) Translate(key string) string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if v, ok := s.translations[key]; ok && v != "" {
		return v
	}
	return key
}

// API returns the client the session loads its resources with.
func (s *Session) API() *api.Client {
	return s.api
}
