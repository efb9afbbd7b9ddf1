package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FloThinksPi-Forks/vstutils/internal/api"
	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/cache"
	"github.com/FloThinksPi-Forks/vstutils/internal/fields"
	"github.com/FloThinksPi-Forks/vstutils/internal/schema"
	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	schema []byte
	mutex  sync.Mutex
	paths  []string
}

func (a *testAPI) Paths() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return append([]string(nil), a.paths...)
}

func (a *testAPI) handle(req bulk.Request) (int, any) {
	path := strings.Join(req.Path, "/")
	a.mutex.Lock()
	a.paths = append(a.paths, path)
	a.mutex.Unlock()
	switch path {
	case "_lang":
		return 200, map[string]any{"results": []api.Language{{Code: "en", Name: "English"}}}
	case "_lang/en":
		return 200, map[string]any{"translations": map[string]string{"name": "Name"}}
	case "_lang/ru":
		return 200, map[string]any{"translations": map[string]string{"name": "Имя"}}
	case "user/1":
		return 200, map[string]any{"id": 1, "username": "admin"}
	case "project/7/task":
		return 200, map[string]any{"count": 2, "results": []map[string]any{
			{"id": 1, "name": "a", "kind": "active", "status": "true", "assignee": 3},
			{"id": 2, "name": "b", "kind": "note", "status": "hello", "assignee": 4},
		}}
	case "project/7/member":
		return 200, map[string]any{"count": 2, "results": []map[string]any{
			{"id": 3, "username": "carol"},
			{"id": 4, "username": "dave"},
		}}
	}
	return 404, map[string]any{"detail": "Not found."}
}

func newTestSession(t *testing.T, doc []byte, config Config) (*Session, *testAPI) {
	t.Helper()
	ta := &testAPI{schema: doc}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/openapi/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(ta.schema)
	})
	mux.HandleFunc("/api/endpoint/", func(w http.ResponseWriter, r *http.Request) {
		var reqs []bulk.Request
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqs)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		res := make([]map[string]any, len(reqs))
		for i, req := range reqs {
			status, data := ta.handle(req)
			res[i] = map[string]any{"status": status, "data": data}
		}
		json.NewEncoder(w).Encode(res)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	connector := bulk.NewConnector(bulk.ConnectorConfig{
		Logger:    logger.NewTestLogger(),
		Transport: bulk.NewHTTPTransport(bulk.HTTPTransportConfig{URL: server.URL}),
		Window:    10 * time.Millisecond,
	})
	t.Cleanup(func() { connector.Close() })
	store := cache.NewMemoryStore(context.Background(), 0, 0)
	t.Cleanup(func() { store.Close() })

	config.Logger = logger.NewTestLogger()
	config.Connector = connector
	config.API = api.New(api.Config{
		Logger:    logger.NewTestLogger(),
		URL:       server.URL,
		Connector: connector,
		Store:     store,
	})
	return New(config), ta
}

func readTestDocument(t *testing.T) []byte {
	buf, err := os.ReadFile("../schema/testdata/openapi.json")
	require.NoError(t, err)
	return buf
}

func TestStart(t *testing.T) {
	s, ta := newTestSession(t, readTestDocument(t), Config{})
	_, err := s.QuerySet("/task/")
	assert.ErrorIs(t, err, ErrNotStarted)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, "en", s.Language())
	assert.Equal(t, "Name", s.Translate("name"))
	assert.Equal(t, "missing", s.Translate("missing"))
	assert.Equal(t, "admin", s.User()["username"])
	assert.Len(t, s.Languages(), 1)
	assert.Equal(t, "v1", s.Document().Info.Version)
	assert.Equal(t, "Europe/Moscow", s.Registry().Location().String())
	assert.Len(t, s.Views().All(), 8)
	assert.ElementsMatch(t, []string{"_lang", "_lang/en", "user/1"}, ta.Paths())
}

func TestStartConfigOverrides(t *testing.T) {
	s, ta := newTestSession(t, readTestDocument(t), Config{Language: "ru", UserID: "2"})
	err := s.Start(context.Background())
	require.Error(t, err, "user 2 does not exist")
	assert.Equal(t, 404, bulk.StatusOf(err))
	assert.Contains(t, ta.Paths(), "_lang/ru")
}

func TestStartInvalidDocument(t *testing.T) {
	s, _ := newTestSession(t, []byte(`{"info": {}}`), Config{})
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrInvalidDocument))
}

func TestPreparedLookups(t *testing.T) {
	s, _ := newTestSession(t, readTestDocument(t), Config{})
	require.NoError(t, s.Start(context.Background()))

	task := s.Models().GetModel("Task")
	require.NotNil(t, task)
	assignee, ok := task.Field("assignee").(*fields.FK)
	require.True(t, ok)
	for path, want := range map[string]string{
		"/task/":                        "/user/",
		"/project/{id}/task/":           "/project/{id}/member/",
		"/project/{id}/task/{task_id}/": "/project/{id}/member/",
	} {
		lookups := assignee.Lookups(path)
		require.Len(t, lookups, 1, path)
		assert.Equal(t, want, lookups[0].Path(), path)
	}

	project := s.Models().GetModel("Project")
	owner := project.Field("owner").(*fields.FK)
	require.Len(t, owner.Lookups("/project/{id}/"), 1)
	assert.Equal(t, "/user/", owner.Lookups("/project/{id}/")[0].Path())

	lookup, ok := s.FindLookup("/task/", "Missing")
	assert.False(t, ok)
	assert.Nil(t, lookup)
	fl, ok := s.ModelFields("User")
	require.True(t, ok)
	assert.Len(t, fl, 3)
}

func TestQuerySetWithPrefetch(t *testing.T) {
	s, ta := newTestSession(t, readTestDocument(t), Config{})
	require.NoError(t, s.Start(context.Background()))

	qs, err := s.QuerySet("/project/7/task/")
	require.NoError(t, err)
	assert.Equal(t, "/project/{id}/task/", qs.View())
	list, err := qs.Prefetch(true).Items(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Instances, 2)
	assert.Equal(t, 2, list.Total)

	first := list.Instances[0].Represent()
	assert.Equal(t, "carol", first["assignee"])
	assert.Equal(t, true, first["status"], "active tasks have a boolean status")
	second := list.Instances[1].Represent()
	assert.Equal(t, "dave", second["assignee"])
	assert.Equal(t, "hello", second["status"])
	assert.Contains(t, ta.Paths(), "project/7/member")

	_, err = s.QuerySet("/unknown/")
	assert.Error(t, err)
}
