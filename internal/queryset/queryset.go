// Package queryset implements the lazily evaluated, cloneable query descriptor
// used to read and write the entities of one model through the bulk connector.
package queryset

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/fields"
	"github.com/FloThinksPi-Forks/vstutils/internal/model"
	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound marks errors caused by a 404 status.
var ErrNotFound = errors.New("not found")

// negation is the suffix the API uses for excluding filters.
const negation = "__not"

// Querier enqueues logical requests, it is implemented by *bulk.Connector.
type Querier interface {
	Enqueue(req bulk.Request) *bulk.Future
}

// Config configures a QuerySet.
type Config struct {
	Logger  logger.Logger
	Querier Querier
	Model   *model.Model

	// Path is the concrete resource path, e.g. /project/1/task/.
	Path string

	// View is the path template the model fields were prepared for, it defaults to Path.
	View string

	// Params are the route parameters used to fill {param} placeholders in lookups.
	Params map[string]string
}

// List is the result of Items.
type List struct {
	Instances []*Instance
	Total     int
}

type prefetchSpec struct {
	all   bool
	names []string
}

func (p prefetchSpec) enabled() bool {
	return p.all || len(p.names) > 0
}

type result struct {
	instance *Instance
	list     *List
}

// QuerySet describes a pending or executed query of one model at one path.
// Every Filter, Exclude and Prefetch call returns a clone; the receiver is never changed.
type QuerySet struct {
	logger   logger.Logger
	querier  Querier
	model    *model.Model
	path     string
	view     string
	params   map[string]string
	filters  map[string]any
	prefetch prefetchSpec

	cache *result
	mutex sync.Mutex
	group *singleflight.Group
}

// New returns a QuerySet without filters.
func New(config Config) *QuerySet {
	view := config.View
	if view == "" {
		view = config.Path
	}
	return &QuerySet{
		logger:  config.Logger.WithPrefix("[queryset]"),
		querier: config.Querier,
		model:   config.Model,
		path:    util.JoinPath(config.Path),
		view:    util.JoinPath(view),
		params:  copyParams(config.Params),
		filters: map[string]any{},
		group:   &singleflight.Group{},
	}
}

func (qs *QuerySet) String() string {
	return fmt.Sprintf("QuerySet[model=%s,path=%s,query=%s]", qs.model.Name, qs.path, qs.QueryString())
}

// Model returns the model of the QuerySet.
func (qs *QuerySet) Model() *model.Model {
	return qs.model
}

// Path returns the resource path.
func (qs *QuerySet) Path() string {
	return qs.path
}

// View returns the path template the QuerySet resolves references with.
func (qs *QuerySet) View() string {
	return qs.view
}

// Filters returns a copy of the current filters.
func (qs *QuerySet) Filters() map[string]any {
	res := make(map[string]any, len(qs.filters))
	for k, v := range qs.filters {
		res[k] = v
	}
	return res
}

// Overrides replaces parts of a QuerySet while cloning. Zero values keep the
// original.
type Overrides struct {
	Path    string
	View    string
	Params  map[string]string
	Filters map[string]any
}

// Clone returns an independent copy of the QuerySet with overrides applied. The
// cached result is only carried over when preserveCache is set.
func (qs *QuerySet) Clone(overrides Overrides, preserveCache bool) *QuerySet {
	clone := &QuerySet{
		logger:   qs.logger,
		querier:  qs.querier,
		model:    qs.model,
		path:     qs.path,
		view:     qs.view,
		params:   copyParams(qs.params),
		filters:  qs.Filters(),
		prefetch: prefetchSpec{all: qs.prefetch.all, names: append([]string(nil), qs.prefetch.names...)},
		group:    &singleflight.Group{},
	}
	if overrides.Path != "" {
		clone.path = util.JoinPath(overrides.Path)
	}
	if overrides.View != "" {
		clone.view = util.JoinPath(overrides.View)
	}
	if overrides.Params != nil {
		clone.params = copyParams(overrides.Params)
	}
	if overrides.Filters != nil {
		clone.filters = make(map[string]any, len(overrides.Filters))
		for k, v := range overrides.Filters {
			clone.filters[k] = v
		}
	}
	if preserveCache {
		qs.mutex.Lock()
		clone.cache = qs.cache
		qs.mutex.Unlock()
	}
	return clone
}

// Copy is Clone with the cached result preserved.
func (qs *QuerySet) Copy(overrides Overrides) *QuerySet {
	return qs.Clone(overrides, true)
}

// All returns a clone with the same filters and no cached result.
func (qs *QuerySet) All() *QuerySet {
	return qs.Clone(Overrides{}, false)
}

// Filter returns a clone with filters merged into the current ones.
func (qs *QuerySet) Filter(filters map[string]any) *QuerySet {
	merged := qs.Filters()
	for k, v := range filters {
		merged[k] = v
	}
	return qs.Clone(Overrides{Filters: merged}, false)
}

// Exclude returns a clone with negated filters merged into the current ones.
func (qs *QuerySet) Exclude(filters map[string]any) *QuerySet {
	merged := qs.Filters()
	for k, v := range filters {
		if !strings.Contains(k, negation) {
			k += negation
		}
		merged[k] = v
	}
	return qs.Clone(Overrides{Filters: merged}, false)
}

// Prefetch returns a clone which resolves references after loading. With all
// set every prefetch capable field is resolved, otherwise only the named ones.
// Prefetch(false) disables prefetching.
func (qs *QuerySet) Prefetch(all bool, names ...string) *QuerySet {
	clone := qs.Clone(Overrides{}, false)
	clone.prefetch = prefetchSpec{all: all, names: append([]string(nil), names...)}
	return clone
}

// ClearCache drops the cached result.
func (qs *QuerySet) ClearCache() {
	qs.mutex.Lock()
	qs.cache = nil
	qs.mutex.Unlock()
}

// Cached reports if a result is cached.
func (qs *QuerySet) Cached() bool {
	qs.mutex.Lock()
	defer qs.mutex.Unlock()
	return qs.cache != nil
}

// DataType returns the path segments sent to the bulk endpoint.
func (qs *QuerySet) DataType() []string {
	return util.SplitPath(qs.path)
}

// QueryString serializes the filters as key=value pairs sorted by key. List
// values are joined with commas.
func (qs *QuerySet) QueryString() string {
	return queryString(qs.filters)
}

func queryString(filters map[string]any) string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+queryValue(filters[k]))
	}
	return strings.Join(pairs, "&")
}

func queryValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ",")
	}
	return fields.Stringify(v)
}

// FormRequest builds the bulk request for method with the current path and filters.
func (qs *QuerySet) FormRequest(method string, data any) bulk.Request {
	return bulk.Request{
		Method: method,
		Path:   qs.DataType(),
		Query:  qs.QueryString(),
		Data:   data,
	}
}

func (qs *QuerySet) send(ctx context.Context, req bulk.Request) (*bulk.Response, error) {
	resp, err := qs.querier.Enqueue(req).Wait(ctx)
	if err != nil {
		if bulk.StatusOf(err) == http.StatusNotFound {
			return nil, errors.Mark(err, ErrNotFound)
		}
		return nil, err
	}
	return resp, nil
}

func (qs *QuerySet) cached() *result {
	qs.mutex.Lock()
	defer qs.mutex.Unlock()
	return qs.cache
}

func (qs *QuerySet) setCache(r *result) {
	qs.mutex.Lock()
	qs.cache = r
	qs.mutex.Unlock()
}

// Get loads one entity from the path, resolves its references when prefetch is
// enabled and caches it.
func (qs *QuerySet) Get(ctx context.Context) (*Instance, error) {
	if r := qs.cached(); r != nil && r.instance != nil {
		return r.instance, nil
	}
	val, err, _ := qs.group.Do("get", func() (any, error) {
		if r := qs.cached(); r != nil && r.instance != nil {
			return r.instance, nil
		}
		resp, err := qs.send(ctx, qs.FormRequest(http.MethodGet, nil))
		if err != nil {
			return nil, err
		}
		var data map[string]any
		if err := resp.Decode(&data); err != nil {
			return nil, err
		}
		instance := newInstance(data, qs.model, qs)
		if qs.prefetch.enabled() {
			qs.resolvePrefetch(ctx, []*Instance{instance})
		}
		qs.setCache(&result{instance: instance})
		return instance, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*Instance), nil
}

type listPage struct {
	Count   int              `json:"count"`
	Results []map[string]any `json:"results"`
}

// Items loads the list at the path, resolves references across the whole page
// when prefetch is enabled and caches it. Concurrent calls share one request.
func (qs *QuerySet) Items(ctx context.Context) (*List, error) {
	if r := qs.cached(); r != nil && r.list != nil {
		return r.list, nil
	}
	val, err, _ := qs.group.Do("items", func() (any, error) {
		if r := qs.cached(); r != nil && r.list != nil {
			return r.list, nil
		}
		resp, err := qs.send(ctx, qs.FormRequest(http.MethodGet, nil))
		if err != nil {
			return nil, err
		}
		var page listPage
		if err := resp.Decode(&page); err != nil {
			return nil, err
		}
		list := &List{Total: page.Count, Instances: make([]*Instance, 0, len(page.Results))}
		for _, row := range page.Results {
			list.Instances = append(list.Instances, newInstance(row, qs.model, qs.pageOf(row)))
		}
		if qs.prefetch.enabled() {
			qs.resolvePrefetch(ctx, list.Instances)
		}
		qs.logger.Trace("loaded %d of %d from %s", len(list.Instances), list.Total, qs.path)
		qs.setCache(&result{list: list})
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*List), nil
}

// pageOf returns the QuerySet addressing the single entity of row.
func (qs *QuerySet) pageOf(row map[string]any) *QuerySet {
	pk := qs.model.PKValue(row)
	if pk == nil {
		return qs.Clone(Overrides{}, false)
	}
	page := qs.Clone(Overrides{Path: util.JoinPath(qs.path, fields.Stringify(pk))}, false)
	page.filters = map[string]any{}
	return page
}

// Create posts data to the path and returns the created entity. The result is never cached.
func (qs *QuerySet) Create(ctx context.Context, data map[string]any) (*Instance, error) {
	resp, err := qs.send(ctx, qs.FormRequest(http.MethodPost, data))
	if err != nil {
		return nil, err
	}
	var created map[string]any
	if err := resp.Decode(&created); err != nil {
		return nil, err
	}
	return newInstance(created, qs.model, qs.pageOf(created)), nil
}

// Delete loads the items and deletes each of them. All deletes are issued
// before any is awaited and one failure does not stop the others.
func (qs *QuerySet) Delete(ctx context.Context) error {
	list, err := qs.Items(ctx)
	if err != nil {
		return err
	}
	futures := make([]*bulk.Future, len(list.Instances))
	for i, instance := range list.Instances {
		futures[i] = qs.querier.Enqueue(instance.qs.FormRequest(http.MethodDelete, nil))
	}
	var errs []error
	for i, future := range futures {
		if _, err := future.Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error deleting %v: %w", list.Instances[i].PK(), err))
		}
	}
	qs.ClearCache()
	return errors.Join(errs...)
}

func copyParams(params map[string]string) map[string]string {
	res := make(map[string]string, len(params))
	for k, v := range params {
		res[k] = v
	}
	return res
}
