package queryset

import (
	"context"
	"net/http"

	"github.com/FloThinksPi-Forks/vstutils/internal/bulk"
	"github.com/FloThinksPi-Forks/vstutils/internal/fields"
	"github.com/FloThinksPi-Forks/vstutils/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("github.com/FloThinksPi-Forks/vstutils/internal/queryset")

// prefetchGroup is one lookup serving every instance which references the
// same target path through the same field.
type prefetchGroup struct {
	field        fields.Prefetcher
	path         []string
	ids          []any
	seen         map[string]bool
	contributors []*Instance

	rows []map[string]any
	ok   bool
}

func (g *prefetchGroup) add(id any, instance *Instance) {
	key := fields.Stringify(id)
	if !g.seen[key] {
		g.seen[key] = true
		g.ids = append(g.ids, id)
	}
	for _, c := range g.contributors {
		if c == instance {
			return
		}
	}
	g.contributors = append(g.contributors, instance)
}

func (g *prefetchGroup) request() bulk.Request {
	return bulk.Get(g.path, queryString(map[string]any{
		g.field.PrefetchFilterName(): g.ids,
		"limit":                      len(g.ids),
	}))
}

// prefetchFields returns the fields selected for prefetching.
func (qs *QuerySet) prefetchFields() []fields.Prefetcher {
	if qs.prefetch.all {
		return qs.model.PrefetchFields()
	}
	if len(qs.prefetch.names) == 0 {
		return nil
	}
	return qs.model.PrefetchFields(qs.prefetch.names...)
}

type groupKey struct {
	field string
	path  string
}

// groupPrefetch collects the lookups of instances grouped by field and target path.
func (qs *QuerySet) groupPrefetch(instances []*Instance, list []fields.Prefetcher) []*prefetchGroup {
	var groups []*prefetchGroup
	index := map[groupKey]*prefetchGroup{}
	for _, instance := range instances {
		for _, field := range list {
			if !field.PrefetchEligible(instance.Data) {
				continue
			}
			target, ok := field.PrefetchTarget(instance.Data, qs.view, qs.params)
			if !ok {
				continue
			}
			key := groupKey{field: field.Name(), path: util.JoinPath(target.Path...)}
			group := index[key]
			if group == nil {
				group = &prefetchGroup{field: field, path: target.Path, seen: map[string]bool{}}
				index[key] = group
				groups = append(groups, group)
			}
			group.add(target.ID, instance)
		}
	}
	return groups
}

// resolvePrefetch loads every group concurrently and merges the rows into the
// contributing instances. A failed group is logged and left unresolved.
func (qs *QuerySet) resolvePrefetch(ctx context.Context, instances []*Instance) {
	list := qs.prefetchFields()
	if len(list) == 0 || len(instances) == 0 {
		return
	}
	groups := qs.groupPrefetch(instances, list)
	if len(groups) == 0 {
		return
	}
	ctx, span := tracer.Start(ctx, "queryset.prefetch", trace.WithAttributes(
		attribute.String("queryset.path", qs.path),
		attribute.Int("queryset.instances", len(instances)),
		attribute.Int("queryset.groups", len(groups)),
	))
	defer span.End()

	var g errgroup.Group
	for _, group := range groups {
		g.Go(func() error {
			qs.loadGroup(ctx, group)
			return nil
		})
	}
	_ = g.Wait()

	// merged sequentially, instance data is not safe for concurrent writes
	for _, group := range groups {
		if !group.ok {
			continue
		}
		name := group.field.Name()
		for _, instance := range group.contributors {
			for _, row := range group.rows {
				if group.field.MatchesRow(instance.Data, row) {
					instance.Data[name] = group.field.PrefetchValue(instance.Data, row)
				}
			}
		}
	}
}

func (qs *QuerySet) loadGroup(ctx context.Context, group *prefetchGroup) {
	req := group.request()
	resp, err := qs.querier.Enqueue(req).Wait(ctx)
	if err != nil {
		qs.logger.Warn("prefetch of %s from %s failed: %s", group.field.Name(), req, err)
		return
	}
	if resp.Status != http.StatusOK {
		qs.logger.Debug("prefetch of %s from %s returned status %d, skipping", group.field.Name(), req, resp.Status)
		return
	}
	var page listPage
	if err := resp.Decode(&page); err != nil {
		qs.logger.Warn("prefetch of %s from %s failed: %s", group.field.Name(), req, err)
		return
	}
	group.rows = page.Results
	group.ok = true
}
