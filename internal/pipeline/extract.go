package pipeline

import (
	"context"
	"fmt"

	"github.com/standardbeagle/codemill/internal/adapter"
	"github.com/standardbeagle/codemill/internal/astcache"
	"github.com/standardbeagle/codemill/internal/chunker"
	"github.com/standardbeagle/codemill/internal/debug"
	"github.com/standardbeagle/codemill/internal/types"
)

// queryOutput is the cached unit per (path, query name).
type queryOutput struct {
	entities      []types.Entity
	relationships []types.Relationship
}

// extract runs every catalog query for the language through the adapter
// and merges the streams: dedup by ID, source order, entities and
// relationships in separate buffers. One failing query skips that query
// only; one failing match skips that match only.
func (p *Pipeline) extract(ctx context.Context, src *chunker.Source, entry *astcache.Entry, digest string) ([]types.Entity, []types.Relationship, []types.Diagnostic) {
	var diags []types.Diagnostic

	langAdapter, ok := p.adapters.Get(src.Language)
	if !ok {
		return nil, nil, []types.Diagnostic{diag(types.SeverityInfo, types.StageNormalize,
			fmt.Sprintf("no adapter for language %s", src.Language))}
	}

	actx := &adapter.Context{
		Path:     src.Path,
		Content:  src.Content,
		Language: src.Language,
		Digest:   digest,
	}

	var entities []types.Entity
	var relationships []types.Relationship
	seenEntities := make(map[string]bool)
	seenRelationships := make(map[string]bool)
	adapterMisses := 0

	for _, queryName := range p.registry.QueryNames(src.Language) {
		if err := ctx.Err(); err != nil {
			diags = append(diags, diag(types.SeverityError, types.StageNormalize, "timeout during normalization"))
			break
		}

		out, qdiags := p.runQuery(src, entry, langAdapter, actx, queryName, &adapterMisses)
		diags = append(diags, qdiags...)
		if out == nil {
			continue
		}
		for _, e := range out.entities {
			if seenEntities[e.ID] {
				continue
			}
			seenEntities[e.ID] = true
			entities = append(entities, e)
		}
		for _, r := range out.relationships {
			if seenRelationships[r.ID] {
				continue
			}
			seenRelationships[r.ID] = true
			relationships = append(relationships, r)
		}
	}

	if adapterMisses > 0 {
		diags = append(diags, diag(types.SeverityWarn, types.StageNormalize,
			fmt.Sprintf("%d matches skipped during normalization", adapterMisses)))
	}

	sortEntities(entities)
	sortRelationships(relationships)
	return entities, relationships, diags
}

// runQuery executes one named query and adapts its matches, consulting
// the per-entry result cache first.
func (p *Pipeline) runQuery(src *chunker.Source, entry *astcache.Entry, langAdapter adapter.Adapter, actx *adapter.Context, queryName string, adapterMisses *int) (*queryOutput, []types.Diagnostic) {
	if entry != nil {
		if cached, ok := entry.QueryResult(src.Path, queryName); ok {
			if out, isOut := cached.(*queryOutput); isOut {
				return out, nil
			}
		}
	}

	query, err := p.registry.Query(src.Language, queryName)
	if err != nil {
		// Compile failures are permanent for this (language, query); a
		// missing catalog entry is not even worth a diagnostic.
		debug.LogParse("query %s unavailable for %s: %v", queryName, src.Language, err)
		return nil, nil
	}

	matches, err := p.engine.Execute(query, queryName, src.Tree.RootNode(), src.Content)
	if err != nil {
		return nil, []types.Diagnostic{diag(types.SeverityWarn, types.StageNormalize,
			fmt.Sprintf("query %s failed: %v", queryName, err))}
	}

	out := &queryOutput{}
	for i := range matches {
		ents, rels, err := langAdapter.Normalize(queryName, &matches[i], actx)
		if err != nil {
			*adapterMisses++
			continue
		}
		out.entities = append(out.entities, ents...)
		out.relationships = append(out.relationships, rels...)
	}
	if entry != nil {
		entry.StoreQueryResult(src.Path, queryName, out)
	}
	return out, nil
}
