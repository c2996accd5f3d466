// Package search provides the relevance-ranked emission factor index.
//
// An Index is built once over a fixed slice of factors and is immutable
// afterwards, so every method is safe for concurrent use without locking.
// Replacing the catalog means building a new Index.
//
// Import Path: greenledger.io/greenledger/internal/search
package search

import (
	"context"
	"slices"
	"sort"
	"strings"

	"greenledger.io/greenledger/internal/domain"
	"greenledger.io/greenledger/internal/pkg/worker"
)

// Relevance weights. Changing them changes result ordering for every caller.
const (
	weightNameSubstring     = 1.0
	weightNameSimilarity    = 0.8
	weightTagsSubstring     = 0.5
	weightCategorySubstring = 0.3

	// scoreThreshold is exclusive: a factor scoring exactly 0.2 is dropped.
	scoreThreshold = 0.2
)

// DefaultParallelThreshold is the catalog size from which scoring is sharded
// when an executor is configured.
const DefaultParallelThreshold = 5000

// Executor runs tasks and waits for all of them.
// *worker.Pool implements it.
type Executor interface {
	Run(ctx context.Context, tasks ...worker.Task) error
	Cap() int
}

// Option configures an Index.
type Option func(*Index)

// WithExecutor shards scoring across exec once the index holds at least
// threshold factors. A threshold <= 0 selects DefaultParallelThreshold.
func WithExecutor(exec Executor, threshold int) Option {
	return func(ix *Index) {
		ix.exec = exec
		if threshold <= 0 {
			threshold = DefaultParallelThreshold
		}
		ix.parallelThreshold = threshold
	}
}

// entry caches the lowercased search fields of one factor.
type entry struct {
	factor   *domain.Factor
	nameFR   string
	nameEN   string
	runesFR  []string
	runesEN  []string
	tagsFR   string
	tagsEN   string
	category string
}

func (e *entry) name(lang domain.Language) (string, []string) {
	if lang == domain.LanguageFR {
		return e.nameFR, e.runesFR
	}
	return e.nameEN, e.runesEN
}

func (e *entry) tags(lang domain.Language) string {
	if lang == domain.LanguageFR {
		return e.tagsFR
	}
	return e.tagsEN
}

// Stats summarizes an index.
type Stats struct {
	Total      int `json:"total"`
	Valid      int `json:"valid"`
	Archived   int `json:"archived"`
	Categories int `json:"categories"`
	Sources    int `json:"sources"`
}

// Index answers free-text, id, category and source lookups.
type Index struct {
	factors []*domain.Factor
	entries []entry

	byID       map[string]*domain.Factor
	byCategory map[string][]*domain.Factor
	bySource   map[string][]*domain.Factor

	// categoryOrder lists category keys in first-seen order.
	categoryOrder []string
	categories    []string
	sources       []string
	archived      int

	exec              Executor
	parallelThreshold int
}

// New builds an index over factors. The slice is not retained; the factors are.
// When two factors share an id, lookups by id return the first.
func New(factors []*domain.Factor, opts ...Option) *Index {
	ix := &Index{
		factors:    slices.Clone(factors),
		entries:    make([]entry, 0, len(factors)),
		byID:       make(map[string]*domain.Factor, len(factors)),
		byCategory: make(map[string][]*domain.Factor),
		bySource:   make(map[string][]*domain.Factor),
	}
	for _, opt := range opts {
		opt(ix)
	}

	for _, f := range ix.factors {
		nameFR := strings.ToLower(f.NameFR)
		nameEN := strings.ToLower(f.NameEN)
		ix.entries = append(ix.entries, entry{
			factor:   f,
			nameFR:   nameFR,
			nameEN:   nameEN,
			runesFR:  splitRunes(nameFR),
			runesEN:  splitRunes(nameEN),
			tagsFR:   strings.ToLower(f.TagsFR),
			tagsEN:   strings.ToLower(f.TagsEN),
			category: strings.ToLower(f.Category),
		})

		if _, ok := ix.byID[f.ID]; !ok {
			ix.byID[f.ID] = f
		}
		if _, ok := ix.byCategory[f.Category]; !ok {
			ix.categoryOrder = append(ix.categoryOrder, f.Category)
		}
		ix.byCategory[f.Category] = append(ix.byCategory[f.Category], f)
		ix.bySource[f.Source] = append(ix.bySource[f.Source], f)
		if f.Archived() {
			ix.archived++
		}
	}

	ix.categories = slices.Clone(ix.categoryOrder)
	sort.Strings(ix.categories)
	ix.sources = make([]string, 0, len(ix.bySource))
	for s := range ix.bySource {
		ix.sources = append(ix.sources, s)
	}
	sort.Strings(ix.sources)
	return ix
}

// Len returns the number of indexed factors, archived ones included.
func (ix *Index) Len() int {
	return len(ix.factors)
}

// Factors returns every indexed factor in load order.
func (ix *Index) Factors() []*domain.Factor {
	return slices.Clone(ix.factors)
}

// Stats returns counts for the index.
func (ix *Index) Stats() Stats {
	return Stats{
		Total:      len(ix.factors),
		Valid:      len(ix.factors) - ix.archived,
		Archived:   ix.archived,
		Categories: len(ix.categories),
		Sources:    len(ix.sources),
	}
}

// Search is SearchContext without cancellation.
func (ix *Index) Search(query string, lang domain.Language, maxResults int) []domain.ScoredFactor {
	results, _ := ix.SearchContext(context.Background(), query, lang, maxResults)
	return results
}

// SearchContext ranks non-archived factors against query and returns at most
// maxResults hits, best first. Hits with equal scores keep load order.
// maxResults <= 0 returns no hits. The only error is ctx's, when it is
// cancelled during sharded scoring.
func (ix *Index) SearchContext(ctx context.Context, query string, lang domain.Language, maxResults int) ([]domain.ScoredFactor, error) {
	if maxResults <= 0 || len(ix.entries) == 0 {
		return []domain.ScoredFactor{}, nil
	}
	q := strings.ToLower(query)
	qr := splitRunes(q)

	var results []domain.ScoredFactor
	if ix.exec != nil && len(ix.entries) >= ix.parallelThreshold {
		var err error
		results, err = ix.scoreSharded(ctx, q, qr, lang)
		if err != nil {
			return nil, err
		}
	} else {
		results = scoreEntries(ix.entries, q, qr, lang)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	if results == nil {
		results = []domain.ScoredFactor{}
	}
	return results, nil
}

// scoreSharded scores contiguous shards in parallel and concatenates them in
// shard order, which keeps the output identical to the sequential path.
func (ix *Index) scoreSharded(ctx context.Context, q string, qr []string, lang domain.Language) ([]domain.ScoredFactor, error) {
	shards := ix.exec.Cap()
	if shards < 1 {
		shards = 1
	}
	size := (len(ix.entries) + shards - 1) / shards

	parts := make([][]domain.ScoredFactor, 0, shards)
	tasks := make([]worker.Task, 0, shards)
	for start := 0; start < len(ix.entries); start += size {
		end := min(start+size, len(ix.entries))
		slot := len(parts)
		parts = append(parts, nil)
		chunk := ix.entries[start:end]
		tasks = append(tasks, func(context.Context) {
			parts[slot] = scoreEntries(chunk, q, qr, lang)
		})
	}

	if err := ix.exec.Run(ctx, tasks...); err != nil {
		return nil, err
	}

	n := 0
	for _, p := range parts {
		n += len(p)
	}
	results := make([]domain.ScoredFactor, 0, n)
	for _, p := range parts {
		results = append(results, p...)
	}
	return results, nil
}

func scoreEntries(entries []entry, q string, qr []string, lang domain.Language) []domain.ScoredFactor {
	var dst []domain.ScoredFactor
	for i := range entries {
		e := &entries[i]
		if e.factor.Archived() {
			continue
		}
		if score := e.score(q, qr, lang); score > scoreThreshold {
			dst = append(dst, domain.ScoredFactor{Factor: e.factor, Score: score})
		}
	}
	return dst
}

// score adds the weighted signals in a fixed order so float results are
// reproducible across runs.
func (e *entry) score(q string, qr []string, lang domain.Language) float64 {
	name, nameRunes := e.name(lang)

	score := 0.0
	if strings.Contains(name, q) {
		score += weightNameSubstring
	}
	score += ratio(qr, nameRunes) * weightNameSimilarity
	if tags := e.tags(lang); tags != "" && strings.Contains(tags, q) {
		score += weightTagsSubstring
	}
	if strings.Contains(e.category, q) {
		score += weightCategorySubstring
	}
	return score
}

// GetByID returns the factor with id, archived or not.
func (ix *Index) GetByID(id string) (*domain.Factor, bool) {
	f, ok := ix.byID[id]
	return f, ok
}

// SearchByCategory returns factors of category. With exact set the category
// path must match fully; otherwise every category containing the text,
// compared case-insensitively, contributes its factors in load order.
func (ix *Index) SearchByCategory(category string, exact bool) []*domain.Factor {
	if exact {
		return slices.Clone(ix.byCategory[category])
	}

	needle := strings.ToLower(category)
	var out []*domain.Factor
	for _, cat := range ix.categoryOrder {
		if strings.Contains(strings.ToLower(cat), needle) {
			out = append(out, ix.byCategory[cat]...)
		}
	}
	return out
}

// SearchBySource returns every factor published by source.
func (ix *Index) SearchBySource(source string) []*domain.Factor {
	return slices.Clone(ix.bySource[source])
}

// Categories returns the distinct categories, sorted.
func (ix *Index) Categories() []string {
	return slices.Clone(ix.categories)
}

// Sources returns the distinct sources, sorted.
func (ix *Index) Sources() []string {
	return slices.Clone(ix.sources)
}
