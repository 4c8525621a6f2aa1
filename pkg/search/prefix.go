package search

import (
	"sort"
	"strings"
	stdsync "sync"

	"github.com/rs/zerolog"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// prefixUpperBound caps a lowercaseName range scan so it matches exactly the
// strings starting with the input: every extension of the prefix sorts
// before prefix+U+F8FF.
const prefixUpperBound = "\uf8ff"

// Normalize prepares raw search input: surrounding whitespace is dropped and
// the result is lowercased to match the stored lowercaseName fields.
func Normalize(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// PrefixSearcher runs a live prefix search over one collection. Setting a
// new input swaps the underlying subscription; setting empty input
// deactivates the search and clears the results.
type PrefixSearcher struct {
	store      types.Store
	collection string
	sortField  string // FieldOrder for lists, FieldLowercaseName for recipes
	logger     zerolog.Logger

	mu       stdsync.Mutex
	userID   string
	sub      types.Subscription
	input    string
	results  []types.Document
	err      error
	onChange func()
}

// NewPrefixSearcher creates a searcher for one collection. Results are
// sorted client-side by sortField, since the store orders range scans by the
// range field itself.
func NewPrefixSearcher(store types.Store, collection, sortField string, logger zerolog.Logger) *PrefixSearcher {
	return &PrefixSearcher{
		store:      store,
		collection: collection,
		sortField:  sortField,
		logger:     logger.With().Str("collection", collection).Logger(),
	}
}

// OnChange registers a callback fired after every result replacement.
func (p *PrefixSearcher) OnChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Start binds the searcher to a user. Any active search is cleared.
func (p *PrefixSearcher) Start(userID string) error {
	if userID == "" {
		return types.ErrNoUser
	}
	p.deactivate()
	p.mu.Lock()
	p.userID = userID
	p.mu.Unlock()
	return nil
}

// Stop clears the search and unbinds the user.
func (p *PrefixSearcher) Stop() {
	p.deactivate()
	p.mu.Lock()
	p.userID = ""
	p.mu.Unlock()
}

// SetInput updates the search input. Empty (after normalization) input
// deactivates the search; anything else replaces the live range query.
func (p *PrefixSearcher) SetInput(input string) error {
	norm := Normalize(input)
	if norm == "" {
		p.deactivate()
		return nil
	}

	p.mu.Lock()
	userID := p.userID
	p.mu.Unlock()
	if userID == "" {
		return types.ErrNoUser
	}

	q := types.Query{OrderBy: []string{types.FieldLowercaseName}}.
		Where(types.FieldUserID, types.OpEqual, userID).
		Where(types.FieldLowercaseName, types.OpGreaterOrEqual, norm).
		Where(types.FieldLowercaseName, types.OpLessOrEqual, norm+prefixUpperBound)
	sub, err := p.store.Subscribe(p.collection, q)
	if err != nil {
		return err
	}

	p.mu.Lock()
	old := p.sub
	p.sub = sub
	p.input = norm
	p.err = nil
	p.mu.Unlock()
	if old != nil {
		old.Unsubscribe()
	}

	go p.consume(sub)
	return nil
}

// Active reports whether a search input is set.
func (p *PrefixSearcher) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input != ""
}

// Input returns the current normalized input.
func (p *PrefixSearcher) Input() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

// Results returns a copy of the current matches.
func (p *PrefixSearcher) Results() []types.Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.Document(nil), p.results...)
}

// Err returns the error that stopped the search subscription, if any.
func (p *PrefixSearcher) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *PrefixSearcher) deactivate() {
	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	p.input = ""
	p.results = nil
	cb := p.onChange
	p.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
	if cb != nil {
		cb()
	}
}

func (p *PrefixSearcher) consume(sub types.Subscription) {
	for docs := range sub.Updates() {
		sortResults(docs, p.sortField)
		p.mu.Lock()
		if p.sub != sub {
			p.mu.Unlock()
			return
		}
		p.results = docs
		cb := p.onChange
		p.mu.Unlock()
		if cb != nil {
			cb()
		}
	}

	if err := sub.Err(); err != nil {
		p.mu.Lock()
		if p.sub == sub {
			p.err = err
		}
		p.mu.Unlock()
		p.logger.Error().Err(err).Msg("search subscription failed")
	}
}

// sortResults orders matches for display. Numeric fields sort numerically,
// string fields lexically.
func sortResults(docs []types.Document, field string) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].Fields[field], docs[j].Fields[field]
		if as, ok := a.(string); ok {
			bs, _ := b.(string)
			return as < bs
		}
		return docs[i].Fields.IntField(field) < docs[j].Fields.IntField(field)
	})
}
