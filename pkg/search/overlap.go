package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	stdsync "sync"

	"github.com/rs/zerolog"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// RecipeMatch is one recipe scored by ingredient overlap. Weight is the
// fraction of search terms the recipe's ingredients cover; Matched lists the
// matching ingredient names in discovery order.
type RecipeMatch struct {
	Recipe  types.Recipe
	Weight  float64
	Matched []string
}

// Subtext renders the matched ingredients as a comma-joined display string.
func (m RecipeMatch) Subtext() string {
	return strings.Join(m.Matched, ", ")
}

// SearchByIngredients finds the user's recipes whose ingredients overlap the
// given terms, best coverage first. Terms are partitioned into chunks of at
// most MaxInValues, one in-query per chunk, run concurrently; each matching
// ingredient document accrues 1/len(terms) weight for its recipe. Recipes
// are then fetched concurrently in rank order; an ingredient pointing at a
// deleted recipe is skipped.
func SearchByIngredients(ctx context.Context, store types.Store, userID string, terms []string, logger zerolog.Logger) ([]RecipeMatch, error) {
	if userID == "" {
		return nil, types.ErrNoUser
	}
	if len(terms) == 0 {
		return nil, nil
	}

	chunks := chunkTerms(terms, types.MaxInValues)
	results := make([][]types.Document, len(chunks))
	errs := make([]error, len(chunks))

	var wg stdsync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []string) {
			defer wg.Done()
			q := types.Query{}.
				Where(types.FieldUserID, types.OpEqual, userID).
				Where(types.FieldLowercaseName, types.OpIn, chunk)
			results[i], errs[i] = store.Query(ctx, types.CollectionIngredients, q)
		}(i, chunk)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	type accrual struct {
		weight  float64
		matched []string
	}
	perTerm := 1.0 / float64(len(terms))
	accruals := make(map[string]*accrual)
	var ranked []string // recipe ids in discovery order for stable ties
	for _, docs := range results {
		for _, doc := range docs {
			recipeID := doc.Fields.StringField(types.FieldRecipeID)
			if recipeID == "" {
				continue
			}
			a, ok := accruals[recipeID]
			if !ok {
				a = &accrual{}
				accruals[recipeID] = a
				ranked = append(ranked, recipeID)
			}
			a.weight += perTerm
			a.matched = append(a.matched, doc.Fields.StringField(types.FieldName))
		}
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return accruals[ranked[i]].weight > accruals[ranked[j]].weight
	})

	// Fetch the recipe documents concurrently, keeping rank order.
	fetched := make([]*types.Recipe, len(ranked))
	fetchErrs := make([]error, len(ranked))
	for i, recipeID := range ranked {
		wg.Add(1)
		go func(i int, recipeID string) {
			defer wg.Done()
			doc, err := store.Get(ctx, types.CollectionRecipes, recipeID)
			if errors.Is(err, types.ErrNotFound) {
				logger.Warn().Str("recipe", recipeID).Msg("ingredient points at missing recipe")
				return
			}
			if err != nil {
				fetchErrs[i] = err
				return
			}
			recipe := types.RecipeFromDocument(doc)
			fetched[i] = &recipe
		}(i, recipeID)
	}
	wg.Wait()
	for _, err := range fetchErrs {
		if err != nil {
			return nil, err
		}
	}

	matches := make([]RecipeMatch, 0, len(ranked))
	for i, recipeID := range ranked {
		if fetched[i] == nil {
			continue // deleted recipe
		}
		a := accruals[recipeID]
		matches = append(matches, RecipeMatch{
			Recipe:  *fetched[i],
			Weight:  a.weight,
			Matched: a.matched,
		})
	}
	return matches, nil
}

// chunkTerms partitions terms into slices of at most size elements.
func chunkTerms(terms []string, size int) [][]string {
	var chunks [][]string
	for len(terms) > size {
		chunks = append(chunks, terms[:size])
		terms = terms[size:]
	}
	return append(chunks, terms)
}
