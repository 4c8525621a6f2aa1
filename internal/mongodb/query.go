package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// buildFilter translates query filters into a Mongo filter document.
// Multiple filters on the same field merge into one operator map, so a
// pair of range filters becomes {field: {$gte: lo, $lte: hi}}.
func buildFilter(q types.Query) bson.M {
	filter := bson.M{}
	for _, f := range q.Filters {
		conds, ok := filter[f.Field].(bson.M)
		if !ok {
			conds = bson.M{}
			filter[f.Field] = conds
		}
		switch f.Op {
		case types.OpEqual:
			conds["$eq"] = f.Value
		case types.OpGreaterOrEqual:
			conds["$gte"] = f.Value
		case types.OpLessOrEqual:
			conds["$lte"] = f.Value
		case types.OpIn:
			conds["$in"] = f.Value
		}
	}
	return filter
}

// findOptions translates order-by and limit into driver options.
func findOptions(q types.Query) *options.FindOptionsBuilder {
	opts := options.Find()
	if len(q.OrderBy) > 0 {
		sort := make(bson.D, 0, len(q.OrderBy))
		for _, field := range q.OrderBy {
			sort = append(sort, bson.E{Key: field, Value: 1})
		}
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

// runQuery executes a validated query. The caller holds at least a read lock.
func (s *Store) runQuery(ctx context.Context, collection string, q types.Query) ([]types.Document, error) {
	cur, err := s.db.Collection(collection).Find(ctx, buildFilter(q), findOptions(q))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("decoding %s documents: %w", collection, err)
	}

	docs := make([]types.Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, decodeDocument(raw))
	}
	return docs, nil
}
