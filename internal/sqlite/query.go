package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jkmoore/whats-for-dinner/pkg/types"
)

// buildQuery renders a types.Query into SQL over the documents table.
// Field names are interpolated into json_extract paths, so they are
// validated first; values always travel as bind parameters.
func buildQuery(collection string, q types.Query) (string, []any, error) {
	sql := "SELECT doc_id, fields FROM documents WHERE collection = ?"
	args := []any{collection}

	for _, f := range q.Filters {
		path, err := fieldPath(f.Field)
		if err != nil {
			return "", nil, err
		}
		switch f.Op {
		case types.OpEqual:
			sql += " AND " + path + " = ?"
			args = append(args, f.Value)
		case types.OpGreaterOrEqual:
			sql += " AND " + path + " >= ?"
			args = append(args, f.Value)
		case types.OpLessOrEqual:
			sql += " AND " + path + " <= ?"
			args = append(args, f.Value)
		case types.OpIn:
			values, ok := f.Value.([]string)
			if !ok {
				return "", nil, types.ErrInvalidFilter
			}
			placeholders := make([]string, len(values))
			for i, v := range values {
				placeholders[i] = "?"
				args = append(args, v)
			}
			sql += " AND " + path + " IN (" + strings.Join(placeholders, ",") + ")"
		default:
			return "", nil, types.ErrInvalidFilter
		}
	}

	if len(q.OrderBy) > 0 {
		clauses := make([]string, len(q.OrderBy))
		for i, field := range q.OrderBy {
			path, err := fieldPath(field)
			if err != nil {
				return "", nil, err
			}
			clauses[i] = path + " ASC"
		}
		sql += " ORDER BY " + strings.Join(clauses, ", ")
	}
	if q.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return sql, args, nil
}

// fieldPath returns the json_extract expression for a document field.
// Returns ErrInvalidFilter for names that are not simple identifiers.
func fieldPath(field string) (string, error) {
	if !isFieldName(field) {
		return "", types.ErrInvalidFilter
	}
	return "json_extract(fields, '$." + field + "')", nil
}

// isFieldName reports whether s is a plain identifier safe to embed in a
// JSON path.
func isFieldName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// runQuery executes a validated query. The caller must hold at least a read
// lock on an attached store.
func (s *Store) runQuery(ctx context.Context, collection string, q types.Query) ([]types.Document, error) {
	stmt, args, err := buildQuery(collection, q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}
	defer rows.Close()

	results := []types.Document{}
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scanning %s document: %w", collection, err)
		}
		doc, err := decodeDocument(id, payload)
		if err != nil {
			return nil, err
		}
		results = append(results, doc)
	}
	return results, rows.Err()
}
