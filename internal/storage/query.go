package storage

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/epavlenko/taskboard/internal/query"
)

var (
	idScalarOps = map[string]bool{
		"$eq": true, "$ne": true,
		"$gt": true, "$gte": true,
		"$lt": true, "$lte": true,
	}
	idArrayOps = map[string]bool{
		"$in": true, "$nin": true,
	}
)

// filterDoc converts a parsed where document into a bson filter. The
// documents under _id arrive as hex strings, while the collection
// stores object ids, so those values are upgraded before the query
// runs. Everything else passes through untouched.
func filterDoc(where map[string]any) bson.M {
	filter := bson.M{}
	for key, value := range where {
		if key == "_id" {
			filter[key] = coerceIDValue(value)
			continue
		}
		filter[key] = value
	}
	return filter
}

func coerceIDValue(value any) any {
	switch v := value.(type) {
	case string:
		if id, err := bson.ObjectIDFromHex(v); err == nil {
			return id
		}
	case map[string]any:
		coerced := make(map[string]any, len(v))
		for op, operand := range v {
			switch {
			case idArrayOps[op]:
				items, ok := operand.([]any)
				if !ok {
					coerced[op] = operand
					continue
				}
				converted := make([]any, len(items))
				for i, item := range items {
					converted[i] = coerceIDValue(item)
				}
				coerced[op] = converted
			case idScalarOps[op]:
				coerced[op] = coerceIDValue(operand)
			default:
				coerced[op] = operand
			}
		}
		return coerced
	}
	return value
}

func sortDoc(sort []query.SortField) bson.D {
	doc := make(bson.D, 0, len(sort))
	for _, clause := range sort {
		doc = append(doc, bson.E{Key: clause.Field, Value: clause.Dir})
	}
	return doc
}

func projectionDoc(sel map[string]bool) bson.M {
	doc := bson.M{}
	for field, include := range sel {
		if include {
			doc[field] = 1
		} else {
			doc[field] = 0
		}
	}
	return doc
}

func findOptions(q query.Query) *options.FindOptionsBuilder {
	opts := options.Find()
	if len(q.Sort) > 0 {
		opts.SetSort(sortDoc(q.Sort))
	}
	if len(q.Select) > 0 {
		opts.SetProjection(projectionDoc(q.Select))
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}
	return opts
}
