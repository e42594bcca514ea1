package graph

import (
	"bakerybot/backend/pkg/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// queryError classifies a driver failure. Connection-class errors mean the
// store itself is unreachable, which callers treat differently from a query
// that the store rejected
func (r *Repository) queryError(operation string, err error) error {
	if neo4j.IsConnectivityError(err) {
		return errors.NewStoreUnavailable(r.uri, err)
	}
	return errors.NewGraphQueryFailed(operation, err)
}

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	return 0
}
