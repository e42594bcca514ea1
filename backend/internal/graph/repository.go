package graph

import (
	"context"

	"bakerybot/backend/pkg/logger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Repository handles all Neo4j database operations. Every operation is a
// single parameterized query in its own session; no cross-operation
// transactions are needed
type Repository struct {
	driver neo4j.DriverWithContext
	uri    string
	logger *zap.Logger
}

// NewRepository creates a new graph repository
func NewRepository(driver neo4j.DriverWithContext) *Repository {
	target := driver.Target()
	return &Repository{
		driver: driver,
		uri:    target.String(),
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (r *Repository) Close() error {
	return r.driver.Close(context.Background())
}
