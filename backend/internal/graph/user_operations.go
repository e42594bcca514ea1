package graph

import (
	"context"
	"time"

	"bakerybot/backend/pkg/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// User Operations
// ============================================================================

// GetOrCreateUser upserts a user node on first contact and refreshes
// last_seen on every turn
func (r *Repository) GetOrCreateUser(ctx context.Context, uid string) (*User, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		MERGE (u:User {uid: $uid})
		ON CREATE SET
			u.first_seen = datetime($now),
			u.last_seen = datetime($now)
		ON MATCH SET
			u.last_seen = datetime($now)
		RETURN u.uid as uid, u.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"uid": uid,
		"now": now,
	})
	if err != nil {
		return nil, r.queryError("get or create user", err)
	}

	if result.Next(ctx) {
		record := result.Record()
		return &User{
			UID:  getStringFromRecord(record, "uid"),
			Name: getStringFromRecord(record, "name"),
		}, nil
	}

	return nil, r.queryError("get or create user", result.Err())
}

// GetUserName returns the remembered name for a user, or ErrUserNotFound
// when the user has never introduced themselves
func (r *Repository) GetUserName(ctx context.Context, uid string) (string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (u:User {uid: $uid})
		RETURN u.name as name
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"uid": uid,
	})
	if err != nil {
		return "", r.queryError("get user name", err)
	}

	if result.Next(ctx) {
		return getStringFromRecord(result.Record(), "name"), nil
	}
	if err := result.Err(); err != nil {
		return "", r.queryError("get user name", err)
	}

	return "", errors.NewUserNotFound(uid)
}

// SetUserName stores the user's stated name, creating the user node when
// absent. Last write wins on concurrent updates
func (r *Repository) SetUserName(ctx context.Context, uid, name string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {uid: $uid})
		SET u.name = $name
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"uid":  uid,
		"name": name,
	})
	if err != nil {
		return r.queryError("set user name", err)
	}

	r.logger.Info("User name stored",
		zap.String("uid", uid),
		zap.String("name", name),
	)
	return nil
}
