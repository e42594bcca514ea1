package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// History Operations
// ============================================================================
//
// Both writes here are audit trails: the orchestrator calls them
// fire-and-forget and swallows failures, so they must never be on the
// reply path's critical section.

// AppendChatEvent appends one turn to the user's chat history
func (r *Repository) AppendChatEvent(ctx context.Context, uid, message, reply string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {uid: $uid})
		CREATE (c:Chat {id: $id, message: $message, reply: $reply, timestamp: timestamp()})
		CREATE (u)-[:SENT]->(c)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"uid":     uid,
		"id":      uuid.NewString(),
		"message": message,
		"reply":   reply,
	})
	if err != nil {
		return r.queryError("append chat event", err)
	}

	return nil
}

// SaveResponseLog records the raw utterance and the system's reply as a
// linked Answer/Response pair for traceability
func (r *Repository) SaveResponseLog(ctx context.Context, uid, utterance, reply string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (u:User {uid: $uid})
		CREATE (a:Answer {id: $answerID, text: $utterance})
		CREATE (res:Response {id: $responseID, text: $reply})
		CREATE (u)-[:ASKED]->(a)
		CREATE (a)-[:ANSWERED_WITH]->(res)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"uid":        uid,
		"answerID":   uuid.NewString(),
		"responseID": uuid.NewString(),
		"utterance":  utterance,
		"reply":      reply,
	})
	if err != nil {
		return r.queryError("save response log", err)
	}

	return nil
}

// RecentHistory returns the latest chat events for a user, newest first
func (r *Repository) RecentHistory(ctx context.Context, uid string, limit int) ([]ChatEvent, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	if limit < 1 {
		limit = 10
	}

	query := `
		MATCH (u:User {uid: $uid})-[:SENT]->(c:Chat)
		RETURN c.id as id, c.message as message, c.reply as reply, c.timestamp as timestamp
		ORDER BY c.timestamp DESC
		LIMIT $limit
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"uid":   uid,
		"limit": limit,
	})
	if err != nil {
		return nil, r.queryError("recent history", err)
	}

	var events []ChatEvent
	for result.Next(ctx) {
		record := result.Record()
		events = append(events, ChatEvent{
			ID:        getStringFromRecord(record, "id"),
			Message:   getStringFromRecord(record, "message"),
			Reply:     getStringFromRecord(record, "reply"),
			Timestamp: getInt64FromRecord(record, "timestamp"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, r.queryError("recent history", err)
	}

	return events, nil
}
