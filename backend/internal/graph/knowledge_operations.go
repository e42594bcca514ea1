package graph

import (
	"context"

	"bakerybot/backend/pkg/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// ============================================================================
// Knowledge Cache Operations
// ============================================================================

// LoadCorpus fetches the question/answer corpus for similarity matching.
// Order is first-seen creation order and duplicates collapse by exact
// question string, so the matcher's tie-breaking stays deterministic.
// An empty category loads the whole corpus
func (r *Repository) LoadCorpus(ctx context.Context, category string) ([]KnowledgeEntry, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (n:Question)
		WHERE $category = '' OR n.category = $category
		RETURN n.question as question, n.msg_reply as reply, n.category as category
		ORDER BY n.created_at ASC
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"category": category,
	})
	if err != nil {
		return nil, r.queryError("load corpus", err)
	}

	var entries []KnowledgeEntry
	seen := make(map[string]bool)
	for result.Next(ctx) {
		record := result.Record()
		question := getStringFromRecord(record, "question")
		if question == "" || seen[question] {
			continue
		}
		seen[question] = true
		entries = append(entries, KnowledgeEntry{
			Question: question,
			Reply:    getStringFromRecord(record, "reply"),
			Category: getStringFromRecord(record, "category"),
		})
	}
	if err := result.Err(); err != nil {
		return nil, r.queryError("load corpus", err)
	}

	return entries, nil
}

// LookupReply fetches the stored reply for an exact question string. Used
// after the matcher has identified the matching key
func (r *Repository) LookupReply(ctx context.Context, question string) (string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (n:Question {question: $question})
		RETURN n.msg_reply as reply
		LIMIT 1
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"question": question,
	})
	if err != nil {
		return "", r.queryError("lookup reply", err)
	}

	if result.Next(ctx) {
		return getStringFromRecord(result.Record(), "reply"), nil
	}
	if err := result.Err(); err != nil {
		return "", r.queryError("lookup reply", err)
	}

	return "", errors.NewEntryNotFound(question)
}

// WriteEntry inserts a knowledge entry. MERGE on the question string makes
// re-inserting an identical pair a no-op, and an existing entry's reply is
// never overwritten
func (r *Repository) WriteEntry(ctx context.Context, question, reply, category string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (n:Question {question: $question})
		ON CREATE SET
			n.msg_reply = $reply,
			n.category = $category,
			n.created_at = timestamp()
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"question": question,
		"reply":    reply,
		"category": category,
	})
	if err != nil {
		return r.queryError("write entry", err)
	}

	r.logger.Info("Knowledge entry written",
		zap.String("question", question),
		zap.String("category", category),
	)
	return nil
}

// CheckPreviousQuestion looks for an answer previously logged for this exact
// utterance, so the fallback model is not called twice for the same text
func (r *Repository) CheckPreviousQuestion(ctx context.Context, question string) (string, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (q:Question {question: $question})-[:HAS_ANSWER]->(a:Answer)
		RETURN a.text as answer
		LIMIT 1
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"question": question,
	})
	if err != nil {
		return "", r.queryError("check previous question", err)
	}

	if result.Next(ctx) {
		return getStringFromRecord(result.Record(), "answer"), nil
	}
	if err := result.Err(); err != nil {
		return "", r.queryError("check previous question", err)
	}

	return "", errors.NewEntryNotFound(question)
}

// LinkAnswer records a Question-HAS_ANSWER-Answer pair for a fallback
// generation, feeding CheckPreviousQuestion on later turns
func (r *Repository) LinkAnswer(ctx context.Context, question, answer string) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (q:Question {question: $question})
		ON CREATE SET q.created_at = timestamp()
		MERGE (a:Answer {text: $answer})
		MERGE (q)-[:HAS_ANSWER]->(a)
	`

	_, err := session.Run(ctx, query, map[string]interface{}{
		"question": question,
		"answer":   answer,
	})
	if err != nil {
		return r.queryError("link answer", err)
	}

	return nil
}
