package graph

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bakerybot/backend/pkg/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// These tests require a running Neo4j instance at bolt://localhost:7687
// and are skipped under -short.

func TestRepository_WriteEntry_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, repo := newTestRepo(t)
	defer driver.Close(ctx)

	question := testKey("q")
	defer cleanupQuestion(ctx, driver, question)

	if err := repo.WriteEntry(ctx, question, "first reply", CategoryGeneral); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}
	// Second write with the same question must not change the stored reply
	if err := repo.WriteEntry(ctx, question, "second reply", CategoryGeneral); err != nil {
		t.Fatalf("WriteEntry (repeat) failed: %v", err)
	}

	reply, err := repo.LookupReply(ctx, question)
	if err != nil {
		t.Fatalf("LookupReply failed: %v", err)
	}
	if reply != "first reply" {
		t.Errorf("Expected 'first reply', got '%s'", reply)
	}
}

func TestRepository_LookupReply_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, repo := newTestRepo(t)
	defer driver.Close(ctx)

	_, err := repo.LookupReply(ctx, testKey("missing"))
	if err == nil {
		t.Fatal("Expected error for missing entry")
	}
	if _, ok := err.(*errors.ErrEntryNotFound); !ok {
		t.Errorf("Expected ErrEntryNotFound, got %T", err)
	}
}

func TestRepository_UserName_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, repo := newTestRepo(t)
	defer driver.Close(ctx)

	uid := testKey("user")
	defer cleanupUser(ctx, driver, uid)

	// Name query before any introduction
	_, err := repo.GetUserName(ctx, uid)
	if _, ok := err.(*errors.ErrUserNotFound); !ok {
		t.Errorf("Expected ErrUserNotFound before SetUserName, got %v", err)
	}

	if err := repo.SetUserName(ctx, uid, "Mali"); err != nil {
		t.Fatalf("SetUserName failed: %v", err)
	}

	name, err := repo.GetUserName(ctx, uid)
	if err != nil {
		t.Fatalf("GetUserName failed: %v", err)
	}
	if name != "Mali" {
		t.Errorf("Expected 'Mali', got '%s'", name)
	}
}

func TestRepository_LoadCorpus_DedupAndOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, repo := newTestRepo(t)
	defer driver.Close(ctx)

	category := testKey("cat")
	first := testKey("first")
	second := testKey("second")
	defer cleanupQuestion(ctx, driver, first)
	defer cleanupQuestion(ctx, driver, second)

	if err := repo.WriteEntry(ctx, first, "reply one", category); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // distinct created_at
	if err := repo.WriteEntry(ctx, second, "reply two", category); err != nil {
		t.Fatalf("WriteEntry failed: %v", err)
	}
	if err := repo.WriteEntry(ctx, first, "reply one", category); err != nil {
		t.Fatalf("WriteEntry (duplicate) failed: %v", err)
	}

	entries, err := repo.LoadCorpus(ctx, category)
	if err != nil {
		t.Fatalf("LoadCorpus failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Question != first || entries[1].Question != second {
		t.Errorf("Corpus order not first-seen: %v", entries)
	}
}

func TestRepository_CheckPreviousQuestion(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, repo := newTestRepo(t)
	defer driver.Close(ctx)

	question := testKey("prev")
	defer cleanupQuestion(ctx, driver, question)

	_, err := repo.CheckPreviousQuestion(ctx, question)
	if _, ok := err.(*errors.ErrEntryNotFound); !ok {
		t.Errorf("Expected ErrEntryNotFound before LinkAnswer, got %v", err)
	}

	if err := repo.LinkAnswer(ctx, question, "the answer"); err != nil {
		t.Fatalf("LinkAnswer failed: %v", err)
	}

	answer, err := repo.CheckPreviousQuestion(ctx, question)
	if err != nil {
		t.Fatalf("CheckPreviousQuestion failed: %v", err)
	}
	if answer != "the answer" {
		t.Errorf("Expected 'the answer', got '%s'", answer)
	}
}

func TestRepository_AppendChatEvent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, repo := newTestRepo(t)
	defer driver.Close(ctx)

	uid := testKey("history")
	defer cleanupUser(ctx, driver, uid)

	if err := repo.AppendChatEvent(ctx, uid, "สวัสดี", "สวัสดีครับ"); err != nil {
		t.Fatalf("AppendChatEvent failed: %v", err)
	}

	events, err := repo.RecentHistory(ctx, uid, 5)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Message != "สวัสดี" || events[0].Reply != "สวัสดีครับ" {
		t.Errorf("Unexpected event content: %+v", events[0])
	}
	if events[0].Timestamp == 0 {
		t.Error("Expected a non-zero timestamp")
	}
}

func TestQueryError_Classification(t *testing.T) {
	repo := &Repository{uri: "bolt://localhost:7687"}

	// A refused connection means the store is down, not that the query failed
	err := repo.queryError("load corpus", &neo4j.ConnectivityError{Inner: fmt.Errorf("dial tcp: connection refused")})
	if _, ok := err.(*errors.ErrStoreUnavailable); !ok {
		t.Errorf("Expected ErrStoreUnavailable for connectivity error, got %T", err)
	}

	err = repo.queryError("load corpus", fmt.Errorf("syntax error"))
	if _, ok := err.(*errors.ErrGraphQueryFailed); !ok {
		t.Errorf("Expected ErrGraphQueryFailed for non-connectivity error, got %T", err)
	}
	if !errors.IsErrorType(err, errors.ErrorTypeGraph) {
		t.Error("Expected graph error type")
	}
}

// Helpers

func newTestRepo(t *testing.T) (neo4j.DriverWithContext, *Repository) {
	t.Helper()

	driver, err := neo4j.NewDriverWithContext("bolt://localhost:7687", neo4j.BasicAuth("neo4j", "password", ""))
	if err != nil {
		t.Fatalf("Failed to create driver: %v", err)
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		t.Skipf("Neo4j not reachable: %v", err)
	}

	return driver, NewRepository(driver)
}

func testKey(prefix string) string {
	return fmt.Sprintf("test-%s-%d", prefix, time.Now().UnixNano())
}

func cleanupQuestion(ctx context.Context, driver neo4j.DriverWithContext, question string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, _ = session.Run(ctx, "MATCH (q:Question {question: $q}) OPTIONAL MATCH (q)-[:HAS_ANSWER]->(a:Answer) DETACH DELETE q, a",
		map[string]interface{}{"q": question})
}

func cleanupUser(ctx context.Context, driver neo4j.DriverWithContext, uid string) {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, _ = session.Run(ctx, `
		MATCH (u:User {uid: $uid})
		OPTIONAL MATCH (u)-[:SENT]->(c:Chat)
		OPTIONAL MATCH (u)-[:ASKED]->(a:Answer)-[:ANSWERED_WITH]->(r:Response)
		DETACH DELETE u, c, a, r
	`, map[string]interface{}{"uid": uid})
}
