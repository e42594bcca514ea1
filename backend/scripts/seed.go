package main

import (
	"context"
	"flag"
	"fmt"

	"bakerybot/backend/internal/graph"
	"bakerybot/backend/pkg/config"
	"bakerybot/backend/pkg/logger"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// greetingCorpus is the starter FAQ. WriteEntry never overwrites, so
// re-running the seeder leaves operator edits in place
var greetingCorpus = []graph.KnowledgeEntry{
	{Question: "สวัสดี", Reply: "สวัสดีครับ ยินดีต้อนรับสู่ร้านเบเกอรี่ของเรา", Category: graph.CategoryGreeting},
	{Question: "หวัดดี", Reply: "สวัสดีครับ มีอะไรให้ช่วยไหมครับ", Category: graph.CategoryGreeting},
	{Question: "สวัสดีตอนเช้า", Reply: "สวัสดีตอนเช้าครับ วันนี้มีขนมอบใหม่หลายอย่างเลยครับ", Category: graph.CategoryGreeting},
	{Question: "ร้านเปิดกี่โมง", Reply: "ร้านเปิดทุกวัน 8 โมงเช้าถึง 2 ทุ่มครับ", Category: graph.CategoryGreeting},
	{Question: "ขอบคุณ", Reply: "ยินดีครับ แวะมาอีกนะครับ", Category: graph.CategoryGreeting},
	{Question: "ลาก่อน", Reply: "ลาก่อนครับ ขอบคุณที่แวะมาครับ", Category: graph.CategoryGreeting},
	{Question: "มีขนมอะไรขายบ้าง", Reply: "มีเค้ก คุกกี้ ขนมปัง และอุปกรณ์ทำเบเกอรี่ครับ ลองพิมพ์ เมนู ดูได้เลยครับ", Category: graph.CategoryGreeting},
}

func main() {
	dryRun := flag.Bool("dry-run", false, "Print the seed plan without writing")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if *dryRun {
		for _, entry := range greetingCorpus {
			log.Info("Would seed", zap.String("question", entry.Question), zap.String("reply", entry.Reply))
		}
		return
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Create constraints
	log.Info("Creating constraints...")
	if err := createConstraints(ctx, driver); err != nil {
		log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
	}

	// Create indexes for better performance
	log.Info("Creating indexes...")
	if err := createIndexes(ctx, driver); err != nil {
		log.Warn("Failed to create some indexes (may already exist)", zap.Error(err))
	}

	repo := graph.NewRepository(driver)

	log.Info("Seeding greeting corpus", zap.Int("entries", len(greetingCorpus)))
	seeded := 0
	for _, entry := range greetingCorpus {
		if err := repo.WriteEntry(ctx, entry.Question, entry.Reply, entry.Category); err != nil {
			log.Error("Failed to seed entry", zap.String("question", entry.Question), zap.Error(err))
			continue
		}
		if err := repo.LinkAnswer(ctx, entry.Question, entry.Reply); err != nil {
			log.Warn("Failed to link answer", zap.String("question", entry.Question), zap.Error(err))
		}
		seeded++
	}

	log.Info("Seeding complete", zap.Int("seeded", seeded), zap.Int("total", len(greetingCorpus)))
}

// createConstraints creates Neo4j constraints for data integrity
func createConstraints(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT user_uid_unique IF NOT EXISTS FOR (u:User) REQUIRE u.uid IS UNIQUE",
		"CREATE CONSTRAINT question_text_unique IF NOT EXISTS FOR (q:Question) REQUIRE q.question IS UNIQUE",
		"CREATE CONSTRAINT chat_id_unique IF NOT EXISTS FOR (c:Chat) REQUIRE c.id IS UNIQUE",
	}

	for _, constraint := range constraints {
		if _, err := session.Run(ctx, constraint, nil); err != nil {
			// Constraints may already exist
			continue
		}
	}

	return nil
}

// createIndexes creates Neo4j indexes for better query performance
func createIndexes(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	indexes := []string{
		"CREATE INDEX question_category IF NOT EXISTS FOR (q:Question) ON (q.category)",
		"CREATE INDEX chat_timestamp IF NOT EXISTS FOR (c:Chat) ON (c.timestamp)",
	}

	for _, index := range indexes {
		if _, err := session.Run(ctx, index, nil); err != nil {
			continue
		}
	}

	return nil
}
