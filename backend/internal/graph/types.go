package graph

// Category labels a logical slice of the knowledge corpus
const (
	// CategoryGreeting marks operator-seeded FAQ entries
	CategoryGreeting = "greeting"
	// CategoryGeneral marks entries written back from fallback generations
	CategoryGeneral = "general"
)

// KnowledgeEntry is one cached question/answer pair. Entries are immutable
// once written; new phrasings become new entries
type KnowledgeEntry struct {
	Question string
	Reply    string
	Category string
}

// User is a chat participant, keyed by the channel uid
type User struct {
	UID  string
	Name string
}

// ChatEvent is one turn of the append-only conversation history
type ChatEvent struct {
	ID        string
	Message   string
	Reply     string
	Timestamp int64
}
