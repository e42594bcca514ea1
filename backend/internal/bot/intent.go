package bot

import (
	"strings"
)

// Trigger tokens, kept in Thai as the user base writes them
const (
	tokenName    = "ชื่อ"
	tokenWhat    = "อะไร"
	tokenBelieve = "เชื่อ" // lookalike containing the name token; not a name statement
	tokenMenu    = "เมนู"
	tokenSearch  = "ค้นหา"
	tokenBudget  = "ไม่เกิน"
	tokenAbout   = "ประมาณ"
)

// Intents is the set of rules a normalized message triggers. Several may
// fire on one message; the orchestrator applies them as layered checks
type Intents struct {
	NameQuery bool

	NameStatement bool
	Name          string // text after the name token; may be empty

	Menu bool

	Search     bool
	SearchTerm string

	Budget     bool
	BudgetText string // budget phrase with trigger words removed

	ShowAll bool
}

// Classify maps a normalized message onto intent flags. Detection is plain
// substring matching on the trigger tokens, factored out of the state
// machine so transitions stay readable
func Classify(msg string) Intents {
	var intents Intents

	hasName := strings.Contains(msg, tokenName)
	switch {
	case hasName && strings.Contains(msg, tokenWhat):
		intents.NameQuery = true
	case hasName && !strings.Contains(msg, tokenBelieve):
		intents.NameStatement = true
		parts := strings.Split(msg, tokenName)
		intents.Name = strings.TrimSpace(parts[len(parts)-1])
	}

	if strings.Contains(msg, tokenMenu) {
		intents.Menu = true
	}

	if strings.Contains(msg, tokenSearch) {
		intents.Search = true
		intents.SearchTerm = strings.TrimSpace(strings.ReplaceAll(msg, tokenSearch, ""))
	}

	if strings.Contains(msg, tokenBudget) {
		intents.Budget = true
		cleaned := strings.ReplaceAll(msg, tokenBudget, "")
		cleaned = strings.ReplaceAll(cleaned, tokenAbout, "")
		intents.BudgetText = strings.TrimSpace(cleaned)
	}

	lower := strings.ToLower(msg)
	if lower == "all" || strings.Contains(lower, "show all") || strings.Contains(msg, "All") {
		intents.ShowAll = true
	}

	return intents
}
