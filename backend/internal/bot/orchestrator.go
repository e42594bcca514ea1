package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bakerybot/backend/internal/catalog"
	"bakerybot/backend/internal/constants"
	"bakerybot/backend/internal/graph"
	"bakerybot/backend/internal/line"
	"bakerybot/backend/internal/matcher"
	"bakerybot/backend/internal/session"
	"bakerybot/backend/internal/utils"
	"bakerybot/backend/pkg/errors"
	"bakerybot/backend/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// nameQuestions are canonical phrasings of "what is my name", used for the
// paraphrase check when a name is already stored
var nameQuestions = []string{"ชื่ออะไร", "ผมชื่ออะไร", "ชื่อของฉัน"}

// Repository is the slice of the graph store the orchestrator needs
type Repository interface {
	LoadCorpus(ctx context.Context, category string) ([]graph.KnowledgeEntry, error)
	LookupReply(ctx context.Context, question string) (string, error)
	WriteEntry(ctx context.Context, question, reply, category string) error
	CheckPreviousQuestion(ctx context.Context, question string) (string, error)
	LinkAnswer(ctx context.Context, question, answer string) error
	GetOrCreateUser(ctx context.Context, uid string) (*graph.User, error)
	SetUserName(ctx context.Context, uid, name string) error
	AppendChatEvent(ctx context.Context, uid, message, reply string) error
	SaveResponseLog(ctx context.Context, uid, utterance, reply string) error
}

// Matcher finds the nearest known question for a query
type Matcher interface {
	Match(ctx context.Context, query string, corpus []string) (matcher.Match, error)
	Similar(ctx context.Context, query string, candidates []string, threshold float64) (bool, error)
}

// Generator is the blocking fallback generation call
type Generator interface {
	Generate(ctx context.Context, question, userName string) (string, error)
}

// Catalog looks up products for the menu/search sub-flow
type Catalog interface {
	Search(ctx context.Context, term string) ([]catalog.Listing, error)
}

// Options tune the orchestrator's decision thresholds
type Options struct {
	// SimilarityThreshold is the cache-hit knob: a match is accepted only
	// when score > threshold. Too low reuses wrong answers, too high burns
	// fallback calls
	SimilarityThreshold float64
	// NameThreshold gates the remembered-name paraphrase check
	NameThreshold float64
}

// Orchestrator is the per-message state machine: name handling, the
// menu/search sub-flow, cache-first answering and fallback with write-back
type Orchestrator struct {
	repo     Repository
	matcher  Matcher
	gen      Generator
	catalog  Catalog
	sessions *session.Store
	opts     Options

	corpusGroup singleflight.Group
	logger      *zap.Logger
}

// NewOrchestrator wires the conversation state machine
func NewOrchestrator(repo Repository, m Matcher, gen Generator, cat Catalog, sessions *session.Store, opts Options) *Orchestrator {
	return &Orchestrator{
		repo:     repo,
		matcher:  m,
		gen:      gen,
		catalog:  cat,
		sessions: sessions,
		opts:     opts,
		logger:   logger.Get(),
	}
}

// HandleMessage runs one conversation turn and returns the messages to
// deliver. Sub-flow rules (name, menu, search, budget) are layered checks
// that may each fire; when none fired, the knowledge path (cache then
// fallback) answers. External failures degrade to safe replies, never errors
func (o *Orchestrator) HandleMessage(ctx context.Context, uid, text string) []line.TextMessage {
	msg := utils.RemovePoliteEndings(text)
	if msg == "" {
		return nil
	}

	userName := o.touchUser(ctx, uid)
	intents := Classify(msg)

	var replies []line.TextMessage
	replies = append(replies, o.runNameRules(ctx, uid, userName, intents)...)
	replies = append(replies, o.runCatalogRules(ctx, uid, intents)...)

	// The knowledge path answers only when no sub-flow rule replied, so
	// menu clicks and name statements don't burn generations or pollute
	// the cache
	if len(replies) == 0 {
		if reply, ok := o.answerNameParaphrase(ctx, msg, userName); ok {
			replies = append(replies, reply)
		} else {
			replies = append(replies, o.answerFromKnowledge(ctx, uid, msg, userName))
		}
	}

	return replies
}

// touchUser upserts the user node and returns the remembered name, if any.
// Store trouble here never blocks the turn
func (o *Orchestrator) touchUser(ctx context.Context, uid string) string {
	user, err := o.repo.GetOrCreateUser(ctx, uid)
	if err != nil {
		o.logger.Warn("User upsert failed", zap.String("uid", uid), zap.Error(err))
		return ""
	}
	return user.Name
}

// ============================================================================
// Name rules
// ============================================================================

func (o *Orchestrator) runNameRules(ctx context.Context, uid, userName string, intents Intents) []line.TextMessage {
	switch {
	case intents.NameQuery:
		if userName != "" {
			return []line.TextMessage{line.NewText(fmt.Sprintf("ชื่อของคุณคือ %s ครับ", userName))}
		}
		return []line.TextMessage{line.NewText(constants.ReplyUnknownName)}

	case intents.NameStatement:
		if intents.Name == "" {
			return []line.TextMessage{line.NewText(constants.ReplyNameMissing)}
		}
		if err := o.repo.SetUserName(ctx, uid, intents.Name); err != nil {
			o.logger.Error("Failed to store user name", zap.String("uid", uid), zap.Error(err))
			return []line.TextMessage{line.NewText(constants.ReplyDegraded)}
		}
		return []line.TextMessage{line.NewText(fmt.Sprintf("ขอบคุณที่แนะนำตัวครับ %s", intents.Name))}
	}

	return nil
}

// answerNameParaphrase answers "what's my name" phrasings that the token
// rules missed, but only when a name is actually stored
func (o *Orchestrator) answerNameParaphrase(ctx context.Context, msg, userName string) (line.TextMessage, bool) {
	if userName == "" {
		return line.TextMessage{}, false
	}
	similar, err := o.matcher.Similar(ctx, msg, nameQuestions, o.opts.NameThreshold)
	if err != nil {
		o.logger.Debug("Name paraphrase check failed", zap.Error(err))
		return line.TextMessage{}, false
	}
	if !similar {
		return line.TextMessage{}, false
	}
	return line.NewText(fmt.Sprintf("ชื่อของคุณคือ %s ครับ", userName)), true
}

// ============================================================================
// Menu / search sub-flow
// ============================================================================

var menuOptions = []line.QuickOption{
	{Label: "ไม้นวดแป้ง", Text: "ค้นหา ไม้นวดแป้ง"},
	{Label: "แป้งทำขนม", Text: "ค้นหา แป้งทำขนม"},
	{Label: "กล่อง", Text: "ค้นหา กล่อง"},
}

var showAllOption = []line.QuickOption{{Label: "All", Text: "All"}}

func (o *Orchestrator) runCatalogRules(ctx context.Context, uid string, intents Intents) []line.TextMessage {
	var replies []line.TextMessage

	if intents.Menu {
		replies = append(replies, line.NewTextWithQuickReplies(constants.ReplyMenuPrompt, menuOptions))
	}

	if intents.Search && intents.SearchTerm != "" {
		o.sessions.SetSearchTerm(uid, intents.SearchTerm)
		replies = append(replies, line.NewTextWithQuickReplies(constants.ReplyAskBudget, showAllOption))
	}

	// Budget and show-all only act on a pending search; otherwise the
	// phrasing falls through to the knowledge path
	state := o.sessions.Get(uid)

	if intents.Budget && state.SearchTerm != "" {
		budget, err := strconv.ParseFloat(utils.ExtractDigits(intents.BudgetText), 64)
		if err != nil {
			replies = append(replies, line.NewText(constants.ReplyAskBudget))
		} else {
			o.sessions.SetPriceCap(uid, budget)
			replies = append(replies, o.searchCatalog(ctx, uid, state.SearchTerm))
		}
	}

	if intents.ShowAll && state.SearchTerm != "" {
		o.sessions.ClearBudget(uid)
		replies = append(replies, o.searchCatalog(ctx, uid, state.SearchTerm))
	}

	return replies
}

// searchCatalog runs the external product lookup and formats up to five
// listings, filtered to strictly under the session's stated budget when one
// is set. A stated budget of 0 filters everything out rather than showing all
func (o *Orchestrator) searchCatalog(ctx context.Context, uid, term string) line.TextMessage {
	listings, err := o.catalog.Search(ctx, term)
	if err != nil {
		o.logger.Error("Catalog search failed",
			zap.String("uid", uid),
			zap.String("term", term),
			zap.Error(err),
		)
		return line.NewText(constants.ReplyNoProducts)
	}

	state := o.sessions.Get(uid)

	var lines []string
	for _, item := range listings {
		if !item.HasPrice {
			continue
		}
		if state.HasCap && item.PriceValue >= state.PriceCap {
			continue
		}
		lines = append(lines, fmt.Sprintf("• ชื่อสินค้า: %s\n  ราคา: %s\n  ลิงค์: %s\n", item.Title, item.Price, item.Link))
	}

	if len(lines) == 0 {
		return line.NewText(constants.ReplyNoProducts)
	}

	text := strings.Join(lines, "\n\n")
	if state.HasCap {
		// Filtered views keep the show-all escape hatch
		return line.NewTextWithQuickReplies(text, showAllOption)
	}
	return line.NewText(text)
}

// ============================================================================
// Knowledge path: cache first, then fallback with write-back
// ============================================================================

func (o *Orchestrator) answerFromKnowledge(ctx context.Context, uid, msg, userName string) line.TextMessage {
	entries, err := o.loadCorpusSnapshot(ctx)
	if err != nil {
		// Reads degrade to "no match"; the fallback still gets a shot
		o.logger.Warn("Corpus load failed, forcing fallback", zap.Error(err))
		return o.answerFromFallback(ctx, uid, msg, userName)
	}

	questions := make([]string, len(entries))
	replyFor := make(map[string]string, len(entries))
	for i, entry := range entries {
		questions[i] = entry.Question
		replyFor[entry.Question] = entry.Reply
	}

	match, err := o.matcher.Match(ctx, msg, questions)
	switch {
	case err == matcher.ErrEmptyCorpus:
		return o.answerFromFallback(ctx, uid, msg, userName)
	case err != nil:
		// Embedding backend down: the cache cannot be evaluated this turn
		o.logger.Warn("Similarity match unavailable, forcing fallback", zap.Error(err))
		return o.answerFromFallback(ctx, uid, msg, userName)
	}

	if match.Score <= o.opts.SimilarityThreshold {
		o.logger.Debug("Cache miss",
			zap.String("query", msg),
			zap.String("nearest", match.Question),
			zap.Float64("score", match.Score),
			zap.Float64("threshold", o.opts.SimilarityThreshold),
		)
		return o.answerFromFallback(ctx, uid, msg, userName)
	}

	reply, err := o.repo.LookupReply(ctx, match.Question)
	if err != nil {
		// The snapshot already carries the reply; a read hiccup on the
		// exact-key round trip should not cost a fallback call
		o.logger.Warn("Exact-key lookup failed, using snapshot reply", zap.Error(err))
		reply = replyFor[match.Question]
	}

	o.logger.Info("Cache hit",
		zap.String("uid", uid),
		zap.String("matched", match.Question),
		zap.Float64("score", match.Score),
	)

	o.logTurn(uid, msg, reply)
	return line.NewText(reply + constants.PoliteSuffix)
}

func (o *Orchestrator) answerFromFallback(ctx context.Context, uid, msg, userName string) line.TextMessage {
	// An identical utterance may already have a logged answer; reuse it
	// rather than paying for another generation
	if prev, err := o.repo.CheckPreviousQuestion(ctx, msg); err == nil && prev != "" {
		o.logTurn(uid, msg, prev)
		return line.NewText(prev + constants.PoliteSuffix)
	}

	generated, err := o.gen.Generate(ctx, msg, userName)
	if err != nil {
		o.logger.Error("Fallback generation failed",
			zap.String("uid", uid),
			zap.Bool("retryable", errors.IsRetryable(err)),
			zap.Error(err),
		)
		// Failed generations are never cached
		return line.NewText(constants.ReplyDegraded)
	}

	// Write-back so the next similar question hits the cache. Best effort:
	// the user already has their answer either way
	if err := o.repo.WriteEntry(ctx, msg, generated, graph.CategoryGeneral); err != nil {
		o.logger.Error("Write-back failed", zap.String("question", msg), zap.Error(err))
	}
	if err := o.repo.LinkAnswer(ctx, msg, generated); err != nil {
		o.logger.Error("Answer link failed", zap.String("question", msg), zap.Error(err))
	}

	o.logTurn(uid, msg, generated)
	return line.NewText(generated + constants.PoliteSuffix)
}

// loadCorpusSnapshot reads the whole corpus once per concurrent burst.
// Entries written later in the same turn are invisible to it, so a turn
// can never match its own write-back
func (o *Orchestrator) loadCorpusSnapshot(ctx context.Context) ([]graph.KnowledgeEntry, error) {
	result, err, _ := o.corpusGroup.Do("corpus", func() (interface{}, error) {
		return o.repo.LoadCorpus(ctx, "")
	})
	if err != nil {
		return nil, err
	}
	return result.([]graph.KnowledgeEntry), nil
}

// logTurn appends the chat history and the secondary response log without
// holding up the reply: failures are logged and swallowed
func (o *Orchestrator) logTurn(uid, msg, reply string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := o.repo.AppendChatEvent(ctx, uid, msg, reply); err != nil {
			o.logger.Warn("Chat history write failed", zap.String("uid", uid), zap.Error(err))
		}
		if err := o.repo.SaveResponseLog(ctx, uid, msg, reply); err != nil {
			o.logger.Warn("Response log write failed", zap.String("uid", uid), zap.Error(err))
		}
	}()
}
