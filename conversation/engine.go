package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/coverbridge/salesagent/config"
	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/lead"
	"github.com/coverbridge/salesagent/message"
	"github.com/coverbridge/salesagent/pkg/logging"
	"github.com/coverbridge/salesagent/pkg/telemetry"
	"github.com/coverbridge/salesagent/prompt"
	"github.com/coverbridge/salesagent/provider"
	"github.com/coverbridge/salesagent/rag/retriever"
	"github.com/coverbridge/salesagent/session"
)

// Searcher is the slice of the retriever the engine needs.
type Searcher interface {
	Retrieve(ctx context.Context, query string, hints retriever.QueryHints) ([]retriever.Result, error)
}

// stageGeneration maps each stage to its generation tuning. Earlier
// stages run warmer and shorter; collection runs cool and terse.
var stageGeneration = map[session.Stage]provider.GenerateOptions{
	session.StageGreeting:              {Temperature: 0.8, MaxTokens: 150},
	session.StageQualification:         {Temperature: 0.6, MaxTokens: 200},
	session.StageInformation:           {Temperature: 0.7, MaxTokens: 600},
	session.StageInformationCollection: {Temperature: 0.5, MaxTokens: 200},
	session.StageObjectionHandling:     {Temperature: 0.7, MaxTokens: 300},
	session.StageClosing:               {Temperature: 0.6, MaxTokens: 150},
}

var defaultGeneration = provider.GenerateOptions{Temperature: 0.7, MaxTokens: 500}

// StageGeneration returns the generation options for a stage.
func StageGeneration(stage session.Stage) provider.GenerateOptions {
	if opts, ok := stageGeneration[stage]; ok {
		return opts
	}
	return defaultGeneration
}

// TurnResult is what one processed customer message produces.
type TurnResult struct {
	SessionID string
	Reply     string
	Stage     session.Stage
	Interest  session.InterestLevel
}

// Config holds engine tuning.
type Config struct {
	// HistoryWindow bounds the in-context message history; older
	// messages fold into the rolling summary.
	HistoryWindow int
	// GenerateTimeout bounds one generation call.
	GenerateTimeout time.Duration
	// GenerateRetries bounds retry attempts after the first call.
	GenerateRetries uint

	Limits  Limits
	Weights ScorerWeights
}

// DefaultConfig returns the stock engine tuning.
func DefaultConfig() Config {
	return Config{
		HistoryWindow:   50,
		GenerateTimeout: 30 * time.Second,
		GenerateRetries: 1,
		Limits:          DefaultLimits(),
		Weights:         DefaultScorerWeights(),
	}
}

// Option customizes the engine.
type Option func(*Config)

// WithHistoryWindow sets the bounded history size.
func WithHistoryWindow(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.HistoryWindow = n
		}
	}
}

// WithGenerateTimeout sets the per-call generation timeout.
func WithGenerateTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.GenerateTimeout = d
		}
	}
}

// WithGenerateRetries sets how many times a failed generation is retried.
func WithGenerateRetries(n uint) Option {
	return func(cfg *Config) {
		cfg.GenerateRetries = n
	}
}

// WithLimits sets the state machine tuning.
func WithLimits(limits Limits) Option {
	return func(cfg *Config) {
		cfg.Limits = limits
	}
}

// WithScorerWeights sets the interest scoring tuning.
func WithScorerWeights(weights ScorerWeights) Option {
	return func(cfg *Config) {
		cfg.Weights = weights
	}
}

// Engine drives conversations: it owns per-session turn processing,
// stage transitions, retrieval-grounded generation, and lead handoff.
type Engine struct {
	sessions   *session.Manager
	machine    *Machine
	classifier *Classifier
	scorer     *Scorer
	retriever  Searcher
	generator  provider.Generator
	prompts    *prompt.Library
	leads      lead.Sink
	cfg        Config
	logger     *slog.Logger
}

// NewEngine wires the conversation engine. The retriever and lead sink
// may be nil; retrieval grounding and lead handoff are then skipped.
func NewEngine(
	sessions *session.Manager,
	generator provider.Generator,
	prompts *prompt.Library,
	searcher Searcher,
	leads lead.Sink,
	opts ...Option,
) (*Engine, error) {
	if sessions == nil {
		return nil, fmt.Errorf("engine requires a session manager")
	}
	if generator == nil {
		return nil, fmt.Errorf("engine requires a generator")
	}
	if prompts == nil {
		return nil, fmt.Errorf("engine requires a prompt library")
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := config.ValidateEngineConfig(cfg.HistoryWindow, int(cfg.GenerateTimeout/time.Second)); err != nil {
		return nil, fmt.Errorf("engine configuration: %w", err)
	}

	return &Engine{
		sessions:   sessions,
		machine:    NewMachine(cfg.Limits),
		classifier: NewClassifier(),
		scorer:     NewScorer(cfg.Weights),
		retriever:  searcher,
		generator:  generator,
		prompts:    prompts,
		leads:      leads,
		cfg:        cfg,
		logger:     logging.WithComponent("conversation.engine"),
	}, nil
}

// StartSession creates a session at the greeting stage and returns its
// ID together with the opening message.
func (e *Engine) StartSession(ctx context.Context) (string, string, error) {
	rec, err := e.sessions.Create(ctx)
	if err != nil {
		return "", "", err
	}

	welcome := e.prompts.WelcomeMessage(time.Now())
	rec.History = append(rec.History, message.NewMessage(message.RoleAssistant, welcome))
	if err := e.sessions.Save(ctx, rec); err != nil {
		return "", "", err
	}
	return rec.ID, welcome, nil
}

// ProcessTurn handles one customer message. Turns for the same session
// are serialized; a turn only mutates state when it completes. Retrying
// with the same idempotency token replays the previous reply without
// reapplying any state change.
func (e *Engine) ProcessTurn(ctx context.Context, sessionID, idempotencyToken, messageText string) (result *TurnResult, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "conversation.ProcessTurn",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer func() { telemetry.End(span, err) }()

	unlock := e.sessions.Lock(sessionID)
	defer unlock()

	rec, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if rec.Stage.Terminal() {
		return nil, fmt.Errorf("session %s: %w", sessionID, agerrors.ErrSessionEnded)
	}

	if idempotencyToken != "" && idempotencyToken == rec.LastToken {
		// Duplicate delivery of a turn already applied; replay the reply.
		return &TurnResult{
			SessionID: rec.ID,
			Reply:     rec.LastReply,
			Stage:     rec.Stage,
			Interest:  rec.Interest,
		}, nil
	}

	sanitized := Sanitize(messageText)
	if sanitized == "" {
		return nil, fmt.Errorf("empty message: %w", agerrors.ErrInvalidInput)
	}

	preStage := rec.Stage
	intent := e.classifier.Classify(sanitized)
	exit := IsExitSignal(sanitized)

	extracted := Extract(sanitized)
	extracted.ApplyToProfile(rec)
	if preStage == session.StageInformationCollection {
		extracted.ApplyToCollected(rec)
		applyPolicySelection(rec, sanitized)
	}
	e.trackEvasion(rec, preStage, extracted)
	e.trackObjections(rec, preStage, intent)

	interest := e.scorer.Score(rec, sanitized)
	sig := Signal{Intent: intent, Interest: interest, Exit: exit}

	nextStage, terr := e.machine.Transition(rec, sig)
	if terr != nil {
		// Inconsistent event; log and hold the stage rather than corrupt it.
		e.logger.Warn("transition rejected",
			"session_id", rec.ID, "stage", rec.Stage, "error", terr)
		nextStage = rec.Stage
	}

	vague := intent.Kind == IntentAmbiguous && extracted == (Extracted{})
	reply, generated, gerr := e.produceReply(ctx, rec, sanitized, intent, exit, vague, nextStage)
	if gerr != nil {
		// Generation failed after retries: emit the stage fallback and
		// preserve all state so the customer can simply try again.
		e.logger.Warn("generation failed, emitting fallback",
			"session_id", rec.ID, "stage", preStage, "error", gerr)
		return &TurnResult{
			SessionID: rec.ID,
			Reply:     FallbackReply(preStage),
			Stage:     preStage,
			Interest:  rec.Interest,
		}, nil
	}
	if generated {
		reply = prompt.FilterResponse(reply)
	}

	// Turn succeeded: apply all state mutations now, at most one stage
	// change included.
	rec.History = append(rec.History,
		message.NewMessage(message.RoleCustomer, sanitized),
		message.NewMessage(message.RoleAssistant, reply))
	e.foldHistory(ctx, rec)

	if exit && preStage == session.StageInformationCollection {
		// Partial contact details are never kept after a mid-collection exit.
		rec.Collected = session.CollectedData{}
	}

	rec.Stage = nextStage
	rec.Interest = interest
	rec.TurnCount++
	rec.LastToken = idempotencyToken
	rec.LastReply = reply

	if nextStage == session.StageClosing && preStage == session.StageInformationCollection {
		e.emitLead(ctx, rec)
	}
	if nextStage.Terminal() {
		e.finalize(ctx, rec)
	}

	if err := e.sessions.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	e.logger.Info("turn processed",
		"session_id", rec.ID,
		"stage", nextStage,
		"interest", interest,
		"intent", intent.Kind)

	return &TurnResult{
		SessionID: rec.ID,
		Reply:     reply,
		Stage:     nextStage,
		Interest:  interest,
	}, nil
}

// EndSession forces a session to the terminal stage, finalizing its
// summary. Reason is recorded in the log only.
func (e *Engine) EndSession(ctx context.Context, sessionID, reason string) error {
	unlock := e.sessions.Lock(sessionID)
	defer unlock()

	rec, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if rec.Stage.Terminal() {
		return nil
	}

	rec.Stage = session.StageEnded
	e.finalize(ctx, rec)
	if err := e.sessions.Save(ctx, rec); err != nil {
		return err
	}
	e.logger.Info("session ended", "session_id", sessionID, "reason", reason)
	return nil
}

// Summary returns the session's rolling summary, generating a final one
// if the conversation has ended without one.
func (e *Engine) Summary(ctx context.Context, sessionID string) (string, error) {
	rec, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if rec.Summary != "" {
		return rec.Summary, nil
	}
	return e.summarize(ctx, rec.History)
}

// produceReply picks the reply path for the turn: canned exit message,
// templated rebuttal, or retrieval-grounded generation. The bool result
// reports whether the reply came from the generator and needs filtering.
func (e *Engine) produceReply(ctx context.Context, rec *session.Record, msg string, intent Intent, exit, vague bool, nextStage session.Stage) (string, bool, error) {
	if exit {
		return e.prompts.ExitMessage("not_interested"), false, nil
	}

	// Known objection categories get the curated rebuttal, but only the
	// first time; a repeat gets a generated, non-verbatim response.
	if intent.Kind == IntentObjection && intent.ObjectionTag != "" && rec.Objections[intent.ObjectionTag] == 1 {
		return e.prompts.ObjectionResponse(intent.ObjectionTag), false, nil
	}

	// A vague message that volunteered nothing makes a poor retrieval
	// query; ask the customer to narrow it down instead.
	if vague && (nextStage == session.StageInformation || nextStage == session.StageObjectionHandling) {
		return ClarifyReply, false, nil
	}

	policyContext, noMatch := e.retrieve(ctx, rec, msg, nextStage)
	if noMatch && intent.Kind == IntentQuestion {
		return NoMatchReply, false, nil
	}

	systemPrompt, err := e.prompts.SystemPrompt(string(nextStage), e.profileSummary(rec), policyContext)
	if err != nil {
		return "", false, err
	}

	msgs := make([]*message.Message, 0, len(rec.History)+3)
	msgs = append(msgs, message.NewMessage(message.RoleSystem, systemPrompt))
	if rec.Summary != "" {
		msgs = append(msgs, message.NewMessage(message.RoleSystem, "Earlier conversation summary: "+rec.Summary))
	}
	msgs = append(msgs, rec.History...)
	msgs = append(msgs, message.NewMessage(message.RoleCustomer, msg))

	reply, err := e.generate(ctx, msgs, StageGeneration(nextStage))
	if err != nil {
		return "", false, err
	}
	return reply, true, nil
}

// retrieve fetches grounding passages for informational turns. It
// returns the formatted context and whether retrieval came back empty.
func (e *Engine) retrieve(ctx context.Context, rec *session.Record, msg string, stage session.Stage) (string, bool) {
	if e.retriever == nil {
		return "", false
	}
	if stage != session.StageInformation && stage != session.StageObjectionHandling {
		return "", false
	}

	results, err := e.retriever.Retrieve(ctx, msg, retriever.QueryHints{
		Age:        rec.Profile.Age,
		Purpose:    rec.Profile.Purpose,
		Dependents: rec.Profile.Dependents,
	})
	if err != nil {
		e.logger.Warn("retrieval failed, generating ungrounded",
			"session_id", rec.ID, "error", err)
		return "", false
	}
	if len(results) == 0 {
		return "", true
	}

	var sb strings.Builder
	for _, res := range results {
		fmt.Fprintf(&sb, "[%s] %s\n", res.Policy.PolicyName, res.Text)
		rec.PoliciesDiscussed = appendUnique(rec.PoliciesDiscussed, res.Policy.PolicyName)
	}
	return sb.String(), false
}

// generate calls the provider with timeout and bounded backoff retry.
func (e *Engine) generate(ctx context.Context, msgs []*message.Message, opts provider.GenerateOptions) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond

	reply, err := backoff.Retry(ctx, func() (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.cfg.GenerateTimeout)
		defer cancel()

		out, genErr := e.generator.Generate(callCtx, msgs, opts)
		if genErr != nil {
			if errors.Is(genErr, context.DeadlineExceeded) {
				genErr = fmt.Errorf("%w: %v", agerrors.ErrGenerationTimeout, genErr)
			}
			return "", genErr
		}
		if out == nil || strings.TrimSpace(out.Content) == "" {
			return "", fmt.Errorf("empty generation: %w", agerrors.ErrGeneration)
		}
		return out.Content, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(e.cfg.GenerateRetries+1))
	if err != nil {
		return "", err
	}
	return reply, nil
}

// trackEvasion counts consecutive qualification turns that yield no new
// profile facts; the machine uses the count to stop interrogating.
func (e *Engine) trackEvasion(rec *session.Record, stage session.Stage, extracted Extracted) {
	if stage != session.StageQualification {
		return
	}
	gotFacts := extracted.Age > 0 || extracted.Purpose != "" || extracted.Dependents != ""
	if gotFacts {
		delete(rec.EvasionCounts, "qualification")
		return
	}
	rec.EvasionCounts["qualification"]++
}

// trackObjections updates the per-tag objection counters, and marks
// previously raised tags resolved when an objection-handling turn comes
// back without a new objection.
func (e *Engine) trackObjections(rec *session.Record, stage session.Stage, intent Intent) {
	if intent.Kind == IntentObjection && intent.ObjectionTag != "" {
		rec.Objections[intent.ObjectionTag]++
		return
	}
	if stage == session.StageObjectionHandling {
		for tag := range rec.Objections {
			rec.ResolvedObjections[tag] = true
		}
	}
}

// emitLead validates the collected data and hands it to the lead sink
// exactly once per session.
func (e *Engine) emitLead(ctx context.Context, rec *session.Record) {
	if e.leads == nil || rec.LeadEmitted {
		return
	}

	candidate := lead.FromSession(rec)
	if res := lead.Validate(candidate); !res.Valid {
		e.logger.Warn("collected data failed validation, lead not emitted",
			"session_id", rec.ID, "errors", res.Errors)
		return
	}
	if err := e.leads.Emit(ctx, candidate); err != nil {
		e.logger.Error("lead handoff failed",
			"session_id", rec.ID, "error", err)
		return
	}
	rec.LeadEmitted = true
	e.logger.Info("lead emitted", "session_id", rec.ID, "interest", rec.Interest)
}

// finalize produces the terminal summary for an ended session.
func (e *Engine) finalize(ctx context.Context, rec *session.Record) {
	summary, err := e.summarize(ctx, rec.History)
	if err != nil {
		e.logger.Warn("summary generation failed", "session_id", rec.ID, "error", err)
		summary = "Conversation completed."
	}
	rec.Summary = summary
}

// foldHistory keeps the working window bounded: when history exceeds the
// window, older messages are folded into the rolling summary.
func (e *Engine) foldHistory(ctx context.Context, rec *session.Record) {
	window := e.cfg.HistoryWindow
	if window <= 0 || len(rec.History) <= window {
		return
	}

	evicted := rec.History[:len(rec.History)-window]
	rec.History = rec.History[len(rec.History)-window:]

	summary, err := e.summarize(ctx, evicted)
	if err != nil {
		e.logger.Warn("history fold summary failed", "session_id", rec.ID, "error", err)
		return
	}
	if rec.Summary != "" {
		rec.Summary = rec.Summary + " " + summary
	} else {
		rec.Summary = summary
	}
}

// summarize asks the generator for a short transcript summary.
func (e *Engine) summarize(ctx context.Context, msgs []*message.Message) (string, error) {
	if len(msgs) == 0 {
		return "Conversation completed.", nil
	}

	var sb strings.Builder
	sb.WriteString("Summarize this life insurance sales conversation in 2-3 sentences, covering the customer's needs, policies discussed, interest level, and outcome.\n\n")
	for _, m := range msgs {
		prefix := "Agent"
		if m.Role == message.RoleCustomer {
			prefix = "Customer"
		}
		fmt.Fprintf(&sb, "%s: %s\n", prefix, m.Content)
	}

	out, err := e.generator.Generate(ctx,
		[]*message.Message{message.NewMessage(message.RoleCustomer, sb.String())},
		provider.GenerateOptions{Temperature: 0.3, MaxTokens: 200})
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

func (e *Engine) profileSummary(rec *session.Record) string {
	var parts []string
	if rec.Profile.Name != "" {
		parts = append(parts, "Name: "+rec.Profile.Name)
	}
	if rec.Profile.Age > 0 {
		parts = append(parts, fmt.Sprintf("Age: %d", rec.Profile.Age))
	}
	if rec.Profile.Purpose != "" {
		parts = append(parts, "Purpose: "+rec.Profile.Purpose)
	}
	if rec.Profile.Dependents != "" {
		parts = append(parts, "Dependents: "+rec.Profile.Dependents)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}

// applyPolicySelection records which discussed policy the customer
// committed to. A full name match wins; otherwise a distinctive lead
// word counts when it identifies exactly one discussed policy.
func applyPolicySelection(rec *session.Record, msg string) {
	if rec.Collected.PolicyOfInterest != "" {
		return
	}
	lower := strings.ToLower(msg)

	for _, name := range rec.PoliciesDiscussed {
		if strings.Contains(lower, strings.ToLower(name)) {
			rec.Collected.PolicyOfInterest = name
			return
		}
	}

	var candidate string
	for _, name := range rec.PoliciesDiscussed {
		words := strings.Fields(strings.ToLower(name))
		if len(words) == 0 || len(words[0]) < 4 {
			continue
		}
		if strings.Contains(lower, words[0]) {
			if candidate != "" {
				return
			}
			candidate = name
		}
	}
	if candidate != "" {
		rec.Collected.PolicyOfInterest = candidate
	}
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
