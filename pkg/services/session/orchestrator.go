package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/de-tools/report-assistant/pkg/adapters"
	"github.com/de-tools/report-assistant/pkg/models/api"
	"github.com/de-tools/report-assistant/pkg/models/domain"
	"github.com/de-tools/report-assistant/pkg/models/store"
	"github.com/de-tools/report-assistant/pkg/services/filter"
	"github.com/de-tools/report-assistant/pkg/services/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// GreetingMessage opens the backend conversation and yields its session id.
	GreetingMessage = "Hello"

	DefaultForecastTimeout = 60 * time.Second

	initErrorText   = "Sorry, there was an error connecting to the assistant. Please retry."
	reportErrorText = "Sorry, there was an error generating the report. Please try again."
	chatErrorText   = "Sorry, there was an error processing your message. Please try again."
)

type Dependencies struct {
	Chat       ChatAPI
	Reports    ReportAPI
	Forecast   ForecastAPI
	Storage    ClientStorage
	History    ReportHistory
	Compiler   *filter.Compiler
	Classifier *report.Classifier
	URLs       report.URLBuilder

	ForecastTimeout time.Duration
	NewID           func() string
	Now             func() time.Time
}

// Orchestrator drives one chat session through initialization, parameter
// submission and filter-triggered regeneration. It is safe for concurrent
// use; backend calls are made without holding the lock.
type Orchestrator struct {
	deps Dependencies

	mu         sync.Mutex
	user       domain.User
	session    domain.Session
	state      domain.SessionState
	filters    domain.FilterSet
	fragments  domain.CompiledQueryFragments
	params     *domain.ReportParameters
	messages   []domain.Message
	lastResult *domain.ReportOutcome

	// epoch invalidates responses belonging to a replaced session; seq
	// invalidates report responses superseded by a later request.
	epoch           uint64
	seq             uint64
	forecastStarted bool

	tasks sync.WaitGroup
}

func NewOrchestrator(deps Dependencies) (*Orchestrator, error) {
	if deps.Chat == nil || deps.Reports == nil {
		return nil, fmt.Errorf("chat and report collaborators are required")
	}
	if deps.Compiler == nil {
		deps.Compiler = filter.NewCompiler(filter.DefaultTables())
	}
	if deps.Classifier == nil {
		deps.Classifier = report.NewClassifier(deps.URLs)
	}
	if deps.ForecastTimeout == 0 {
		deps.ForecastTimeout = DefaultForecastTimeout
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Orchestrator{
		deps:    deps,
		state:   domain.StateUninitialized,
		filters: domain.NewFilterSet(),
	}, nil
}

// Start begins a new session for user, discarding everything from the
// previous one, and runs the greeting round-trip.
func (o *Orchestrator) Start(ctx context.Context, user domain.User) View {
	o.mu.Lock()
	o.epoch++
	o.seq++
	o.user = user
	o.state = domain.StateUninitialized
	o.messages = nil
	o.filters = domain.NewFilterSet()
	o.fragments = domain.CompiledQueryFragments{}
	o.params = nil
	o.lastResult = nil
	o.forecastStarted = false
	o.session = domain.Session{
		UserName:  user.Name,
		UserID:    user.ID,
		SessionID: o.deps.NewID(),
	}
	o.state = domain.StateInitializing
	epoch := o.epoch
	o.mu.Unlock()

	o.initialize(ctx, epoch)
	return o.Snapshot()
}

// Retry re-runs the greeting round-trip after a failed initialization.
func (o *Orchestrator) Retry(ctx context.Context) (View, error) {
	o.mu.Lock()
	if o.state != domain.StateError {
		state := o.state
		o.mu.Unlock()
		return View{}, fmt.Errorf("retry in state %s: %w", state, ErrInvalidState)
	}
	o.state = domain.StateInitializing
	epoch := o.epoch
	o.mu.Unlock()

	o.initialize(ctx, epoch)
	return o.Snapshot(), nil
}

func (o *Orchestrator) initialize(ctx context.Context, epoch uint64) {
	logger := zerolog.Ctx(ctx)

	o.mu.Lock()
	userName := o.user.Name
	o.mu.Unlock()

	greeting, err := o.deps.Chat.Chat(ctx, api.ChatRequest{UserMessage: GreetingMessage})
	if err == nil && greeting.SessionID == "" {
		err = fmt.Errorf("greeting response carried no session id")
	}
	if err != nil {
		logger.Error().Err(err).Msg("session initialization failed")
		o.failInit(epoch)
		return
	}

	intro, err := o.deps.Chat.Chat(ctx, api.ChatRequest{
		SessionID:   greeting.SessionID,
		UserMessage: userName,
	})
	if err != nil {
		logger.Error().Err(err).Msg("session initialization failed")
		o.failInit(epoch)
		return
	}

	o.mu.Lock()
	if epoch != o.epoch {
		o.mu.Unlock()
		logger.Debug().Msg("dropping initialization of a replaced session")
		return
	}
	o.session.APISessionID = greeting.SessionID
	if intro.SessionID != "" {
		o.session.APISessionID = intro.SessionID
	}
	o.state = domain.StateAwaitingParameters
	o.appendBotLocked(greeting.Reply, domain.ReportOutcome{})
	o.appendBotLocked(intro.Reply, domain.ReportOutcome{})
	sess := o.session
	o.mu.Unlock()

	logger.Info().
		Str("session_id", sess.SessionID).
		Str("api_session_id", sess.APISessionID).
		Msg("session initialized")

	if o.deps.Storage != nil {
		if err := o.deps.Storage.SaveSession(ctx, sess.APISessionID, sess.UserName); err != nil {
			logger.Warn().Err(err).Msg("failed to persist session keys")
		}
	}
}

func (o *Orchestrator) failInit(epoch uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if epoch != o.epoch {
		return
	}
	o.state = domain.StateError
	o.appendLocked(domain.Message{Role: domain.RoleSystem, Text: initErrorText, IsError: true})
}

// SubmitParameters snapshots the parameter form and generates the report
// with the current filters. Chat becomes available once it succeeds.
func (o *Orchestrator) SubmitParameters(ctx context.Context, params domain.ReportParameters) (View, error) {
	o.mu.Lock()
	if o.state != domain.StateAwaitingParameters && o.state != domain.StateParametersSubmitted {
		state := o.state
		o.mu.Unlock()
		return View{}, fmt.Errorf("submit parameters in state %s: %w", state, ErrInvalidState)
	}
	snapshot := cloneParams(params)
	o.params = &snapshot
	o.fragments = o.deps.Compiler.Compile(ctx, o.filters)
	pending := o.reportRequestLocked(snapshot, nil)
	o.mu.Unlock()

	o.generate(ctx, pending)
	return o.Snapshot(), nil
}

// UpdateFilters replaces the filter set. Once parameters are submitted this
// triggers exactly one regeneration carrying the recompiled fragments.
func (o *Orchestrator) UpdateFilters(ctx context.Context, fs domain.FilterSet, chatMessage string) View {
	o.mu.Lock()
	o.filters = fs.Clone()
	o.fragments = o.deps.Compiler.Compile(ctx, o.filters)
	var pending *reportRequest
	if o.state == domain.StateParametersSubmitted && o.params != nil {
		msg := strings.TrimSpace(chatMessage)
		pending = o.reportRequestLocked(*o.params, &msg)
	}
	o.mu.Unlock()

	if pending != nil {
		o.generate(ctx, pending)
	}
	return o.Snapshot()
}

// ClearFilters replaces the filter set with an empty one.
func (o *Orchestrator) ClearFilters(ctx context.Context) View {
	return o.UpdateFilters(ctx, domain.NewFilterSet(), "")
}

// reportRequest is a report request built under the lock together with
// the counters that decide whether its response still applies.
type reportRequest struct {
	seq    uint64
	epoch  uint64
	params domain.ReportParameters
	req    api.ReportRequest
}

func (o *Orchestrator) reportRequestLocked(params domain.ReportParameters, chatMessage *string) *reportRequest {
	o.seq++
	return &reportRequest{
		seq:    o.seq,
		epoch:  o.epoch,
		params: params,
		req:    adapters.MapDomainReportRequestToAPI(o.session, params, o.filters, o.fragments, chatMessage),
	}
}

// generate issues a report request and applies its response only if no
// later request was issued in the meantime.
func (o *Orchestrator) generate(ctx context.Context, pending *reportRequest) {
	logger := zerolog.Ctx(ctx)
	seq, epoch, params := pending.seq, pending.epoch, pending.params

	resp, err := o.deps.Reports.GenerateReport(ctx, pending.req)

	o.mu.Lock()
	if epoch != o.epoch || seq != o.seq || o.params == nil {
		o.mu.Unlock()
		logger.Debug().Uint64("request", seq).Msg("dropping superseded report response")
		return
	}
	if err != nil {
		o.appendLocked(domain.Message{Role: domain.RoleBot, Text: reportErrorText, IsError: true})
		o.mu.Unlock()
		logger.Error().Err(err).Uint64("request", seq).Msg("report generation failed")
		return
	}

	backend := adapters.MapAPIResponseToDomain(resp)
	if backend.SessionID != "" {
		o.session.APISessionID = backend.SessionID
	}
	outcome := o.deps.Classifier.Outcome(backend, o.locationLocked())
	o.lastResult = &outcome
	o.state = domain.StateParametersSubmitted
	o.appendBotLocked(outcome.Detection.Message, outcome)

	startForecast := outcome.SignalsReport() && !o.forecastStarted
	if startForecast {
		o.forecastStarted = true
	}
	sess := o.session
	o.mu.Unlock()

	logger.Info().
		Uint64("request", seq).
		Str("kind", string(backend.Kind)).
		Bool("has_report", outcome.Detection.HasReport).
		Int("rows", len(outcome.Rows)).
		Msg("report generated")

	o.recordHistory(ctx, sess, outcome.Detection)
	if startForecast {
		o.initForecast(ctx, sess, params)
	}
}

// SendChat sends a free-text turn to the assistant.
func (o *Orchestrator) SendChat(ctx context.Context, text string) (View, error) {
	logger := zerolog.Ctx(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return View{}, ErrEmptyMessage
	}

	o.mu.Lock()
	if !o.state.ChatEnabled() {
		o.mu.Unlock()
		return View{}, ErrChatDisabled
	}
	o.appendLocked(domain.Message{Role: domain.RoleUser, Text: text})
	epoch := o.epoch
	req := api.ChatRequest{
		SessionID:   o.session.APISessionID,
		UserMessage: text,
	}
	if o.params != nil {
		req.ReportName = o.params.ReportName
	}
	o.mu.Unlock()

	resp, err := o.deps.Chat.Chat(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	if epoch != o.epoch {
		return o.snapshotLocked(), nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("chat request failed")
		o.appendLocked(domain.Message{Role: domain.RoleBot, Text: chatErrorText, IsError: true})
		return o.snapshotLocked(), nil
	}
	if resp.SessionID != "" {
		o.session.APISessionID = resp.SessionID
	}
	backend := adapters.MapChatResponseToDomain(resp)
	outcome := o.deps.Classifier.Outcome(backend, o.locationLocked())
	o.appendBotLocked(outcome.Detection.Message, outcome)
	return o.snapshotLocked(), nil
}

// ClearChat wipes the message history and lets parameters be submitted
// again. The backend session id is kept.
func (o *Orchestrator) ClearChat() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.seq++
	o.messages = nil
	o.params = nil
	o.lastResult = nil
	if o.state == domain.StateParametersSubmitted {
		o.state = domain.StateAwaitingParameters
	}
	return o.snapshotLocked()
}

func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Wait blocks until detached side effects have finished.
func (o *Orchestrator) Wait() {
	o.tasks.Wait()
}

func (o *Orchestrator) initForecast(ctx context.Context, sess domain.Session, params domain.ReportParameters) {
	if o.deps.Forecast == nil {
		return
	}
	logger := zerolog.Ctx(ctx).With().Str("session_id", sess.ReportSessionID()).Logger()
	detached := logger.WithContext(context.WithoutCancel(ctx))
	req := api.ForecastInitRequest{
		UserID:     sess.UserID,
		SessionID:  sess.ReportSessionID(),
		BudgetYear: params.BudgetYear(),
	}

	o.tasks.Add(1)
	go func() {
		defer o.tasks.Done()

		ctx, cancel := context.WithTimeout(detached, o.deps.ForecastTimeout)
		defer cancel()

		if err := o.deps.Forecast.InitForecast(ctx, req); err != nil {
			logger.Warn().Err(err).Msg("forecast workspace initialization failed")
			return
		}
		logger.Info().Int("budget_year", req.BudgetYear).Msg("forecast workspace initialized")
	}()
}

func (o *Orchestrator) recordHistory(ctx context.Context, sess domain.Session, d domain.ReportDetectionResult) {
	if o.deps.History == nil || !d.HasReport {
		return
	}
	err := o.deps.History.Add(ctx, store.ReportRecord{
		SessionID: sess.ReportSessionID(),
		UserName:  sess.UserName,
		Filename:  *d.Filename,
		ReportURL: *d.ReportURL,
		Message:   d.Message,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to record report history")
	}
}

func (o *Orchestrator) locationLocked() report.Location {
	return report.Location{
		UserName:  o.session.UserName,
		SessionID: o.session.ReportSessionID(),
	}
}

// appendBotLocked adds a bot message unless it is empty or a suppressed
// backend artifact.
func (o *Orchestrator) appendBotLocked(text string, outcome domain.ReportOutcome) {
	if report.IsSuppressed(text) {
		return
	}
	if strings.TrimSpace(text) == "" && len(outcome.Rows) == 0 {
		return
	}
	msg := domain.Message{Role: domain.RoleBot, Text: text, Rows: outcome.Rows}
	if outcome.Detection.HasReport {
		msg.ReportURL = *outcome.Detection.ReportURL
		msg.Filename = *outcome.Detection.Filename
	}
	o.appendLocked(msg)
}

func (o *Orchestrator) appendLocked(msg domain.Message) {
	msg.ID = o.deps.NewID()
	msg.CreatedAt = o.deps.Now()
	o.messages = append(o.messages, msg)
}

func cloneParams(p domain.ReportParameters) domain.ReportParameters {
	return domain.ReportParameters{
		BudgetYears:          append([]int(nil), p.BudgetYears...),
		FundCodes:            append([]string(nil), p.FundCodes...),
		DeptIDs:              append([]string(nil), p.DeptIDs...),
		ReportName:           p.ReportName,
		MeasuresRequestedRev: append([]string(nil), p.MeasuresRequestedRev...),
		MeasuresRequestedExp: append([]string(nil), p.MeasuresRequestedExp...),
	}
}
