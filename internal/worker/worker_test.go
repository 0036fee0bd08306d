package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/hrm/internal/domain"
	"github.com/shaiso/hrm/internal/events"
	"github.com/shaiso/hrm/internal/llm"
	"github.com/shaiso/hrm/internal/mq"
	"github.com/shaiso/hrm/internal/mq/mqtest"
	"github.com/shaiso/hrm/internal/repo"
	"github.com/shaiso/hrm/internal/storage"
)

// --- test helpers ---

// recordingHandler собирает записи логов вместе с атрибутами из With.
type recordingHandler struct {
	mu      *sync.Mutex
	records *[]map[string]any
	attrs   []slog.Attr
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{mu: &sync.Mutex{}, records: &[]map[string]any{}}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	rec := map[string]any{"msg": r.Message}
	for _, a := range h.attrs {
		rec[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	*h.records = append(*h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

func (h *recordingHandler) Records() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]map[string]any(nil), *h.records...)
}

type memoryRequests struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.WorkRequest
	err   error
	reads int
}

func (m *memoryRequests) GetByID(_ context.Context, id uuid.UUID) (*domain.WorkRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	wr, ok := m.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &wr, nil
}

type harness struct {
	ch       *mqtest.Channel
	ack      *mqtest.Acknowledger
	requests *memoryRequests
	stub     *llm.Stub
	logs     *recordingHandler
	worker   *Worker
	scopes   atomic.Int32
}

func newHarness(t *testing.T, policy string, sinks ...CompletionSink) *harness {
	t.Helper()

	h := &harness{
		ch:       mqtest.NewChannel(10),
		ack:      mqtest.NewAcknowledger(),
		requests: &memoryRequests{items: map[uuid.UUID]domain.WorkRequest{}},
		stub: llm.NewStub().
			On("sequential plan", "1. create accounts").
			On("Execute the following", "accounts created"),
		logs: newRecordingHandler(),
	}

	factory := NewScopeFactory(func() WorkRequestReader { return h.requests }, h.stub)

	h.worker = New(Config{
		Channels: h.ch,
		Topology: mq.Topology{Exchange: "hrm.events", Queue: "hrm.worker", RoutingKey: "workrequest.created"},
		Prefetch: 10,
		Scopes: func() *Scope {
			h.scopes.Add(1)
			return factory()
		},
		Orchestrator:    NewOrchestrator(sinks...),
		MalformedPolicy: policy,
		Logger:          slog.New(h.logs),
	})

	if err := h.worker.Start(context.Background()); err != nil {
		t.Fatalf("start worker: %v", err)
	}
	t.Cleanup(h.worker.Stop)
	h.waitLog(t, "consumer started")
	return h
}

// waitLog ждёт запись с сообщением msg.
func (h *harness) waitLog(t *testing.T, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, rec := range h.logs.Records() {
			if rec["msg"] == msg {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %q log within timeout", msg)
}

func (h *harness) addRequest(title string) uuid.UUID {
	id := uuid.New()
	h.requests.items[id] = domain.WorkRequest{ID: id, Title: title, Description: "details"}
	return id
}

func (h *harness) deliver(t *testing.T, d amqp.Delivery) {
	t.Helper()
	h.ch.Deliveries <- d
	if err := h.ack.WaitSettled(1, 2*time.Second); err != nil {
		t.Fatal(err)
	}
}

func payload(id uuid.UUID, correlationID string) []byte {
	return []byte(fmt.Sprintf(
		`{"EventId":%q,"OccurredUtc":"2025-01-01T00:00:00Z","CorrelationId":%q,"WorkRequestId":%q,"Title":"t"}`,
		uuid.NewString(), correlationID, id,
	))
}

// --- Scenario tests ---

func TestWorker_DeclaresTopology(t *testing.T) {
	h := newHarness(t, "")

	if len(h.ch.Exchanges) != 1 || h.ch.Exchanges[0] != "hrm.events" || h.ch.Kinds[0] != "topic" {
		t.Errorf("unexpected exchanges %v %v", h.ch.Exchanges, h.ch.Kinds)
	}
	if len(h.ch.Queues) != 1 || h.ch.Queues[0] != "hrm.worker" {
		t.Errorf("unexpected queues %v", h.ch.Queues)
	}
	want := [3]string{"hrm.worker", "workrequest.created", "hrm.events"}
	if len(h.ch.Bindings) != 1 || h.ch.Bindings[0] != want {
		t.Errorf("unexpected bindings %v", h.ch.Bindings)
	}
}

func TestWorker_HappyPathAcks(t *testing.T) {
	h := newHarness(t, "")
	id := h.addRequest("Onboard Alice")

	h.deliver(t, h.ack.Delivery(1, payload(id, "abc")))

	if got := h.ack.Acks(); len(got) != 1 || got[0] != 1 {
		t.Errorf("expected ack for tag 1, got acks=%v nacks=%v", got, h.ack.Nacks())
	}
	if h.stub.Calls() != 2 {
		t.Errorf("expected planner and executor calls, got %d", h.stub.Calls())
	}

	prompts := h.stub.Prompts()
	if !strings.Contains(prompts[0], "Title: Onboard Alice") {
		t.Errorf("planner prompt missing title: %s", prompts[0])
	}
	if !strings.Contains(prompts[1], "1. create accounts") {
		t.Errorf("executor prompt missing plan: %s", prompts[1])
	}

	// все записи обработки несут correlation id сообщения
	var tagged int
	for _, rec := range h.logs.Records() {
		if rec["work_request_id"] == nil {
			continue
		}
		tagged++
		if rec["correlation_id"] != "abc" {
			t.Errorf("log %q has correlation_id %v", rec["msg"], rec["correlation_id"])
		}
	}
	if tagged == 0 {
		t.Error("expected processing logs")
	}
}

func TestWorker_NotFoundAcksWithoutAgents(t *testing.T) {
	h := newHarness(t, "")

	h.deliver(t, h.ack.Delivery(7, payload(uuid.New(), "abc")))

	if got := h.ack.Acks(); len(got) != 1 || got[0] != 7 {
		t.Errorf("expected ack for tag 7, got acks=%v nacks=%v", got, h.ack.Nacks())
	}
	if h.stub.Calls() != 0 {
		t.Errorf("expected no agent calls, got %d", h.stub.Calls())
	}
}

func TestWorker_PlannerFailureRequeues(t *testing.T) {
	h := newHarness(t, "")
	h.stub = llm.NewStub().Fail("sequential plan", errors.New("quota exceeded"))
	h.worker.scopes = NewScopeFactory(func() WorkRequestReader { return h.requests }, h.stub)
	id := h.addRequest("Laptop")

	h.deliver(t, h.ack.Delivery(3, payload(id, "abc")))

	nacks := h.ack.Nacks()
	if len(nacks) != 1 || nacks[0].Tag != 3 || !nacks[0].Requeue {
		t.Errorf("expected nack requeue for tag 3, got %v", nacks)
	}
	if len(h.ack.Acks()) != 0 {
		t.Errorf("expected no acks, got %v", h.ack.Acks())
	}
}

func TestWorker_RepositoryFailureRequeues(t *testing.T) {
	h := newHarness(t, "")
	h.requests.err = errors.New("connection refused")

	h.deliver(t, h.ack.Delivery(4, payload(uuid.New(), "abc")))

	nacks := h.ack.Nacks()
	if len(nacks) != 1 || !nacks[0].Requeue {
		t.Errorf("expected nack requeue, got %v", nacks)
	}
	if h.stub.Calls() != 0 {
		t.Errorf("expected no agent calls, got %d", h.stub.Calls())
	}
}

func TestWorker_MalformedRequeuedByDefault(t *testing.T) {
	h := newHarness(t, "")

	h.deliver(t, h.ack.Delivery(5, []byte(`{not json`)))

	nacks := h.ack.Nacks()
	if len(nacks) != 1 || nacks[0].Tag != 5 || !nacks[0].Requeue {
		t.Errorf("expected nack requeue for tag 5, got %v", nacks)
	}
	if n := h.scopes.Load(); n != 0 {
		t.Errorf("expected no scope for malformed payload, got %d", n)
	}
}

func TestWorker_MalformedDiscardPolicy(t *testing.T) {
	h := newHarness(t, MalformedDiscard)

	h.deliver(t, h.ack.Delivery(6, []byte(`{"WorkRequestId":"not-a-uuid"}`)))

	if got := h.ack.Acks(); len(got) != 1 || got[0] != 6 {
		t.Errorf("expected ack for tag 6, got acks=%v nacks=%v", got, h.ack.Nacks())
	}
}

func TestWorker_FreshScopePerMessage(t *testing.T) {
	h := newHarness(t, "")
	id := h.addRequest("Laptop")

	h.ch.Deliveries <- h.ack.Delivery(1, payload(id, "a"))
	h.ch.Deliveries <- h.ack.Delivery(2, payload(id, "b"))
	if err := h.ack.WaitSettled(2, 2*time.Second); err != nil {
		t.Fatal(err)
	}

	if n := h.scopes.Load(); n != 2 {
		t.Errorf("expected 2 scopes, got %d", n)
	}
}

// --- Correlation tests ---

type capturingSink struct {
	mu          sync.Mutex
	completions []Completion
	err         error
}

func (s *capturingSink) Name() string { return "capture" }

func (s *capturingSink) OnCompleted(_ context.Context, c Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions = append(s.completions, c)
	return s.err
}

func (s *capturingSink) last() Completion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completions[len(s.completions)-1]
}

func TestWorker_CorrelationFromPayload(t *testing.T) {
	sink := &capturingSink{}
	h := newHarness(t, "", sink)
	id := h.addRequest("Laptop")

	d := h.ack.Delivery(1, payload(id, "from-payload"))
	d.CorrelationId = "from-property"
	h.deliver(t, d)

	if got := sink.last().Event.CorrelationID; got != "from-payload" {
		t.Errorf("expected payload correlation id, got %q", got)
	}
}

func TestWorker_CorrelationFromProperty(t *testing.T) {
	sink := &capturingSink{}
	h := newHarness(t, "", sink)
	id := h.addRequest("Laptop")

	d := h.ack.Delivery(1, payload(id, ""))
	d.CorrelationId = "from-property"
	h.deliver(t, d)

	if got := sink.last().Event.CorrelationID; got != "from-property" {
		t.Errorf("expected property correlation id, got %q", got)
	}
}

func TestWorker_CorrelationGenerated(t *testing.T) {
	sink := &capturingSink{}
	h := newHarness(t, "", sink)
	id := h.addRequest("Laptop")

	h.deliver(t, h.ack.Delivery(1, payload(id, "")))

	got := sink.last().Event.CorrelationID
	if len(got) != 32 {
		t.Errorf("expected generated 32-char correlation id, got %q", got)
	}
}

func TestWorker_GeneratedCorrelationInEveryLog(t *testing.T) {
	sink := &capturingSink{}
	h := newHarness(t, "", sink)
	id := h.addRequest("Laptop")
	before := len(h.logs.Records())

	h.deliver(t, h.ack.Delivery(1, payload(id, "")))

	want := sink.last().Event.CorrelationID
	if len(want) != 32 {
		t.Fatalf("expected generated 32-char correlation id, got %q", want)
	}

	records := h.logs.Records()[before:]
	if len(records) == 0 {
		t.Fatal("expected processing logs")
	}
	for _, rec := range records {
		if rec["correlation_id"] != want {
			t.Errorf("log %q has correlation_id %v, want %s", rec["msg"], rec["correlation_id"], want)
		}
	}
}

func TestWorker_DropLogCarriesCorrelation(t *testing.T) {
	h := newHarness(t, "")
	before := len(h.logs.Records())

	h.deliver(t, h.ack.Delivery(9, payload(uuid.New(), "trace-9")))

	var dropped bool
	for _, rec := range h.logs.Records()[before:] {
		if rec["correlation_id"] != "trace-9" {
			t.Errorf("log %q has correlation_id %v", rec["msg"], rec["correlation_id"])
		}
		if rec["msg"] == "message dropped" {
			dropped = true
		}
	}
	if !dropped {
		t.Error("expected message dropped log")
	}
}

// --- Completion sink tests ---

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
	sent []events.Event
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, routingKey)
	p.sent = append(p.sent, evt)
	return nil
}

type recordingArchive struct {
	mu      sync.Mutex
	records []storage.Record
}

func (a *recordingArchive) Save(_ context.Context, rec storage.Record) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, rec)
	return storage.ObjectKey(rec.WorkRequestID, rec.EventID), nil
}

func TestWorker_CompletionSinks(t *testing.T) {
	pub := &recordingPublisher{}
	archive := &recordingArchive{}
	h := newHarness(t, "", NewPublishSink(pub, "task.completed"), NewArchiveSink(archive))
	id := h.addRequest("Laptop")

	h.deliver(t, h.ack.Delivery(1, payload(id, "abc")))

	if len(h.ack.Acks()) != 1 {
		t.Fatalf("expected ack, got nacks=%v", h.ack.Nacks())
	}

	if len(pub.sent) != 1 || pub.keys[0] != "task.completed" {
		t.Fatalf("expected task.completed published, got %v", pub.keys)
	}
	done, ok := pub.sent[0].(events.TaskCompleted)
	if !ok {
		t.Fatalf("unexpected event type %T", pub.sent[0])
	}
	if done.WorkRequestID != id || done.Result != "accounts created" || done.CorrelationID != "abc" || !done.Success {
		t.Errorf("unexpected task completed event %+v", done)
	}

	if len(archive.records) != 1 {
		t.Fatalf("expected 1 archived record, got %d", len(archive.records))
	}
	rec := archive.records[0]
	if rec.Plan != "1. create accounts" || rec.Result != "accounts created" || rec.WorkRequestID != id {
		t.Errorf("unexpected archive record %+v", rec)
	}
}

func TestWorker_SinkFailureStillAcks(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("channel closed")}
	h := newHarness(t, "", NewPublishSink(pub, "task.completed"))
	id := h.addRequest("Laptop")

	h.deliver(t, h.ack.Delivery(1, payload(id, "abc")))

	if len(h.ack.Acks()) != 1 || len(h.ack.Nacks()) != 0 {
		t.Errorf("expected ack despite sink failure, got acks=%v nacks=%v", h.ack.Acks(), h.ack.Nacks())
	}
}

// --- Orchestrator tests ---

func TestOrchestrator_StageErrors(t *testing.T) {
	id := uuid.New()
	requests := &memoryRequests{items: map[uuid.UUID]domain.WorkRequest{id: {ID: id, Title: "x"}}}
	evt := events.NewWorkRequestCreated(id, "x", "cid")

	tests := []struct {
		name  string
		stub  *llm.Stub
		stage Stage
	}{
		{"planner", llm.NewStub().Fail("sequential plan", errors.New("boom")), StagePlanned},
		{"executor", llm.NewStub().On("sequential plan", "p").Fail("Execute the following", errors.New("boom")), StageExecuted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope := NewScopeFactory(func() WorkRequestReader { return requests }, tt.stub)()

			err := NewOrchestrator().Process(context.Background(), scope, evt)
			stage, ok := FailedStage(err)
			if !ok || stage != tt.stage {
				t.Errorf("expected stage %s, got %v (%v)", tt.stage, stage, err)
			}
		})
	}
}

func TestOrchestrator_NotFound(t *testing.T) {
	requests := &memoryRequests{items: map[uuid.UUID]domain.WorkRequest{}}
	stub := llm.NewStub()
	scope := NewScopeFactory(func() WorkRequestReader { return requests }, stub)()

	err := NewOrchestrator().Process(context.Background(), scope, events.NewWorkRequestCreated(uuid.New(), "x", "cid"))
	if !errors.Is(err, ErrWorkRequestNotFound) {
		t.Errorf("expected ErrWorkRequestNotFound, got %v", err)
	}
	if _, ok := FailedStage(err); ok {
		t.Error("not found must not be a stage failure")
	}
	if stub.Calls() != 0 {
		t.Errorf("expected no agent calls, got %d", stub.Calls())
	}
}

func TestOrchestrator_EmptyCompletionIsResult(t *testing.T) {
	id := uuid.New()
	requests := &memoryRequests{items: map[uuid.UUID]domain.WorkRequest{id: {ID: id, Title: "x"}}}
	completer := llm.Instrument("stub", llm.NewStub().On("sequential plan", "").On("Execute the following", ""), 0)
	scope := NewScopeFactory(func() WorkRequestReader { return requests }, completer)()
	sink := &capturingSink{}

	err := NewOrchestrator(sink).Process(context.Background(), scope, events.NewWorkRequestCreated(id, "x", "cid"))
	if err != nil {
		t.Fatalf("expected empty completion to complete processing, got %v", err)
	}
	if c := sink.last(); c.Plan != "" || c.Result != "" {
		t.Errorf("expected empty plan and result, got %+v", c)
	}
}

func TestWorker_EmptyCompletionAcks(t *testing.T) {
	h := newHarness(t, "")
	h.stub = llm.NewStub().On("sequential plan", "").On("Execute the following", "")
	completer := llm.Instrument("stub", h.stub, 0)
	h.worker.scopes = NewScopeFactory(func() WorkRequestReader { return h.requests }, completer)
	id := h.addRequest("Laptop")

	h.deliver(t, h.ack.Delivery(8, payload(id, "abc")))

	if got := h.ack.Acks(); len(got) != 1 || got[0] != 8 {
		t.Errorf("expected ack for tag 8, got acks=%v nacks=%v", got, h.ack.Nacks())
	}
	if h.stub.Calls() != 2 {
		t.Errorf("expected planner and executor calls, got %d", h.stub.Calls())
	}
}
