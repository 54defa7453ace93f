package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/internal/classifications"
	"github.com/JaimeStill/scribe/internal/messages"
	"github.com/JaimeStill/scribe/internal/pipeline"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/proposals"
	"github.com/JaimeStill/scribe/internal/rulesets"
	"github.com/JaimeStill/scribe/pkg/lease"
	"github.com/JaimeStill/scribe/pkg/llm"
	"github.com/JaimeStill/scribe/pkg/vector"
)

var base = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func msg(id string, offset time.Duration, author, content string) messages.Message {
	return messages.Message{
		ID:        id,
		StreamID:  "stream-1",
		Timestamp: base.Add(offset),
		Author:    author,
		Content:   content,
		Channel:   "help",
		Status:    messages.StatusPending,
	}
}

type memMessages struct {
	mu   sync.Mutex
	msgs map[string]*messages.Message
}

func newMemMessages(msgs ...messages.Message) *memMessages {
	s := &memMessages{msgs: make(map[string]*messages.Message)}
	for _, m := range msgs {
		s.msgs[m.ID] = &m
	}
	return s
}

func (s *memMessages) sorted(keep func(*messages.Message) bool) []messages.Message {
	var out []messages.Message
	for _, m := range s.msgs {
		if keep(m) {
			out = append(out, *m)
		}
	}
	messages.SortByTime(out)
	return out
}

func (s *memMessages) EarliestPending(_ context.Context, stream string, since time.Time) (*messages.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted(func(m *messages.Message) bool {
		return m.StreamID == stream && m.Status == messages.StatusPending && !m.Timestamp.Before(since)
	})
	if len(out) == 0 {
		return nil, messages.ErrNotFound
	}
	return &out[0], nil
}

func (s *memMessages) FetchPending(_ context.Context, stream string, start, end time.Time, limit int) ([]messages.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted(func(m *messages.Message) bool {
		return m.StreamID == stream && m.Status == messages.StatusPending &&
			!m.Timestamp.Before(start) && m.Timestamp.Before(end)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memMessages) FetchContext(_ context.Context, stream string, before time.Time, limit int) ([]messages.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted(func(m *messages.Message) bool {
		return m.StreamID == stream && m.Timestamp.Before(before)
	})
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memMessages) PendingStreams(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var streams []string
	for _, m := range s.msgs {
		if m.Status == messages.StatusPending && !slices.Contains(streams, m.StreamID) {
			streams = append(streams, m.StreamID)
		}
	}
	slices.Sort(streams)
	return streams, nil
}

func (s *memMessages) MarkCompleted(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if m, ok := s.msgs[id]; ok {
			m.Status = messages.StatusCompleted
		}
	}
	return nil
}

func (s *memMessages) status(id string) messages.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgs[id].Status
}

type memWatermarks struct {
	mu       sync.Mutex
	marks    map[string]time.Time
	advances []time.Time
}

func newMemWatermarks() *memWatermarks {
	return &memWatermarks{marks: make(map[string]time.Time)}
}

func (w *memWatermarks) Get(_ context.Context, stream string) (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.marks[stream], nil
}

func (w *memWatermarks) Advance(_ context.Context, stream string, to, _ time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.advances = append(w.advances, to)
	if to.After(w.marks[stream]) {
		w.marks[stream] = to
	}
	return nil
}

type memClassifications struct {
	mu      sync.Mutex
	records map[string]classifications.Record
}

func newMemClassifications() *memClassifications {
	return &memClassifications{records: make(map[string]classifications.Record)}
}

func (c *memClassifications) Upsert(_ context.Context, records []classifications.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		c.records[r.MessageID] = r
	}
	return nil
}

func (c *memClassifications) DeleteByMessages(_ context.Context, ids []string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := c.records[id]; ok {
			delete(c.records, id)
			n++
		}
	}
	return n, nil
}

func (c *memClassifications) get(id string) (classifications.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	return r, ok
}

func (c *memClassifications) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// memProposals completes messages on commit the way the transactional store does.
type memProposals struct {
	mu      sync.Mutex
	msgs    *memMessages
	commits map[uuid.UUID]proposals.Commit
}

func newMemProposals(msgs *memMessages) *memProposals {
	return &memProposals{msgs: msgs, commits: make(map[uuid.UUID]proposals.Commit)}
}

func (p *memProposals) Commit(ctx context.Context, c proposals.Commit) error {
	p.mu.Lock()
	p.commits[c.Context.ConversationID] = c
	p.mu.Unlock()
	return p.msgs.MarkCompleted(ctx, c.MessageIDs)
}

func (p *memProposals) CountPending(_ context.Context, page string, exclude uuid.UUID) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for id, c := range p.commits {
		if id == exclude {
			continue
		}
		for _, pr := range c.Proposals {
			if pr.Page == page && pr.UpdateType != proposals.UpdateNone {
				n++
			}
		}
	}
	return n, nil
}

func (p *memProposals) all() []proposals.Commit {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []proposals.Commit
	for _, c := range p.commits {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b proposals.Commit) int {
		return a.Context.TimeStart.Compare(b.Context.TimeStart)
	})
	return out
}

type stageComposer struct{}

func (stageComposer) Compose(_ context.Context, stage prompts.Stage, _ prompts.Tenant, _ int) (string, error) {
	return "stage:" + string(stage), nil
}

type fixedRuleset struct {
	rs  *rulesets.Ruleset
	err error
}

func (f fixedRuleset) Get(context.Context, string) (*rulesets.Ruleset, error) {
	return f.rs, f.err
}

// scriptedLLM answers classification with a fixed document and proposal
// requests by the first marker found in the user prompt.
type scriptedLLM struct {
	mu        sync.Mutex
	classify  []string
	propose   map[string]string
	fail      map[string]error
	calls     int
	proposals int
}

func (s *scriptedLLM) Model() string { return "test-model" }

func (s *scriptedLLM) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	system := req.Messages[0].Content
	user := req.Messages[1].Content

	if system == "stage:"+string(prompts.StageClassify) {
		i := min(len(req.Messages)/2-1, len(s.classify)-1)
		return &llm.Response{Content: s.classify[i], Model: "test-model"}, nil
	}

	s.proposals++
	for marker, err := range s.fail {
		if strings.Contains(user, marker) {
			return nil, err
		}
	}
	for marker, reply := range s.propose {
		if strings.Contains(user, marker) {
			return &llm.Response{Content: reply, Model: "test-model"}, nil
		}
	}
	return &llm.Response{Content: `{"proposals":[],"proposalsRejected":true,"rejectionReason":"nothing to add"}`, Model: "test-model"}, nil
}

type staticSearch struct {
	results []vector.Result
	err     error
	queries []string
	mu      sync.Mutex
}

func (s *staticSearch) Search(_ context.Context, query string, topK int) ([]vector.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return slices.Clone(s.results), nil
}

type harness struct {
	msgs    *memMessages
	marks   *memWatermarks
	classes *memClassifications
	props   *memProposals
	llm     *scriptedLLM
	search  *staticSearch
	runtime *pipeline.Runtime
	runner  *pipeline.Runner
}

func newHarness(rs *rulesets.Ruleset, llmc *scriptedLLM, search *staticSearch, msgs ...messages.Message) *harness {
	store := newMemMessages(msgs...)
	h := &harness{
		msgs:    store,
		marks:   newMemWatermarks(),
		classes: newMemClassifications(),
		props:   newMemProposals(store),
		llm:     llmc,
		search:  search,
	}

	var cfg pipeline.Config
	if err := cfg.Finalize(nil); err != nil {
		panic(err)
	}
	cfg.SchemaAttempts = 2

	h.runtime = &pipeline.Runtime{
		Config:          cfg,
		Tenant:          pipeline.Tenant{ID: "tenant-1", ProjectName: "Widget", Domain: "a widget toolkit"},
		Messages:        h.msgs,
		Watermarks:      h.marks,
		Classifications: h.classes,
		Proposals:       h.props,
		Prompts:         stageComposer{},
		Rulesets:        fixedRuleset{rs: rs},
		LLM:             llmc,
		Vector:          search,
		Locker:          lease.NewLocal(),
		Logger:          slog.New(slog.DiscardHandler),
		Now:             func() time.Time { return base.Add(48 * time.Hour) },
	}
	h.runner = pipeline.New(h.runtime)
	return h
}

func classifyJSON(threads ...string) string {
	return `{"threads":[` + strings.Join(threads, ",") + `]}`
}

func thread(category, reason string, ids ...string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return fmt.Sprintf(
		`{"category":%q,"messageIds":[%s],"summary":"thread about %s","docValueReason":%q,"ragSearchCriteria":{"keywords":["setup"],"semanticQuery":"how to configure %s"}}`,
		category, strings.Join(quoted, ","), ids[0], reason, ids[0],
	)
}

var errProvider = errors.New("provider unavailable")
