package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/scribe/internal/messages"
)

const keyBatchRun = "batch_run"

// batchRun is the working state of one batch as it moves through the graph.
type batchRun struct {
	stream     string
	batchID    string
	batch      []messages.Message
	logger     *slog.Logger
	started    time.Time
	convs      []Conversation
	classified bool
	routed     bool
	out        batchOutcome
}

// batchGraph builds classify → route → finish. A batch that fails
// classification skips routing.
func (r *Runner) batchGraph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("scribe-batch")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("classify", batchNode(r.classifyBatch)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("route", batchNode(r.routeBatch)); err != nil {
		return nil, err
	}
	if err := graph.AddNode("finish", batchNode(r.finishBatch)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("classify", "route", classified); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("classify", "finish", state.Not(classified)); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("route", "finish", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("classify"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("finish"); err != nil {
		return nil, err
	}

	return graph, nil
}

func batchNode(step func(context.Context, *batchRun)) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		run, err := extractRun(s)
		if err != nil {
			return s, err
		}
		step(ctx, run)
		return s, nil
	})
}

func extractRun(s state.State) (*batchRun, error) {
	val, ok := s.Get(keyBatchRun)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", keyBatchRun)
	}
	run, ok := val.(*batchRun)
	if !ok {
		return nil, fmt.Errorf("%s is not a batch run", keyBatchRun)
	}
	return run, nil
}

func classified(s state.State) bool {
	run, err := extractRun(s)
	return err == nil && run.classified
}
