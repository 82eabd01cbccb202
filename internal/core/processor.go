package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"school_portal/internal/metrics"
	"school_portal/src/logger"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
)

// GraphProcessor compiles named flows of nodes into eino graphs and runs them
type GraphProcessor struct {
	mu        sync.RWMutex
	nodes     map[string]Node
	runnables map[string]compose.Runnable[*State, *State]
	log       zerolog.Logger
}

// NewGraphProcessor creates an empty processor
func NewGraphProcessor() *GraphProcessor {
	return &GraphProcessor{
		nodes:     make(map[string]Node),
		runnables: make(map[string]compose.Runnable[*State, *State]),
		log:       logger.Component("graph_processor"),
	}
}

// AddNode registers a node under its name
func (g *GraphProcessor) AddNode(node Node) error {
	if node == nil {
		return fmt.Errorf("node cannot be nil")
	}

	name := node.GetName()
	if name == "" {
		return fmt.Errorf("node name cannot be empty")
	}
	if name == compose.START || name == compose.END {
		return fmt.Errorf("node name %q is reserved", name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[name] = node
	g.log.Debug().Str("node", name).Str("type", string(node.GetType())).Msg("node added")

	return nil
}

// GetNode retrieves a node by name
func (g *GraphProcessor) GetNode(name string) (Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	node, exists := g.nodes[name]
	if !exists {
		return nil, fmt.Errorf("node not found: %s", name)
	}
	return node, nil
}

// SetFlow compiles flow into a linear graph START -> nodes... -> END, replacing any flow of the
// same name.
func (g *GraphProcessor) SetFlow(ctx context.Context, flow GraphFlow) error {
	if flow.Name == "" {
		return fmt.Errorf("flow name cannot be empty")
	}
	if len(flow.Nodes) == 0 {
		return fmt.Errorf("flow %s has no nodes", flow.Name)
	}

	graph := compose.NewGraph[*State, *State]()
	prev := compose.START
	seen := make(map[string]bool, len(flow.Nodes))
	for _, name := range flow.Nodes {
		if seen[name] {
			return fmt.Errorf("flow %s lists node %s twice", flow.Name, name)
		}
		seen[name] = true

		node, err := g.GetNode(name)
		if err != nil {
			return fmt.Errorf("flow %s: %w", flow.Name, err)
		}
		if err := graph.AddLambdaNode(name, compose.InvokableLambda(step(node))); err != nil {
			return fmt.Errorf("flow %s: failed to add node %s: %w", flow.Name, name, err)
		}
		if err := graph.AddEdge(prev, name); err != nil {
			return fmt.Errorf("flow %s: failed to link %s -> %s: %w", flow.Name, prev, name, err)
		}
		prev = name
	}
	if err := graph.AddEdge(prev, compose.END); err != nil {
		return fmt.Errorf("flow %s: failed to link %s -> end: %w", flow.Name, prev, err)
	}

	runnable, err := graph.Compile(ctx)
	if err != nil {
		return fmt.Errorf("flow %s: failed to compile: %w", flow.Name, err)
	}

	g.mu.Lock()
	g.runnables[flow.Name] = runnable
	g.mu.Unlock()

	g.log.Debug().Str("flow", flow.Name).Strs("nodes", flow.Nodes).Msg("flow compiled")
	return nil
}

// Execute runs the named flow over state
func (g *GraphProcessor) Execute(ctx context.Context, flowName string, state *State) (*State, error) {
	if state == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}

	g.mu.RLock()
	runnable, exists := g.runnables[flowName]
	g.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("flow not found: %s", flowName)
	}

	start := time.Now()
	out, err := runnable.Invoke(ctx, state)
	elapsed := time.Since(start)
	metrics.RetrievalDuration.WithLabelValues(flowName).Observe(elapsed.Seconds())

	if err != nil {
		g.log.Error().Err(err).Str("flow", flowName).Str("request_id", state.RequestID).Msg("flow failed")
		return nil, fmt.Errorf("error executing flow %s: %w", flowName, err)
	}
	if out == nil {
		return nil, fmt.Errorf("flow %s returned no state", flowName)
	}

	g.log.Debug().
		Str("flow", flowName).
		Str("request_id", out.RequestID).
		Strs("path", out.ExecutionPath).
		Str("source", string(out.Source)).
		Int("records", len(out.Records)).
		Dur("elapsed", elapsed).
		Msg("flow completed")

	return out, nil
}

// step adapts a node to the graph. Finished states skip the node.
func step(node Node) func(ctx context.Context, state *State) (*State, error) {
	return func(ctx context.Context, state *State) (*State, error) {
		if state.Complete {
			return state, nil
		}
		state.ExecutionPath = append(state.ExecutionPath, node.GetName())
		return node.Execute(ctx, state)
	}
}
