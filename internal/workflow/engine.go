// Package workflow chains race-engine runs and scoring passes into
// multi-stage DAG pipelines (build -> review -> refine -> score), on top of
// the same primitives the single-race entry point uses.
package workflow

import (
	"context"
	"sync"
	"time"
)

// NodeType is the kind of work a WorkflowNode performs.
type NodeType string

const (
	NodeBuild  NodeType = "build"
	NodeReview NodeType = "review"
	NodeRefine NodeType = "refine"
	NodeScore  NodeType = "score"
)

// NodeStatus is the outcome of running one WorkflowNode.
type NodeStatus string

const (
	NodePending   NodeStatus = "pending"
	NodeRunning   NodeStatus = "running"
	NodeCompleted NodeStatus = "completed"
	NodeFailed    NodeStatus = "failed"
	NodeSkipped   NodeStatus = "skipped"
)

// WorkflowStatus is the outcome of a full Run.
type WorkflowStatus string

const (
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
)

// WorkflowNode is one stage of a pipeline. AgentKey is nil for Score nodes,
// which have no agent of their own.
type WorkflowNode struct {
	ID             string
	NodeType       NodeType
	AgentKey       *string
	PromptTemplate string
	DependsOn      []string
	TimeoutSeconds *uint64
	MaxRetries     uint32
}

// WorkflowDefinition is a named DAG of nodes.
type WorkflowDefinition struct {
	Name        string
	Description string
	Nodes       []WorkflowNode
}

// NodeResult is what a NodeExecutor returns for one node.
type NodeResult struct {
	NodeID string
	Status NodeStatus
	Output string
	Score  *float64
	Error  string
}

// WorkflowResult is the full outcome of Engine.Run.
type WorkflowResult struct {
	Name   string
	Status WorkflowStatus
	Nodes  map[string]NodeResult
}

// NodeExecutor runs one node given the results of its already-completed
// upstream dependencies. The caller supplies this: for Build/Review/Refine
// nodes it is expected to dispatch into the race engine using node.AgentKey
// and node.PromptTemplate (templated against upstream output); for Score
// nodes it is expected to invoke the scoring engine directly against the
// upstream build/refine worktree.
type NodeExecutor func(ctx context.Context, node WorkflowNode, upstream map[string]NodeResult) (NodeResult, error)

// Engine runs WorkflowDefinitions.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Run executes def's nodes in topological order: a node becomes eligible
// once every entry in DependsOn has a result, and independent eligible
// nodes run concurrently. A node whose dependency failed or was skipped is
// itself marked skipped rather than executed.
func (e *Engine) Run(ctx context.Context, def WorkflowDefinition, exec NodeExecutor) (WorkflowResult, error) {
	var mu sync.Mutex
	results := make(map[string]NodeResult, len(def.Nodes))
	launched := make(map[string]bool, len(def.Nodes))

	doneCh := make(chan struct{}, len(def.Nodes))
	var wg sync.WaitGroup

	var scheduleEligible func()
	scheduleEligible = func() {
		mu.Lock()
		defer mu.Unlock()
		for _, node := range def.Nodes {
			if launched[node.ID] {
				continue
			}
			ready := true
			skip := false
			for _, dep := range node.DependsOn {
				r, ok := results[dep]
				if !ok {
					ready = false
					break
				}
				if r.Status == NodeFailed || r.Status == NodeSkipped {
					skip = true
				}
			}
			if !ready {
				continue
			}
			launched[node.ID] = true
			wg.Add(1)

			if skip {
				go func(n WorkflowNode) {
					defer wg.Done()
					mu.Lock()
					results[n.ID] = NodeResult{NodeID: n.ID, Status: NodeSkipped}
					mu.Unlock()
					doneCh <- struct{}{}
				}(node)
				continue
			}

			upstream := snapshot(results)
			go func(n WorkflowNode, upstream map[string]NodeResult) {
				defer wg.Done()
				nodeCtx := ctx
				if n.TimeoutSeconds != nil {
					var cancel context.CancelFunc
					nodeCtx, cancel = context.WithTimeout(ctx, time.Duration(*n.TimeoutSeconds)*time.Second)
					defer cancel()
				}
				res, err := exec(nodeCtx, n, upstream)
				if err != nil {
					res = NodeResult{NodeID: n.ID, Status: NodeFailed, Error: err.Error()}
				}
				res.NodeID = n.ID
				mu.Lock()
				results[n.ID] = res
				mu.Unlock()
				doneCh <- struct{}{}
			}(node, upstream)
		}
	}

	scheduleEligible()
	for done := 0; done < len(def.Nodes); done++ {
		<-doneCh
		scheduleEligible()
	}
	wg.Wait()

	status := WorkflowCompleted
	for _, r := range results {
		if r.Status == NodeFailed || r.Status == NodeSkipped {
			status = WorkflowFailed
			break
		}
	}

	return WorkflowResult{Name: def.Name, Status: status, Nodes: results}, nil
}

func snapshot(m map[string]NodeResult) map[string]NodeResult {
	out := make(map[string]NodeResult, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// NewSimulatedExecutor returns a NodeExecutor that marks every node
// completed without doing any real work, for exercising topology/scheduling
// without spawning adapters.
func NewSimulatedExecutor() NodeExecutor {
	return func(ctx context.Context, node WorkflowNode, upstream map[string]NodeResult) (NodeResult, error) {
		return NodeResult{NodeID: node.ID, Status: NodeCompleted, Output: "simulated:" + node.ID}, nil
	}
}
