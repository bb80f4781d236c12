package workflow

// BuilderReviewerRefiner builds a three-stage pipeline: an agent produces
// code from taskPrompt, a second agent reviews it, a third applies the
// review feedback, then the result is scored.
func BuilderReviewerRefiner(builderAgent, reviewerAgent, refinerAgent, taskPrompt string) WorkflowDefinition {
	ptr := func(v uint64) *uint64 { return &v }
	str := func(v string) *string { return &v }

	return WorkflowDefinition{
		Name:        "builder-reviewer-refiner",
		Description: "Build, review, then refine code",
		Nodes: []WorkflowNode{
			{
				ID:             "build",
				NodeType:       NodeBuild,
				AgentKey:       str(builderAgent),
				PromptTemplate: taskPrompt,
				DependsOn:      nil,
				TimeoutSeconds: ptr(600),
			},
			{
				ID:       "review",
				NodeType: NodeReview,
				AgentKey: str(reviewerAgent),
				PromptTemplate: "Review the code changes from the build step. " +
					"Provide structured feedback on: correctness, code quality, " +
					"test coverage, and potential issues. Output a JSON rubric " +
					"with scores and specific improvement suggestions.",
				DependsOn:      []string{"build"},
				TimeoutSeconds: ptr(300),
			},
			{
				ID:       "refine",
				NodeType: NodeRefine,
				AgentKey: str(refinerAgent),
				PromptTemplate: "Apply the reviewer's feedback to improve the code. " +
					"Focus on the specific issues identified.",
				DependsOn:      []string{"review"},
				TimeoutSeconds: ptr(600),
			},
			{
				ID:             "score",
				NodeType:       NodeScore,
				AgentKey:       nil,
				PromptTemplate: "",
				DependsOn:      []string{"refine"},
				TimeoutSeconds: ptr(120),
			},
		},
	}
}

// IterativeRefinement builds a fixed number of refine->score rounds against
// a single agent, each round seeded with the previous round's score
// feedback. The Rust original's exact round-count/stopping-condition
// wiring (crates/hydra-core/src/workflow/presets/iterative.rs) was not
// present in the retrieved source; this reproduces its documented surface
// (iterative_refinement, should_stop_iterating) as a bounded loop of
// refine/score pairs, since the engine presets are pure data and the
// stopping decision belongs to the caller driving Engine.Run round by
// round.
func IterativeRefinement(agentKey, taskPrompt string, maxRounds uint32) WorkflowDefinition {
	str := func(v string) *string { return &v }
	ptr := func(v uint64) *uint64 { return &v }

	if maxRounds == 0 {
		maxRounds = 1
	}

	nodes := make([]WorkflowNode, 0, maxRounds*2+1)
	nodes = append(nodes, WorkflowNode{
		ID:             "build",
		NodeType:       NodeBuild,
		AgentKey:       str(agentKey),
		PromptTemplate: taskPrompt,
		TimeoutSeconds: ptr(600),
	})

	prev := "build"
	for round := uint32(1); round <= maxRounds; round++ {
		scoreID := nodeID("score", round)
		nodes = append(nodes, WorkflowNode{
			ID:             scoreID,
			NodeType:       NodeScore,
			DependsOn:      []string{prev},
			TimeoutSeconds: ptr(120),
		})

		if round == maxRounds {
			prev = scoreID
			continue
		}

		refineID := nodeID("refine", round)
		nodes = append(nodes, WorkflowNode{
			ID:       refineID,
			NodeType: NodeRefine,
			AgentKey: str(agentKey),
			PromptTemplate: "Improve the implementation based on the previous round's " +
				"scoring feedback. Address the lowest-scoring dimensions first.",
			DependsOn:      []string{scoreID},
			TimeoutSeconds: ptr(600),
		})
		prev = refineID
	}

	return WorkflowDefinition{
		Name:        "iterative-refinement",
		Description: "Repeatedly refine and rescore a single agent's output",
		Nodes:       nodes,
	}
}

// ShouldStopIterating reports whether an iterative-refinement run should
// stop before exhausting maxRounds: once a round's score meets
// targetScore, or regresses more than regressionTolerance points versus
// the previous round's score, further rounds are not worth the tokens.
func ShouldStopIterating(previousScore, currentScore, targetScore, regressionTolerance float64) bool {
	if currentScore >= targetScore {
		return true
	}
	if previousScore-currentScore > regressionTolerance {
		return true
	}
	return false
}

// Specialization fans the same task prompt out to N agents in parallel
// (one Build node per agent, no DependsOn between them) followed by a
// single Score node depending on all of them, letting the scoring/ranking
// engine pick a winner across genuinely independent attempts rather than a
// sequential build/review/refine chain. Like IterativeRefinement, the
// Rust original (presets/specialization.rs) was not present in the
// retrieved source; this reproduces the documented `specialization` export
// as the natural "race engine's parallel-fan-out, then score" shape implied
// by its name and by spec.md's own race semantics.
func Specialization(agentKeys []string, taskPrompt string) WorkflowDefinition {
	str := func(v string) *string { return &v }
	ptr := func(v uint64) *uint64 { return &v }

	nodes := make([]WorkflowNode, 0, len(agentKeys)+1)
	buildIDs := make([]string, 0, len(agentKeys))
	for i, agentKey := range agentKeys {
		id := nodeID("build", uint32(i+1))
		buildIDs = append(buildIDs, id)
		nodes = append(nodes, WorkflowNode{
			ID:             id,
			NodeType:       NodeBuild,
			AgentKey:       str(agentKey),
			PromptTemplate: taskPrompt,
			TimeoutSeconds: ptr(600),
		})
	}

	nodes = append(nodes, WorkflowNode{
		ID:             "score",
		NodeType:       NodeScore,
		DependsOn:      buildIDs,
		TimeoutSeconds: ptr(120),
	})

	return WorkflowDefinition{
		Name:        "specialization",
		Description: "Race independent agents on the same prompt and score all attempts",
		Nodes:       nodes,
	}
}

func nodeID(prefix string, n uint32) string {
	const digits = "0123456789"
	if n == 0 {
		return prefix + "-0"
	}
	buf := make([]byte, 0, 4)
	for n > 0 {
		buf = append([]byte{digits[n%10]}, buf...)
		n /= 10
	}
	return prefix + "-" + string(buf)
}
