package workflow

import (
	"context"
	"fmt"
)

// Node 工作流节点
type Node func(ctx context.Context, s State) State

type namedNode struct {
	name string
	run  Node
}

// transitions 每个状态下节点允许产出的下一状态
var transitions = map[Phase][]Phase{
	PhaseStart:               {PhaseLoadPreferences, PhaseGeneralChat, PhaseError},
	PhaseLoadPreferences:     {PhaseGenerateSearchTerms, PhaseError},
	PhaseGenerateSearchTerms: {PhaseScrapeData, PhaseError},
	PhaseScrapeData:          {PhaseSummarizeData, PhaseFormatReport, PhaseError},
	PhaseSummarizeData:       {PhaseFormatReport, PhaseError},
	PhaseFormatReport:        {PhaseComplete, PhaseError},
	PhaseGeneralChat:         {PhaseComplete, PhaseError},
}

// Allowed 从 from 状态执行节点后能否进入 to
func Allowed(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Graph 状态到节点的注册表
type Graph struct {
	nodes map[Phase]namedNode
}

func newGraph() *Graph {
	return &Graph{nodes: make(map[Phase]namedNode)}
}

// Register 注册在 phase 状态下执行的节点
func (g *Graph) Register(phase Phase, name string, n Node) {
	g.nodes[phase] = namedNode{name: name, run: n}
}

func (g *Graph) lookup(phase Phase) (namedNode, error) {
	n, ok := g.nodes[phase]
	if !ok {
		return namedNode{}, fmt.Errorf("no node registered for phase %s", phase)
	}
	return n, nil
}
