package graph_test

import (
	"strings"
	"testing"

	"github.com/Lokiragnarock/srm-cia-survey/internal/compiler"
	"github.com/Lokiragnarock/srm-cia-survey/internal/presentation/graph"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		records  []domain.Record
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name: "Node Shapes",
			records: []domain.Record{
				{QID: "intro", Type: "image", BranchLogic: "default:fork"},
				{QID: "fork", Type: "randomizer", BranchLogic: "random:q1|info"},
				{QID: "q1", Type: "radio", Options: "A", BranchLogic: "default:submit"},
				{QID: "info", Type: "image"},
			},
			contains: []string{
				`intro(("intro"))`,
				`fork{{"fork"}}`,
				`q1[/"q1"/]`,
				`info["info"]`,
				`submit(["submit"])`,
			},
		},
		{
			name: "Edges",
			records: []domain.Record{
				{QID: "role", Type: "radio", Options: "Manager|IC", BranchLogic: "Manager:q-a|IC:q.b"},
				{QID: "q-a", Type: "radio", Options: "A", BranchLogic: "random:q.b|submit"},
				{QID: "q.b", Type: "image"},
			},
			contains: []string{
				`role -- "Manager" --> q_a`,
				`role -- "IC" --> q_b`,
				`role -. "otherwise" .-> submit`,
				`q_a -. "random" .-> q_b`,
				`q_a -. "random" .-> submit`,
				`q_b --> submit`,
			},
		},
		{
			name: "Overlay",
			records: []domain.Record{
				{QID: "q1", Type: "radio", Options: "A", BranchLogic: "default:q2"},
				{QID: "q2", Type: "image", BranchLogic: "default:q3"},
				{QID: "q3", Type: "image"},
			},
			overlay: &graph.GraphOverlay{VisitedNodes: []string{"q1", "q2", "q1"}, CurrentNode: "q3"},
			contains: []string{
				"class q1 visited;",
				"class q2 visited;",
				"class q3 current;",
			},
		},
		{
			name: "No Overlay",
			records: []domain.Record{
				{QID: "q1", Type: "image"},
			},
			excludes: []string{"classDef"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := compiler.Compile(tt.records)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got := graph.GenerateMermaid(g, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
			if strings.Count(got, "class q1 visited;") > 1 {
				t.Error("visited nodes should be deduplicated")
			}
		})
	}
}

func TestOverlayFor(t *testing.T) {
	if graph.OverlayFor(nil) != nil {
		t.Error("nil state should give nil overlay")
	}
	state := domain.NewState("s1", "q2")
	state.History = []string{"q1"}
	o := graph.OverlayFor(state)
	if o.CurrentNode != "q2" || len(o.VisitedNodes) != 1 {
		t.Errorf("unexpected overlay %+v", o)
	}
}
