package graph

import (
	"fmt"
	"strings"

	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayFor builds the overlay of a session state. A nil state gives a nil overlay.
func OverlayFor(state *domain.State) *GraphOverlay {
	if state == nil {
		return nil
	}
	return &GraphOverlay{
		VisitedNodes: append([]string(nil), state.History...),
		CurrentNode:  state.CurrentNodeID,
	}
}

// GenerateMermaid produces a Mermaid flowchart from a survey graph.
// It applies semantic styling:
// - First node: ((Circle))
// - Auto (hidden fork): {{Hexagon}}
// - Choice: [/Parallelogram/]
// - Informational: [Rectangle]
// - Submit: ([Stadium])
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	first, _ := g.First()
	usesSubmit := false

	for _, node := range g.Nodes() {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case first != nil && node.ID == first.ID:
			opener, closer = "((", "))"
		case node.Kind == domain.KindAuto:
			opener, closer = "{{", "}}"
		case node.Kind == domain.KindChoice:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(node.ID), closer)

		rule := node.Rule
		switch rule.Kind {
		case domain.RuleTerminal:
			usesSubmit = true
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, domain.SubmitTarget)
		case domain.RuleDefault:
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, sanitizeMermaidID(rule.Target))
		case domain.RuleRandom:
			for _, t := range rule.Targets {
				fmt.Fprintf(&sb, "    %s -. \"random\" .-> %s\n", safeID, sanitizeMermaidID(t))
			}
		case domain.RuleConditional:
			for _, c := range rule.Clauses {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(c.Trigger), sanitizeMermaidID(c.Target))
			}
			// Unmatched answers fall through to submit.
			usesSubmit = true
			fmt.Fprintf(&sb, "    %s -. \"otherwise\" .-> %s\n", safeID, domain.SubmitTarget)
		}
		for _, t := range rule.AllTargets() {
			if t == domain.SubmitTarget {
				usesSubmit = true
			}
		}
	}

	if usesSubmit {
		fmt.Fprintf(&sb, "    %s([\"%s\"])\n", domain.SubmitTarget, domain.SubmitTarget)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// escapeLabel swaps double quotes, which would end a Mermaid label.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
