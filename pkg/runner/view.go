package runner

import (
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
)

// Choice is one selectable option with the caption the forward control
// would show if it were picked.
type Choice struct {
	Label string           `json:"label"`
	Next  domain.NextLabel `json:"next"`
}

// View is everything a presentation layer needs to show one step of a
// session. The terminal runner, the HTTP API and the MCP server all
// render from it.
type View struct {
	SessionID string        `json:"session_id"`
	Status    domain.Status `json:"status"`
	Position  int           `json:"position"`
	Progress  float64       `json:"progress"`

	NodeID   string      `json:"node_id,omitempty"`
	Kind     domain.Kind `json:"kind,omitempty"`
	Section  string      `json:"section,omitempty"`
	Prompt   string      `json:"prompt,omitempty"`
	ImageURL string      `json:"image_url,omitempty"`
	Choices  []Choice    `json:"choices,omitempty"`

	// PreviousAnswer pre-fills a node revisited after a retreat.
	PreviousAnswer string `json:"previous_answer,omitempty"`
	// NextLabel is only set when it is known: for informational nodes, or
	// once an answer is present.
	NextLabel domain.NextLabel `json:"next_label,omitempty"`

	CanRetreat bool               `json:"can_retreat"`
	Path       []domain.PathEntry `json:"path"`
}

// NewView builds the view of state.
func NewView(engine ports.SurveyEngine, state *domain.State) (*View, error) {
	v := &View{
		SessionID:  state.SessionID,
		Status:     state.Status,
		Position:   state.Position,
		Progress:   engine.Progress(state),
		CanRetreat: len(state.History) > 0,
		Path:       append([]domain.PathEntry{}, state.Path...),
	}

	node, err := engine.CurrentNode(state)
	if err != nil {
		return nil, err
	}
	if node == nil {
		v.NextLabel = domain.LabelSubmit
		return v, nil
	}

	v.NodeID = node.ID
	v.Kind = node.Kind
	v.Section = node.Section
	v.Prompt = node.Prompt
	v.ImageURL = node.ImageURL
	v.PreviousAnswer, _ = state.Answer(node.ID)
	for _, label := range node.ChoiceLabels {
		v.Choices = append(v.Choices, Choice{Label: label, Next: engine.PeekNextLabel(state, label)})
	}

	if node.Kind == domain.KindInformational || v.PreviousAnswer != "" {
		v.NextLabel = engine.PeekNextLabel(state, v.PreviousAnswer)
	}
	return v, nil
}
