package domain

// StateDiff represents the changes between two states.
// It is designed to be serialized to JSON for partial updates on the client.
type StateDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentNodeID *string `json:"current_node_id,omitempty"`
	Status        *Status `json:"status,omitempty"`
	Position      *int    `json:"position,omitempty"`

	// Answers contains only added or modified answers. Answers are never
	// deleted so there is no removal marker.
	Answers map[string]string `json:"answers,omitempty"`

	// Path describes how the path changed: entries dropped from the tail
	// (retreat) and entries appended (advance).
	Path *PathDelta `json:"path,omitempty"`
}

// PathDelta represents changes to the path stack.
type PathDelta struct {
	Removed  int         `json:"removed,omitempty"`
	Appended []PathEntry `json:"appended,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(oldState, newState *State) *StateDiff {
	if newState == nil {
		return nil
	}

	diff := &StateDiff{SessionID: newState.SessionID}

	if oldState == nil || oldState.CurrentNodeID != newState.CurrentNodeID {
		id := newState.CurrentNodeID
		diff.CurrentNodeID = &id
	}
	if oldState == nil || oldState.Status != newState.Status {
		st := newState.Status
		diff.Status = &st
	}
	if oldState == nil || oldState.Position != newState.Position {
		pos := newState.Position
		diff.Position = &pos
	}

	diff.Answers = diffAnswers(oldState, newState)
	diff.Path = diffPath(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old, new *State) map[string]string {
	delta := make(map[string]string)
	for k, v := range new.Answers {
		if old == nil {
			delta[k] = v
			continue
		}
		if prev, ok := old.Answers[k]; !ok || prev != v {
			delta[k] = v
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffPath finds the common prefix of both paths and reports the rest.
func diffPath(old, new *State) *PathDelta {
	var oldPath []PathEntry
	if old != nil {
		oldPath = old.Path
	}
	common := 0
	for common < len(oldPath) && common < len(new.Path) && oldPath[common] == new.Path[common] {
		common++
	}
	removed := len(oldPath) - common
	appended := new.Path[common:]
	if removed == 0 && len(appended) == 0 {
		return nil
	}
	d := &PathDelta{Removed: removed}
	if len(appended) > 0 {
		d.Appended = append([]PathEntry(nil), appended...)
	}
	return d
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentNodeID == nil &&
		d.Status == nil &&
		d.Position == nil &&
		len(d.Answers) == 0 &&
		d.Path == nil
}
