package domain

import "strings"

// Record is one row of survey configuration as it arrives from a loader.
// Field names follow the spreadsheet header used by the survey backend.
type Record struct {
	QID          string `json:"q_id" yaml:"q_id" mapstructure:"q_id" hcl:"id,label"`
	Section      string `json:"section,omitempty" yaml:"section,omitempty" mapstructure:"section" hcl:"section,optional"`
	Type         string `json:"type" yaml:"type" mapstructure:"type" hcl:"type,optional"`
	QuestionText string `json:"question_text" yaml:"question_text" mapstructure:"question_text" hcl:"question_text,optional"`
	Options      string `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options" hcl:"options,optional"`
	ImageURL     string `json:"image_url,omitempty" yaml:"image_url,omitempty" mapstructure:"image_url" hcl:"image_url,optional"`
	BranchLogic  string `json:"branch_logic,omitempty" yaml:"branch_logic,omitempty" mapstructure:"branch_logic" hcl:"branch_logic,optional"`
}

// RecordHeader is the column order of the configuration sheet.
var RecordHeader = []string{"q_id", "section", "type", "question_text", "options", "image_url", "branch_logic"}

// OptionLabels splits the options column on "|" and drops blank labels.
func (r Record) OptionLabels() []string {
	if blank(r.Options) {
		return nil
	}
	var out []string
	for _, o := range strings.Split(r.Options, "|") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// blank treats whitespace and the literal "null" as an empty cell.
func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "null"
}

// CleanCell returns s trimmed, or "" if the cell is blank.
func CleanCell(s string) string {
	if blank(s) {
		return ""
	}
	return strings.TrimSpace(s)
}
