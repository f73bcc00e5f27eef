package domain

// NextLabel is the caption a presentation layer shows on its forward control.
type NextLabel string

const (
	LabelContinue NextLabel = "continue"
	LabelSubmit   NextLabel = "submit"
)
