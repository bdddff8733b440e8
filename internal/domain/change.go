package domain

// ChangeKind classifies a change-feed record.
type ChangeKind string

const (
	ChangeInsert ChangeKind = "INSERT"
	ChangeModify ChangeKind = "MODIFY"
	ChangeRemove ChangeKind = "REMOVE"
)

// ChangeEvent is one document change observed on a table's change feed.
type ChangeEvent struct {
	Table    string
	Kind     ChangeKind
	Keys     Document
	OldImage Document
	NewImage Document
}
