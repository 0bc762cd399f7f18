package constants

// ItemStatus is the lifecycle state of an upload queue item.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemProcessing ItemStatus = "processing"
	ItemDone       ItemStatus = "done"
	ItemError      ItemStatus = "error"
)

// ItemSource tells whether a queue item carries a document or pasted text.
type ItemSource string

const (
	SourceFile ItemSource = "file"
	SourceText ItemSource = "text"
)

// UnknownCourse is used when the model does not name the course.
const UnknownCourse = "Unknown Course"
