package tags

// StatusActive is the task status counted as active.
const StatusActive = "Active"

// Task is the view of a task record that the tag store needs.
type Task interface {
	// Status returns the task status, e.g. "Active" or "Done".
	Status() string
	// InWorkview reports whether the task belongs in the workview. A non-nil
	// context tag is treated as visible even when it opts out of the
	// workview.
	InWorkview(context *Tag) bool
	// RenameTag replaces oldName with newName on the task record.
	RenameTag(oldName, newName string) error
}

// Requester resolves task IDs held by tags.
type Requester interface {
	GetTask(id string) (Task, error)
}
