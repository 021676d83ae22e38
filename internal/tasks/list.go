package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nibzard/tagtree/internal/tags"
)

// List is a task file bound to the path it saves to. It resolves task IDs
// for a tag store.
type List struct {
	file  *File
	path  string
	store *tags.Store
	now   func() time.Time
}

// NewList wraps f. An empty path keeps changes in memory.
func NewList(f *File, path string) *List {
	if f == nil {
		f = Empty()
	}
	return &List{file: f, path: path, now: time.Now}
}

// Open loads the task file at path, treating a missing file as empty.
func Open(path string) (*List, error) {
	f, err := LoadOrEmpty(path)
	if err != nil {
		return nil, err
	}
	return NewList(f, path), nil
}

// File returns the underlying task file.
func (l *List) File() *File { return l.file }

// Path returns the file the list saves to.
func (l *List) Path() string { return l.path }

// Tasks returns the tasks in file order.
func (l *List) Tasks() []Task {
	out := make([]Task, len(l.file.Tasks))
	copy(out, l.file.Tasks)
	return out
}

// Save writes the task file.
func (l *List) Save() error {
	if l.path == "" {
		return nil
	}
	return l.file.Save(l.path)
}

// Bind registers every task on its tags in s, creating missing tags, and
// makes the list the requester of s.
func (l *List) Bind(s *tags.Store) error {
	l.store = s
	s.SetRequester(l)
	for _, t := range l.file.Tasks {
		for _, name := range t.Tags {
			tag, err := s.NewTag(name)
			if err != nil {
				return fmt.Errorf("bind task %q: %w", t.ID, err)
			}
			tag.AddTask(t.ID)
		}
	}
	return nil
}

// Add appends a new Active task and saves the file.
func (l *List) Add(title string, tagNames ...string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &ValidationError{Path: "title", Err: fmt.Errorf("missing required field")}
	}
	now := l.now().UTC()
	task := Task{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    StatusActive,
		CreatedAt: &now,
		UpdatedAt: &now,
	}
	for _, name := range tagNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		name = tags.Canonical(name)
		if !task.HasTag(name) {
			task.Tags = append(task.Tags, name)
		}
	}
	l.file.Tasks = append(l.file.Tasks, task)

	if err := l.register(task.ID, task.Tags...); err != nil {
		return nil, err
	}
	if err := l.Save(); err != nil {
		return nil, err
	}
	return l.file.Task(task.ID), nil
}

// Get returns the task with id.
func (l *List) Get(id string) (*Task, error) {
	if t := l.file.Task(id); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
}

// Find resolves a full ID or a unique ID prefix.
func (l *List) Find(ref string) (*Task, error) {
	if t := l.file.Task(ref); t != nil {
		return t, nil
	}
	var match *Task
	for i := range l.file.Tasks {
		if ref != "" && strings.HasPrefix(l.file.Tasks[i].ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous task id %q", ref)
			}
			match = &l.file.Tasks[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, ref)
	}
	return match, nil
}

// SetStatus updates a task's status and saves the file.
func (l *List) SetStatus(id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := l.update(id, func(t *Task) { t.Status = status }); err != nil {
		return err
	}
	return l.Save()
}

// Tag adds a tag to a task, registers the task on it, and saves the file.
func (l *List) Tag(id, name string) error {
	name = tags.Canonical(name)
	err := l.update(id, func(t *Task) {
		if !t.HasTag(name) {
			t.Tags = append(t.Tags, name)
		}
	})
	if err != nil {
		return err
	}
	if err := l.register(id, name); err != nil {
		return err
	}
	return l.Save()
}

// Untag removes a tag from a task and saves the file. The tag itself stays
// in the store.
func (l *List) Untag(id, name string) error {
	name = tags.Canonical(name)
	err := l.update(id, func(t *Task) {
		kept := t.Tags[:0]
		for _, n := range t.Tags {
			if n != name {
				kept = append(kept, n)
			}
		}
		t.Tags = kept
	})
	if err != nil {
		return err
	}
	if l.store != nil {
		if tag, err := l.store.Lookup(name); err == nil {
			tag.RemoveTask(id)
		}
	}
	return l.Save()
}

// GetTask resolves id for the tag store.
func (l *List) GetTask(id string) (tags.Task, error) {
	if l.file.Task(id) == nil {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return &taskRef{list: l, id: id}, nil
}

func (l *List) register(id string, names ...string) error {
	if l.store == nil {
		return nil
	}
	for _, name := range names {
		tag, err := l.store.NewTag(name)
		if err != nil {
			return err
		}
		tag.AddTask(id)
	}
	return nil
}

func (l *List) update(id string, fn func(*Task)) error {
	t := l.file.Task(id)
	if t == nil {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	fn(t)
	now := l.now().UTC()
	t.UpdatedAt = &now
	return nil
}

// InWorkview reports whether the task with id belongs in the workview while
// context is being browsed. context may be nil.
func (l *List) InWorkview(id string, context *tags.Tag) bool {
	t := l.file.Task(id)
	if t == nil || t.Status != StatusActive {
		return false
	}
	start, err := t.Start()
	if err != nil {
		return false
	}
	if !start.IsZero() {
		now := l.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if start.After(today) {
			return false
		}
	}
	for _, sub := range t.Subtasks {
		if st := l.file.Task(sub); st != nil && st.Status == StatusActive {
			return false
		}
	}
	if l.store == nil {
		return true
	}
	for _, name := range t.Tags {
		tag, err := l.store.Lookup(name)
		if err != nil {
			continue
		}
		if tag.IsNonWorkview() && tag != context {
			return false
		}
	}
	return true
}

// taskRef is the view of a task handed to the tag store.
type taskRef struct {
	list *List
	id   string
}

func (r *taskRef) Status() string {
	if t := r.list.file.Task(r.id); t != nil {
		return string(t.Status)
	}
	return ""
}

func (r *taskRef) InWorkview(context *tags.Tag) bool {
	return r.list.InWorkview(r.id, context)
}

func (r *taskRef) RenameTag(oldName, newName string) error {
	err := r.list.update(r.id, func(t *Task) {
		for i, n := range t.Tags {
			if n == oldName {
				t.Tags[i] = newName
			}
		}
	})
	if err != nil {
		return err
	}
	return r.list.Save()
}
