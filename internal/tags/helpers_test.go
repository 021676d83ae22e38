package tags

import (
	"fmt"
	"path/filepath"
	"testing"
)

type fakeTask struct {
	status    string
	workview  bool
	inContext bool
	tags      []string
	renameErr error
}

func (f *fakeTask) Status() string { return f.status }

func (f *fakeTask) InWorkview(context *Tag) bool {
	if context != nil {
		return f.inContext
	}
	return f.workview
}

func (f *fakeTask) RenameTag(oldName, newName string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	for i, name := range f.tags {
		if name == oldName {
			f.tags[i] = newName
		}
	}
	return nil
}

type fakeRequester map[string]*fakeTask

func (r fakeRequester) GetTask(id string) (Task, error) {
	task, ok := r[id]
	if !ok {
		return nil, fmt.Errorf("task %q: %w", id, ErrNotFound)
	}
	return task, nil
}

func newTestStore(t *testing.T, req Requester, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tags.xml")
	s, err := Open(path, req, opts...)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func mustTag(t *testing.T, s *Store, name string) *Tag {
	t.Helper()
	tag, err := s.NewTag(name)
	if err != nil {
		t.Fatalf("NewTag(%q): %v", name, err)
	}
	return tag
}

func mustSet(t *testing.T, tag *Tag, name string, value any) {
	t.Helper()
	if err := tag.SetAttribute(name, value); err != nil {
		t.Fatalf("SetAttribute(%q, %v) on %s: %v", name, value, tag.Name(), err)
	}
}
