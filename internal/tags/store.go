package tags

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tagtree/internal/tree"
)

// Sigil prefixes user tag names.
const Sigil = "@"

// Built-in pseudo-tags. They are never persisted or renamed.
const (
	AllTagsName = "gtg-tags-all"
	NoTagsName  = "gtg-tags-none"
)

// Canonical prefixes name with the sigil unless it already has it.
func Canonical(name string) string {
	if strings.HasPrefix(name, Sigil) {
		return name
	}
	return Sigil + name
}

// IsProtected reports whether t is a built-in or special tag.
func IsProtected(t *Tag) bool {
	return isBuiltinName(t.name) || t.isSpecial()
}

func isBuiltinName(name string) bool {
	return name == AllTagsName || name == NoTagsName
}

// Store owns every tag and the file they are persisted to.
type Store struct {
	index  *tree.Index[*Tag]
	path   string
	req    Requester
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and save diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBuiltins adds the "all tags" and "no tags" pseudo-tags.
func WithBuiltins() Option {
	return func(s *Store) {
		s.addSpecial(AllTagsName, "all", "gtg-tags-all")
		s.addSpecial(NoTagsName, "notag", "gtg-tags-none")
	}
}

// New returns an empty store persisted at path. An empty path keeps the
// store in memory only.
func New(path string, req Requester, opts ...Option) *Store {
	s := &Store{
		index:  tree.New[*Tag](),
		path:   path,
		req:    req,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads path into it.
func Open(path string, req Requester, opts ...Option) (*Store, error) {
	s := New(path, req, opts...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the file the store is saved to.
func (s *Store) Path() string { return s.path }

// Len returns the number of tags, built-ins included.
func (s *Store) Len() int { return s.index.Len() }

// Requester returns the task resolver.
func (s *Store) Requester() Requester { return s.req }

// SetRequester replaces the task resolver.
func (s *Store) SetRequester(req Requester) { s.req = req }

// Load reads the store file. A missing file is created empty. Loading never
// writes an existing file.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("creating empty tag store", "path", s.path)
		return writeDocument(s.path, nil)
	}
	if err != nil {
		return fmt.Errorf("read tag store: %w", err)
	}

	recs, skipped, err := parseDocument(data)
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	for _, msg := range skipped {
		s.logger.Warn("skipping tag store element", "path", s.path, "reason", msg)
	}

	for _, rec := range recs {
		tag, err := s.NewTag(rec.Name)
		if err != nil {
			return err
		}
		for _, a := range rec.Attrs {
			if a.Key == AttrName || (a.Key == AttrParent && a.Value == "") {
				continue
			}
			tag.attrs[a.Key] = a.Value
		}
		parent, ok := tag.attrs[AttrParent]
		if !ok || parent == "" {
			continue
		}
		ptag, err := s.NewTag(parent)
		if err != nil {
			return err
		}
		if err := tag.Reparent(ptag, false); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMalformedDocument, s.path, err)
		}
	}
	s.logger.Debug("loaded tag store", "path", s.path, "tags", len(recs))
	return nil
}

// Create adds a new tag named exactly name.
func (s *Store) Create(name string) (*Tag, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if s.index.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrExists, name)
	}
	t := newTag(name, s)
	if err := s.index.Add(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Lookup returns the tag named exactly name.
func (s *Store) Lookup(name string) (*Tag, error) {
	return s.index.Get(name)
}

// NewTag returns the tag named name, creating it if needed.
func (s *Store) NewTag(name string) (*Tag, error) {
	if t, err := s.index.Get(name); err == nil {
		return t, nil
	}
	return s.Create(name)
}

// GetTag looks a tag up by name, adding the sigil if it is missing.
func (s *Store) GetTag(name string) (*Tag, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	return s.index.Get(Canonical(name))
}

// AddTag inserts t, or merges it into the tag of the same name. On merge
// only non-empty attribute values are copied, so attributes the existing
// tag has and t lacks survive.
func (s *Store) AddTag(t *Tag) error {
	if t == nil || t.name == "" {
		return ErrInvalidName
	}
	existing, err := s.index.Get(t.name)
	if err != nil {
		if t.store != nil && t.store != s {
			return fmt.Errorf("%w: %q", ErrForeignTag, t.name)
		}
		t.store = s
		if err := s.index.Add(t); err != nil {
			t.store = nil
			return err
		}
		if err := s.attachParent(t); err != nil {
			// t is new, so it has no children to strand.
			_ = s.index.Remove(t.name)
			t.store = nil
			return err
		}
		return s.Save()
	}
	if existing == t {
		return nil
	}
	for _, name := range t.AttributeNames(true) {
		v := t.attrs[name]
		if v == "" {
			continue
		}
		if err := existing.SetAttribute(name, v); err != nil {
			return err
		}
	}
	return nil
}

// attachParent links a freshly inserted tag to the parent named by its
// parent attribute. A parent created here is dropped again on failure.
func (s *Store) attachParent(t *Tag) error {
	parent := t.attrs[AttrParent]
	if parent == "" {
		return nil
	}
	created := !s.index.Has(parent)
	ptag, err := s.NewTag(parent)
	if err != nil {
		return err
	}
	if err := t.Reparent(ptag, false); err != nil {
		if created && ptag != t {
			_ = s.index.Remove(ptag.name)
			ptag.store = nil
		}
		return fmt.Errorf("add %q: parent %q: %w", t.name, parent, err)
	}
	return nil
}

// RenameTag replaces the tag oldName with a new tag carrying its
// attributes, parent, children and tasks, and returns the new tag. Tasks
// are told about the rename through the requester before the store
// changes; if one refuses, tasks already told are renamed back and the
// store is left as it was.
func (s *Store) RenameTag(oldName, newName string) (*Tag, error) {
	if newName == "" {
		return nil, &RenameError{Old: oldName, New: newName, Reason: "empty name"}
	}
	if isBuiltinName(oldName) {
		return nil, &RenameError{Old: oldName, New: newName, Reason: "built-in tag"}
	}
	newName = Canonical(newName)
	if newName == oldName {
		return nil, &RenameError{Old: oldName, New: newName, Reason: "name unchanged"}
	}
	if s.index.Has(newName) {
		return nil, &RenameError{Old: oldName, New: newName, Reason: "name in use"}
	}
	old, err := s.index.Get(oldName)
	if err != nil {
		return nil, err
	}
	if old.isSpecial() {
		return nil, &RenameError{Old: oldName, New: newName, Reason: "special tag"}
	}

	// Resolve tasks before touching anything so a dangling ID leaves the
	// store as it was.
	var tasks []Task
	if s.req != nil {
		for _, id := range old.tasks {
			task, err := s.req.GetTask(id)
			if err != nil {
				return nil, fmt.Errorf("rename %q: resolve task %q: %w", oldName, id, err)
			}
			tasks = append(tasks, task)
		}
	}

	for i, task := range tasks {
		if err := task.RenameTag(oldName, newName); err != nil {
			for _, done := range tasks[:i] {
				if rerr := done.RenameTag(newName, oldName); rerr != nil {
					s.logger.Warn("undo task rename", "old", oldName, "new", newName, "err", rerr)
				}
			}
			return nil, fmt.Errorf("rename %q on task: %w", oldName, err)
		}
	}

	ntag, err := s.NewTag(newName)
	if err != nil {
		return nil, err
	}
	for _, name := range old.AttributeNames(true) {
		if name == AttrParent {
			continue
		}
		ntag.attrs[name] = old.attrs[name]
	}
	if err := s.Save(); err != nil {
		return nil, err
	}
	if parent := old.Parent(); parent != nil {
		if err := ntag.Reparent(parent, true); err != nil {
			return nil, err
		}
	}
	for _, child := range old.Children() {
		if err := child.Reparent(ntag, true); err != nil {
			return nil, err
		}
	}
	for _, id := range old.tasks {
		ntag.AddTask(id)
	}
	if err := s.index.Remove(oldName); err != nil {
		return nil, err
	}
	old.store = nil
	s.logger.Debug("renamed tag", "old", oldName, "new", newName)
	return ntag, s.Save()
}

// RemoveTag deletes an unused tag. Its children move to its parent.
func (s *Store) RemoveTag(name string) error {
	t, err := s.index.Get(name)
	if err != nil {
		return err
	}
	if IsProtected(t) {
		return fmt.Errorf("%w: %q", ErrProtected, name)
	}
	if t.IsUsed() {
		return fmt.Errorf("%w: %q has %d tasks", ErrTagInUse, name, len(t.tasks))
	}
	parent := t.Parent()
	for _, child := range t.Children() {
		if err := child.Reparent(parent, true); err != nil {
			return err
		}
	}
	if err := s.index.Remove(name); err != nil {
		return err
	}
	t.store = nil
	return s.Save()
}

// Filter selects tags in AllTags and AllTagNames.
type Filter func(*Tag) bool

// HasAttribute keeps tags whose attr equals value. Tags without attr are
// dropped whatever value is.
func HasAttribute(attr, value string) Filter {
	return func(t *Tag) bool {
		v, ok := t.attrs[attr]
		return ok && v == value
	}
}

// AllTags returns the tags passing every filter, ordered by name.
func (s *Store) AllTags(filters ...Filter) []*Tag {
	var out []*Tag
next:
	for _, t := range s.index.Nodes() {
		for _, f := range filters {
			if !f(t) {
				continue next
			}
		}
		out = append(out, t)
	}
	return out
}

// AllTagNames is AllTags reduced to names.
func (s *Store) AllTagNames(filters ...Filter) []string {
	tags := s.AllTags(filters...)
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name())
	}
	return names
}

// Roots returns the parentless tags ordered by name.
func (s *Store) Roots() []*Tag {
	return s.lookupAll(s.index.Roots())
}

// Save writes every persistable tag in one write. Tags marked special or
// without attributes besides the name are left out.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	var recs []record
	seen := make(map[string]struct{})
	for _, t := range s.index.Nodes() {
		if t.isSpecial() {
			continue
		}
		names := t.AttributeNames(true)
		if len(names) == 0 {
			continue
		}
		if _, dup := seen[t.name]; dup {
			continue
		}
		seen[t.name] = struct{}{}
		rec := record{Name: t.name}
		for _, n := range names {
			rec.Attrs = append(rec.Attrs, attr{Key: n, Value: t.attrs[n]})
		}
		recs = append(recs, rec)
	}
	if err := writeDocument(s.path, recs); err != nil {
		return err
	}
	s.logger.Debug("saved tag store", "path", s.path, "tags", len(recs))
	return nil
}

func (s *Store) addSpecial(name, kind, icon string) {
	t, err := s.NewTag(name)
	if err != nil {
		return
	}
	t.attrs[AttrSpecial] = kind
	t.attrs[AttrIcon] = icon
}

func (s *Store) lookupAll(keys []string) []*Tag {
	out := make([]*Tag, 0, len(keys))
	for _, k := range keys {
		if t, err := s.index.Get(k); err == nil {
			out = append(out, t)
		}
	}
	return out
}
