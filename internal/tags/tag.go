package tags

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Well-known attribute names.
const (
	AttrName        = "name"
	AttrParent      = "parent"
	AttrSpecial     = "special"
	AttrIcon        = "icon"
	AttrNonWorkview = "nonworkview"
)

// Tag is a named node of the hierarchy.
type Tag struct {
	name  string
	attrs map[string]string
	tasks []string
	store *Store
}

// NewDetached builds a tag that belongs to no store. It is meant as input
// for Store.AddTag. Any "name" entry in attrs is ignored.
func NewDetached(name string, attrs map[string]string) *Tag {
	t := newTag(name, nil)
	for k, v := range attrs {
		if k == AttrName {
			continue
		}
		t.attrs[k] = v
	}
	return t
}

func newTag(name string, s *Store) *Tag {
	return &Tag{
		name:  name,
		attrs: map[string]string{AttrName: name},
		store: s,
	}
}

// Key implements tree.Node.
func (t *Tag) Key() string { return t.name }

// Name returns the tag name.
func (t *Tag) Name() string { return t.attrs[AttrName] }

func (t *Tag) String() string { return "Tag: " + t.name }

// SetAttribute stores value as text under name and saves the store.
//
// Setting "parent" moves the tag under the named tag, creating it if
// needed; an empty value detaches the tag.
func (t *Tag) SetAttribute(name string, value any) error {
	if name == AttrName {
		return fmt.Errorf("%w: %q", ErrReadOnlyAttribute, name)
	}
	if !validAttrName(name) {
		return fmt.Errorf("%w: attribute name %q", ErrEncoding, name)
	}
	text, err := toText(value)
	if err != nil {
		return fmt.Errorf("attribute %q: %w", name, err)
	}
	if name == AttrParent && t.store != nil {
		if text == "" {
			return t.Reparent(nil, true)
		}
		parent, err := t.store.NewTag(text)
		if err != nil {
			return err
		}
		return t.Reparent(parent, true)
	}
	t.attrs[name] = text
	return t.save()
}

// Attribute returns the value of name.
func (t *Tag) Attribute(name string) (string, bool) {
	v, ok := t.attrs[name]
	return v, ok
}

// DeleteAttribute removes name. Removing an absent attribute does nothing.
func (t *Tag) DeleteAttribute(name string) error {
	if name == AttrName {
		return fmt.Errorf("%w: %q", ErrReadOnlyAttribute, name)
	}
	if _, ok := t.attrs[name]; !ok {
		return nil
	}
	if name == AttrParent && t.store != nil {
		return t.Reparent(nil, true)
	}
	delete(t.attrs, name)
	return t.save()
}

// AttributeNames returns the attribute names in sorted order.
func (t *Tag) AttributeNames(excludeName bool) []string {
	names := make([]string, 0, len(t.attrs))
	for k := range t.attrs {
		if excludeName && k == AttrName {
			continue
		}
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Attributes returns a copy of the attribute map.
func (t *Tag) Attributes() map[string]string {
	out := make(map[string]string, len(t.attrs))
	for k, v := range t.attrs {
		out[k] = v
	}
	return out
}

// Parent returns the parent tag or nil.
func (t *Tag) Parent() *Tag {
	if t.store == nil {
		return nil
	}
	key, ok := t.store.index.Parent(t.name)
	if !ok {
		return nil
	}
	p, err := t.store.index.Get(key)
	if err != nil {
		return nil
	}
	return p
}

// Children returns the direct children ordered by name.
func (t *Tag) Children() []*Tag {
	if t.store == nil {
		return nil
	}
	return t.store.lookupAll(t.store.index.Children(t.name))
}

// AllChildren returns t followed by all of its descendants in pre-order.
func (t *Tag) AllChildren() []*Tag {
	out := []*Tag{t}
	if t.store == nil {
		return out
	}
	return append(out, t.store.lookupAll(t.store.index.Descendants(t.name))...)
}

// Reparent moves t under parent, or makes it a root when parent is nil.
// When updateAttr is set the "parent" attribute follows the move and the
// store is saved.
func (t *Tag) Reparent(parent *Tag, updateAttr bool) error {
	if t.store == nil {
		return fmt.Errorf("reparent %q: detached tag", t.name)
	}
	key := ""
	if parent != nil {
		if parent.store != t.store {
			return fmt.Errorf("%w: %q", ErrForeignTag, parent.name)
		}
		key = parent.name
	}
	if err := t.store.index.SetParent(t.name, key); err != nil {
		return err
	}
	if !updateAttr {
		return nil
	}
	if parent != nil {
		t.attrs[AttrParent] = key
	} else {
		delete(t.attrs, AttrParent)
	}
	return t.save()
}

// AddTask attaches a task ID. Adding an ID twice has no effect.
func (t *Tag) AddTask(id string) {
	for _, have := range t.tasks {
		if have == id {
			return
		}
	}
	t.tasks = append(t.tasks, id)
}

// RemoveTask detaches a task ID if present.
func (t *Tag) RemoveTask(id string) {
	for i, have := range t.tasks {
		if have == id {
			t.tasks = append(t.tasks[:i], t.tasks[i+1:]...)
			return
		}
	}
}

// OwnTasks returns the task IDs attached directly to t.
func (t *Tag) OwnTasks() []string {
	return append([]string(nil), t.tasks...)
}

// Tasks returns the own task IDs followed by those of all descendants,
// each ID once.
func (t *Tag) Tasks() []string {
	out := t.OwnTasks()
	seen := make(map[string]struct{}, len(out))
	for _, id := range out {
		seen[id] = struct{}{}
	}
	for _, c := range t.Children() {
		for _, id := range c.Tasks() {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// TaskCount counts the tasks of t and its descendants. Without workview it
// counts active tasks. With workview it counts tasks in the workview, using
// t as context when t opts out of the workview.
func (t *Tag) TaskCount(workview bool) (int, error) {
	req := t.requester()
	if req == nil {
		return 0, ErrNoRequester
	}
	optOut := t.isNonWorkview()
	n := 0
	for _, id := range t.Tasks() {
		task, err := req.GetTask(id)
		if err != nil {
			return 0, fmt.Errorf("resolve task %q: %w", id, err)
		}
		var ok bool
		switch {
		case workview && optOut:
			ok = task.InWorkview(t)
		case workview:
			ok = task.InWorkview(nil)
		default:
			ok = task.Status() == StatusActive
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// IsUsed reports whether any task is attached directly to t.
func (t *Tag) IsUsed() bool {
	return len(t.tasks) > 0
}

// IsActivelyUsed reports whether any task attached directly to t is active.
func (t *Tag) IsActivelyUsed() (bool, error) {
	if len(t.tasks) == 0 {
		return false, nil
	}
	req := t.requester()
	if req == nil {
		return false, ErrNoRequester
	}
	for _, id := range t.tasks {
		task, err := req.GetTask(id)
		if err != nil {
			return false, fmt.Errorf("resolve task %q: %w", id, err)
		}
		if task.Status() == StatusActive {
			return true, nil
		}
	}
	return false, nil
}

// IsNonWorkview reports whether t opts out of the workview.
func (t *Tag) IsNonWorkview() bool { return t.isNonWorkview() }

func (t *Tag) isNonWorkview() bool {
	return strings.EqualFold(t.attrs[AttrNonWorkview], "true")
}

func (t *Tag) isSpecial() bool {
	_, ok := t.attrs[AttrSpecial]
	return ok
}

func (t *Tag) requester() Requester {
	if t.store == nil {
		return nil
	}
	return t.store.req
}

func (t *Tag) save() error {
	if t.store == nil {
		return nil
	}
	return t.store.Save()
}

// toText converts an attribute value to its stored form. Booleans use the
// "True"/"False" spelling found in existing tag files.
func toText(value any) (string, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case bool:
		if v {
			s = "True"
		} else {
			s = "False"
		}
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		s = fmt.Sprint(v)
	case fmt.Stringer:
		s = v.String()
	case nil:
		return "", fmt.Errorf("%w: nil value", ErrEncoding)
	default:
		return "", fmt.Errorf("%w: %T", ErrEncoding, value)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: invalid UTF-8", ErrEncoding)
	}
	for _, r := range s {
		if !xmlChar(r) {
			return "", fmt.Errorf("%w: character %U", ErrEncoding, r)
		}
	}
	return s, nil
}

// xmlChar reports whether r may appear in an XML 1.0 document.
func xmlChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}

func validAttrName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case unicode.IsLetter(r), r == '_', r == ':':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
