package tags

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSetAttribute(t *testing.T) {
	s := newTestStore(t, nil)
	tag := mustTag(t, s, "@work")

	t.Run("name is read-only", func(t *testing.T) {
		err := tag.SetAttribute(AttrName, "@other")
		if !errors.Is(err, ErrReadOnlyAttribute) {
			t.Fatalf("got %v, want ErrReadOnlyAttribute", err)
		}
		if tag.Name() != "@work" {
			t.Errorf("Name: got %q, want @work", tag.Name())
		}
	})

	t.Run("values are converted to text", func(t *testing.T) {
		tests := []struct {
			value any
			want  string
		}{
			{"red", "red"},
			{42, "42"},
			{int64(-7), "-7"},
			{1.5, "1.5"},
			{true, "True"},
			{false, "False"},
			{2 * time.Second, "2s"},
			{[]byte("raw"), "raw"},
		}
		for _, tt := range tests {
			mustSet(t, tag, "value", tt.value)
			got, _ := tag.Attribute("value")
			if got != tt.want {
				t.Errorf("SetAttribute(%#v): got %q, want %q", tt.value, got, tt.want)
			}
		}
	})

	t.Run("unrepresentable values fail", func(t *testing.T) {
		tests := []struct {
			name  string
			value any
		}{
			{"channel", make(chan int)},
			{"nil", nil},
			{"invalid utf8", string([]byte{0xff, 0xfe})},
			{"control character", "bell\x07"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tag.SetAttribute("bad", tt.value)
				if !errors.Is(err, ErrEncoding) {
					t.Fatalf("got %v, want ErrEncoding", err)
				}
				if _, ok := tag.Attribute("bad"); ok {
					t.Error("failed set must not store a value")
				}
			})
		}
	})

	t.Run("attribute names must be XML names", func(t *testing.T) {
		for _, name := range []string{"", "two words", "1st", "a<b"} {
			if err := tag.SetAttribute(name, "x"); !errors.Is(err, ErrEncoding) {
				t.Errorf("SetAttribute(%q): got %v, want ErrEncoding", name, err)
			}
		}
	})

	t.Run("parent attribute moves the tag", func(t *testing.T) {
		child := mustTag(t, s, "@child")
		mustSet(t, child, AttrParent, "@created-on-demand")

		parent, err := s.Lookup("@created-on-demand")
		if err != nil {
			t.Fatalf("parent not created: %v", err)
		}
		if child.Parent() != parent {
			t.Errorf("Parent: got %v, want %v", child.Parent(), parent)
		}

		mustSet(t, child, AttrParent, "")
		if child.Parent() != nil {
			t.Error("empty parent value must detach")
		}
		if _, ok := child.Attribute(AttrParent); ok {
			t.Error("parent attribute must be cleared")
		}
	})
}

func TestDeleteAttribute(t *testing.T) {
	s := newTestStore(t, nil)
	tag := mustTag(t, s, "@home")
	mustSet(t, tag, "color", "blue")

	if err := tag.DeleteAttribute("color"); err != nil {
		t.Fatalf("DeleteAttribute: %v", err)
	}
	if _, ok := tag.Attribute("color"); ok {
		t.Error("color still present")
	}
	if err := tag.DeleteAttribute("missing"); err != nil {
		t.Errorf("deleting an absent attribute: got %v, want nil", err)
	}
	if err := tag.DeleteAttribute(AttrName); !errors.Is(err, ErrReadOnlyAttribute) {
		t.Errorf("deleting name: got %v, want ErrReadOnlyAttribute", err)
	}

	parent := mustTag(t, s, "@p")
	if err := tag.Reparent(parent, true); err != nil {
		t.Fatal(err)
	}
	if err := tag.DeleteAttribute(AttrParent); err != nil {
		t.Fatal(err)
	}
	if tag.Parent() != nil {
		t.Error("deleting parent attribute must detach the tag")
	}
}

func TestAttributeNames(t *testing.T) {
	tag := NewDetached("@x", map[string]string{"b": "2", "a": "1", AttrName: "@ignored"})

	if got := tag.AttributeNames(true); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("AttributeNames(true): got %v", got)
	}
	if got := tag.AttributeNames(false); !reflect.DeepEqual(got, []string{"a", "b", "name"}) {
		t.Errorf("AttributeNames(false): got %v", got)
	}
	if tag.Name() != "@x" {
		t.Errorf("Name: got %q, want @x", tag.Name())
	}
}

func TestReparent(t *testing.T) {
	s := newTestStore(t, nil)
	a := mustTag(t, s, "@a")
	b := mustTag(t, s, "@b")
	c := mustTag(t, s, "@c")

	if err := b.Reparent(a, true); err != nil {
		t.Fatalf("Reparent(b, a): %v", err)
	}
	if err := c.Reparent(b, false); err != nil {
		t.Fatalf("Reparent(c, b): %v", err)
	}

	if v, _ := b.Attribute(AttrParent); v != "@a" {
		t.Errorf("b parent attribute: got %q, want @a", v)
	}
	if _, ok := c.Attribute(AttrParent); ok {
		t.Error("updateAttr=false must not touch the parent attribute")
	}
	if got := a.Children(); len(got) != 1 || got[0] != b {
		t.Errorf("a.Children: got %v", got)
	}
	if got := a.AllChildren(); len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Errorf("a.AllChildren: got %v", got)
	}

	t.Run("cycles are rejected", func(t *testing.T) {
		if err := a.Reparent(b, true); !errors.Is(err, ErrCycle) {
			t.Errorf("Reparent(a, b): got %v, want ErrCycle", err)
		}
		if err := a.Reparent(c, true); !errors.Is(err, ErrCycle) {
			t.Errorf("Reparent(a, c): got %v, want ErrCycle", err)
		}
		if err := a.SetAttribute(AttrParent, "@c"); !errors.Is(err, ErrCycle) {
			t.Errorf("SetAttribute(parent, @c): got %v, want ErrCycle", err)
		}
		if a.Parent() != nil {
			t.Error("a must remain a root")
		}
		if _, ok := a.Attribute(AttrParent); ok {
			t.Error("rejected reparent must not set the attribute")
		}
	})

	t.Run("detach", func(t *testing.T) {
		if err := b.Reparent(nil, true); err != nil {
			t.Fatal(err)
		}
		if b.Parent() != nil {
			t.Error("b must be a root")
		}
		if _, ok := b.Attribute(AttrParent); ok {
			t.Error("parent attribute must be cleared")
		}
	})

	t.Run("detached tags cannot move", func(t *testing.T) {
		d := NewDetached("@loose", nil)
		if err := d.Reparent(a, true); err == nil {
			t.Error("expected error for detached tag")
		}
	})
}

func TestTaskMembership(t *testing.T) {
	tag := NewDetached("@t", nil)
	tag.AddTask("t1")
	tag.AddTask("t2")
	tag.AddTask("t1")
	if got := tag.OwnTasks(); !reflect.DeepEqual(got, []string{"t1", "t2"}) {
		t.Errorf("OwnTasks: got %v", got)
	}
	if !tag.IsUsed() {
		t.Error("expected tag to be used")
	}

	tag.RemoveTask("missing")
	tag.RemoveTask("t1")
	if got := tag.OwnTasks(); !reflect.DeepEqual(got, []string{"t2"}) {
		t.Errorf("OwnTasks after remove: got %v", got)
	}
	tag.RemoveTask("t2")
	if tag.IsUsed() {
		t.Error("expected tag to be unused")
	}
}

func TestTasksAggregation(t *testing.T) {
	s := newTestStore(t, nil)
	p := mustTag(t, s, "@p")
	c := mustTag(t, s, "@c")
	g := mustTag(t, s, "@g")
	if err := c.Reparent(p, true); err != nil {
		t.Fatal(err)
	}
	if err := g.Reparent(c, true); err != nil {
		t.Fatal(err)
	}
	p.AddTask("t1")
	c.AddTask("t1")
	c.AddTask("t2")
	g.AddTask("t3")
	g.AddTask("t2")

	want := []string{"t1", "t2", "t3"}
	if got := p.Tasks(); !reflect.DeepEqual(got, want) {
		t.Errorf("p.Tasks: got %v, want %v", got, want)
	}
	if got := c.Tasks(); !reflect.DeepEqual(got, []string{"t1", "t2", "t3"}) {
		t.Errorf("c.Tasks: got %v", got)
	}
	if got := p.OwnTasks(); !reflect.DeepEqual(got, []string{"t1"}) {
		t.Errorf("p.OwnTasks: got %v", got)
	}
}

func TestTaskCount(t *testing.T) {
	req := fakeRequester{
		"active-wv":    {status: StatusActive, workview: true, inContext: true},
		"active-ctx":   {status: StatusActive, workview: false, inContext: true},
		"active-none":  {status: StatusActive},
		"done":         {status: "Done"},
		"child-active": {status: StatusActive, workview: true, inContext: true},
	}
	s := newTestStore(t, req)
	tag := mustTag(t, s, "@errands")
	child := mustTag(t, s, "@shop")
	if err := child.Reparent(tag, true); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"active-wv", "active-ctx", "active-none", "done"} {
		tag.AddTask(id)
	}
	child.AddTask("child-active")
	child.AddTask("done")

	count := func(workview bool) int {
		t.Helper()
		n, err := tag.TaskCount(workview)
		if err != nil {
			t.Fatalf("TaskCount(%v): %v", workview, err)
		}
		return n
	}

	if got := count(false); got != 4 {
		t.Errorf("active count: got %d, want 4", got)
	}
	if got := count(true); got != 2 {
		t.Errorf("workview count: got %d, want 2", got)
	}

	mustSet(t, tag, AttrNonWorkview, true)
	if !tag.IsNonWorkview() {
		t.Fatal("expected tag to opt out of the workview")
	}
	if got := count(true); got != 3 {
		t.Errorf("workview count with tag context: got %d, want 3", got)
	}

	t.Run("unknown task", func(t *testing.T) {
		tag.AddTask("ghost")
		defer tag.RemoveTask("ghost")
		if _, err := tag.TaskCount(false); !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("no requester", func(t *testing.T) {
		bare := newTestStore(t, nil)
		x := mustTag(t, bare, "@x")
		x.AddTask("t1")
		if _, err := x.TaskCount(false); !errors.Is(err, ErrNoRequester) {
			t.Errorf("got %v, want ErrNoRequester", err)
		}
	})
}

func TestIsActivelyUsed(t *testing.T) {
	req := fakeRequester{
		"a": {status: StatusActive},
		"d": {status: "Done"},
	}
	s := newTestStore(t, req)
	tag := mustTag(t, s, "@x")

	used, err := tag.IsActivelyUsed()
	if err != nil || used {
		t.Errorf("empty tag: got %v %v, want false nil", used, err)
	}

	tag.AddTask("d")
	if used, _ := tag.IsActivelyUsed(); used {
		t.Error("done task must not count as active use")
	}

	// Descendant tasks do not count.
	child := mustTag(t, s, "@y")
	if err := child.Reparent(tag, true); err != nil {
		t.Fatal(err)
	}
	child.AddTask("a")
	if used, _ := tag.IsActivelyUsed(); used {
		t.Error("child task must not count as active use of the parent")
	}

	tag.AddTask("a")
	if used, _ := tag.IsActivelyUsed(); !used {
		t.Error("expected active use")
	}
}
