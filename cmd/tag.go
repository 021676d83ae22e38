package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nibzard/tagtree/internal/search"
	"github.com/nibzard/tagtree/internal/tags"
)

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tagtree "+name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// attrFilters collects repeated -attr k=v flags.
type attrFilters [][2]string

func (f *attrFilters) String() string {
	parts := make([]string, 0, len(*f))
	for _, kv := range *f {
		parts = append(parts, kv[0]+"="+kv[1])
	}
	return strings.Join(parts, ",")
}

func (f *attrFilters) Set(v string) error {
	kv, err := parseAssignments([]string{v})
	if err != nil {
		return err
	}
	*f = append(*f, kv[0])
	return nil
}

// lsCommand lists tag names, or the tag tree with task counts.
func lsCommand(a *app, args []string) error {
	fs := a.flagSet("ls")
	tree := fs.Bool("tree", false, "Show the hierarchy with task counts")
	workview := fs.Bool("workview", false, "Count workview tasks instead of active tasks")
	all := fs.Bool("a", false, "Include built-in tags")
	var filters attrFilters
	fs.Var(&filters, "attr", "Only tags whose attribute k equals v (repeatable)")
	if _, err := parseArgs(fs, args, 0, 0, "ls [-tree] [-workview] [-a] [-attr k=v]"); err != nil {
		return err
	}
	if *tree && len(filters) > 0 {
		return fmt.Errorf("%w: -attr cannot be combined with -tree", errUsage)
	}

	store, _, err := a.open()
	if err != nil {
		return err
	}

	if *tree {
		for _, root := range store.Roots() {
			printTree(a.out, root, 0, *workview, *all)
		}
		return nil
	}

	var fl []tags.Filter
	for _, kv := range filters {
		fl = append(fl, tags.HasAttribute(kv[0], kv[1]))
	}
	for _, t := range store.AllTags(fl...) {
		if !*all && tags.IsProtected(t) {
			continue
		}
		fmt.Fprintln(a.out, t.Name())
	}
	return nil
}

func printTree(w io.Writer, t *tags.Tag, depth int, workview, all bool) {
	if !all && tags.IsProtected(t) {
		return
	}
	fmt.Fprintf(w, "%s%s (%s)\n", strings.Repeat("  ", depth), t.Name(), formatCount(t.TaskCount(workview)))
	for _, c := range t.Children() {
		printTree(w, c, depth+1, workview, all)
	}
}

func formatCount(n int, err error) string {
	if err != nil {
		return "?"
	}
	return strconv.Itoa(n)
}

// showCommand prints one tag in detail.
func showCommand(a *app, args []string) error {
	fs := a.flagSet("show")
	rest, err := parseArgs(fs, args, 1, 1, "show <tag>")
	if err != nil {
		return err
	}
	store, _, err := a.open()
	if err != nil {
		return err
	}
	t, err := lookup(store, rest[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, t.Name())
	if p := t.Parent(); p != nil {
		fmt.Fprintf(a.out, "  parent:   %s\n", p.Name())
	}
	if children := t.Children(); len(children) > 0 {
		names := make([]string, 0, len(children))
		for _, c := range children {
			names = append(names, c.Name())
		}
		fmt.Fprintf(a.out, "  children: %s\n", strings.Join(names, ", "))
	}
	if attrs := t.AttributeNames(true); len(attrs) > 0 {
		fmt.Fprintln(a.out, "  attributes:")
		for _, k := range attrs {
			v, _ := t.Attribute(k)
			fmt.Fprintf(a.out, "    %s = %s\n", k, v)
		}
	}
	fmt.Fprintf(a.out, "  tasks:    %d own, %d total\n", len(t.OwnTasks()), len(t.Tasks()))
	fmt.Fprintf(a.out, "  active:   %s\n", formatCount(t.TaskCount(false)))
	fmt.Fprintf(a.out, "  workview: %s\n", formatCount(t.TaskCount(true)))
	return nil
}

// addCommand creates a tag with an optional parent and attributes.
func addCommand(a *app, args []string) error {
	fs := a.flagSet("add")
	parent := fs.String("parent", "", "Parent tag")
	rest, err := parseArgs(fs, args, 1, -1, "add [-parent p] <tag> [k=v...]")
	if err != nil {
		return err
	}
	assignments, err := parseAssignments(rest[1:])
	if err != nil {
		return err
	}

	store, _, err := a.open()
	if err != nil {
		return err
	}
	name := tags.Canonical(rest[0])
	t, err := store.Create(name)
	if err != nil {
		return err
	}
	if *parent != "" {
		if err := t.SetAttribute(tags.AttrParent, tags.Canonical(*parent)); err != nil {
			return err
		}
	}
	if err := applyAssignments(t, assignments); err != nil {
		return err
	}
	if len(t.AttributeNames(true)) == 0 {
		a.logger.Warn("tag has no attributes and is only kept while tasks use it", "tag", name)
	}
	fmt.Fprintf(a.out, "Created %s\n", name)
	return nil
}

func applyAssignments(t *tags.Tag, assignments [][2]string) error {
	for _, kv := range assignments {
		v := kv[1]
		if kv[0] == tags.AttrParent && v != "" {
			v = tags.Canonical(v)
		}
		if err := t.SetAttribute(kv[0], v); err != nil {
			return fmt.Errorf("set %s on %s: %w", kv[0], t.Name(), err)
		}
	}
	return nil
}

// setCommand sets attributes on an existing tag.
func setCommand(a *app, args []string) error {
	fs := a.flagSet("set")
	rest, err := parseArgs(fs, args, 2, -1, "set <tag> k=v...")
	if err != nil {
		return err
	}
	assignments, err := parseAssignments(rest[1:])
	if err != nil {
		return err
	}
	store, _, err := a.open()
	if err != nil {
		return err
	}
	t, err := lookup(store, rest[0])
	if err != nil {
		return err
	}
	if err := applyAssignments(t, assignments); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", t.Name())
	return nil
}

// unsetCommand deletes attributes from a tag.
func unsetCommand(a *app, args []string) error {
	fs := a.flagSet("unset")
	rest, err := parseArgs(fs, args, 2, -1, "unset <tag> k...")
	if err != nil {
		return err
	}
	store, _, err := a.open()
	if err != nil {
		return err
	}
	t, err := lookup(store, rest[0])
	if err != nil {
		return err
	}
	for _, k := range rest[1:] {
		if err := t.DeleteAttribute(k); err != nil {
			return fmt.Errorf("unset %s on %s: %w", k, t.Name(), err)
		}
	}
	fmt.Fprintf(a.out, "Updated %s\n", t.Name())
	return nil
}

// mvCommand reparents a tag. A parent of "-" moves it to the top level.
func mvCommand(a *app, args []string) error {
	fs := a.flagSet("mv")
	rest, err := parseArgs(fs, args, 2, 2, "mv <tag> <parent|->")
	if err != nil {
		return err
	}
	store, _, err := a.open()
	if err != nil {
		return err
	}
	t, err := lookup(store, rest[0])
	if err != nil {
		return err
	}
	if rest[1] == "-" {
		if err := t.Reparent(nil, true); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Moved %s to the top level\n", t.Name())
		return nil
	}
	parent, err := lookup(store, rest[1])
	if err != nil {
		return err
	}
	if err := t.Reparent(parent, true); err != nil {
		if errors.Is(err, tags.ErrCycle) {
			return fmt.Errorf("cannot move %s under %s: %w", t.Name(), parent.Name(), err)
		}
		return err
	}
	fmt.Fprintf(a.out, "Moved %s under %s\n", t.Name(), parent.Name())
	return nil
}

// renameCommand renames a tag and rewrites it on every task.
func renameCommand(a *app, args []string) error {
	fs := a.flagSet("rename")
	rest, err := parseArgs(fs, args, 2, 2, "rename <old> <new>")
	if err != nil {
		return err
	}
	store, _, err := a.open()
	if err != nil {
		return err
	}
	old, err := lookup(store, rest[0])
	if err != nil {
		return err
	}
	renamed, err := store.RenameTag(old.Name(), rest[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Renamed %s to %s\n", old.Name(), renamed.Name())
	return nil
}

// rmCommand removes an unused tag.
func rmCommand(a *app, args []string) error {
	fs := a.flagSet("rm")
	rest, err := parseArgs(fs, args, 1, 1, "rm <tag>")
	if err != nil {
		return err
	}
	store, _, err := a.open()
	if err != nil {
		return err
	}
	t, err := lookup(store, rest[0])
	if err != nil {
		return err
	}
	name := t.Name()
	if err := store.RemoveTag(name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %s\n", name)
	return nil
}

// searchCommand runs a full-text query over tag names and attributes.
func searchCommand(a *app, args []string) error {
	fs := a.flagSet("search")
	limit := fs.Int("n", search.DefaultLimit, "Maximum number of results")
	rest, err := parseArgs(fs, args, 1, -1, "search [-n limit] <query>")
	if err != nil {
		return err
	}
	store, _, err := a.open()
	if err != nil {
		return err
	}
	idx, err := search.Build(store)
	if err != nil {
		return err
	}
	defer idx.Close()

	hits, err := idx.Search(strings.Join(rest, " "), *limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(a.out, "No matching tags.")
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(a.out, "%-30s %.3f\n", h.Name, h.Score)
	}
	return nil
}
