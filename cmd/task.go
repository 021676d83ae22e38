package cmd

import (
	"fmt"
	"strings"

	"github.com/nibzard/tagtree/internal/tags"
	"github.com/nibzard/tagtree/internal/tasks"
)

const shortIDLen = 8

// taskCommand dispatches the task subcommands. With none it lists tasks.
func taskCommand(a *app, args []string) error {
	if len(args) == 0 {
		return taskLsCommand(a, nil)
	}
	switch args[0] {
	case "add":
		return taskAddCommand(a, args[1:])
	case "ls":
		return taskLsCommand(a, args[1:])
	case "done":
		return taskStatusCommand(a, "done", tasks.StatusDone, args[1:])
	case "dismiss":
		return taskStatusCommand(a, "dismiss", tasks.StatusDismissed, args[1:])
	case "reopen":
		return taskStatusCommand(a, "reopen", tasks.StatusActive, args[1:])
	case "tag":
		return taskTagCommand(a, args[1:], false)
	case "untag":
		return taskTagCommand(a, args[1:], true)
	default:
		return fmt.Errorf("unknown task command: %s", args[0])
	}
}

func taskAddCommand(a *app, args []string) error {
	fs := a.flagSet("task add")
	tagList := fs.String("tags", "", "Comma-separated tags")
	rest, err := parseArgs(fs, args, 1, -1, "task add [-tags a,b] <title>")
	if err != nil {
		return err
	}
	_, list, err := a.open()
	if err != nil {
		return err
	}
	task, err := list.Add(strings.Join(rest, " "), splitAndTrim(*tagList, ",")...)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s %s\n", shortID(task.ID), task.Title)
	return nil
}

func taskLsCommand(a *app, args []string) error {
	fs := a.flagSet("task ls")
	tagName := fs.String("tag", "", "Only tasks carrying this tag or one of its descendants")
	statusName := fs.String("status", "", "Only tasks with this status (Active|Done|Dismissed)")
	workview := fs.Bool("workview", false, "Only tasks in the workview")
	if _, err := parseArgs(fs, args, 0, 0, "task ls [-tag t] [-status s] [-workview]"); err != nil {
		return err
	}
	var status tasks.Status
	if *statusName != "" {
		s, err := tasks.ParseStatus(*statusName)
		if err != nil {
			return err
		}
		status = s
	}

	store, list, err := a.open()
	if err != nil {
		return err
	}

	var context *tags.Tag
	var include map[string]struct{}
	if *tagName != "" {
		t, err := lookup(store, *tagName)
		if err != nil {
			return err
		}
		include = make(map[string]struct{})
		for _, id := range t.Tasks() {
			include[id] = struct{}{}
		}
		if t.IsNonWorkview() {
			context = t
		}
	}

	n := 0
	for _, task := range list.Tasks() {
		if include != nil {
			if _, ok := include[task.ID]; !ok {
				continue
			}
		}
		if status != "" && task.Status != status {
			continue
		}
		if *workview && !list.InWorkview(task.ID, context) {
			continue
		}
		printTask(a, task)
		n++
	}
	if n == 0 {
		fmt.Fprintln(a.out, "No tasks found.")
	}
	return nil
}

func printTask(a *app, t tasks.Task) {
	line := fmt.Sprintf("%-8s %-9s %s", shortID(t.ID), t.Status, t.Title)
	if len(t.Tags) > 0 {
		line += "  " + strings.Join(t.Tags, " ")
	}
	if t.StartDate != "" {
		line += "  (starts " + t.StartDate + ")"
	}
	fmt.Fprintln(a.out, line)
}

func taskStatusCommand(a *app, name string, status tasks.Status, args []string) error {
	fs := a.flagSet("task " + name)
	rest, err := parseArgs(fs, args, 1, 1, "task "+name+" <id>")
	if err != nil {
		return err
	}
	_, list, err := a.open()
	if err != nil {
		return err
	}
	task, err := list.Find(rest[0])
	if err != nil {
		return err
	}
	if err := list.SetStatus(task.ID, status); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s: %s\n", shortID(task.ID), task.Title, status)
	return nil
}

func taskTagCommand(a *app, args []string, remove bool) error {
	name := "tag"
	if remove {
		name = "untag"
	}
	fs := a.flagSet("task " + name)
	rest, err := parseArgs(fs, args, 2, 2, "task "+name+" <id> <tag>")
	if err != nil {
		return err
	}
	_, list, err := a.open()
	if err != nil {
		return err
	}
	task, err := list.Find(rest[0])
	if err != nil {
		return err
	}
	tagName := tags.Canonical(rest[1])
	if remove {
		err = list.Untag(task.ID, tagName)
	} else {
		err = list.Tag(task.ID, tagName)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s %s: %s\n", shortID(task.ID), task.Title, strings.Join(task.Tags, " "))
	return nil
}

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}
