package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/taskkeeper/internal/client/models"
)

var errUsageID = errors.New("expected a numeric task id")

// parseKV splits key=value arguments, rejecting keys outside allowed.
func parseKV(args []string, allowed ...string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		known := false
		for _, a := range allowed {
			if a == k {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown key %q (allowed: %s)", k, strings.Join(allowed, ", "))
		}
		out[k] = v
	}
	return out, nil
}

func parseID(args []string) (int64, []string, error) {
	if len(args) == 0 {
		return 0, nil, errUsageID
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, nil, errUsageID
	}
	return id, args[1:], nil
}

func (a *App) List(ctx context.Context, args []string) error {
	kv, err := parseKV(args, "status", "priority", "search", "skip", "limit")
	if err != nil {
		return err
	}

	f := models.TaskFilter{Status: kv["status"], Priority: kv["priority"], Search: kv["search"]}
	if v, ok := kv["skip"]; ok {
		if f.Skip, err = strconv.Atoi(v); err != nil {
			return errors.New("skip must be an integer")
		}
	}
	if v, ok := kv["limit"]; ok {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return errors.New("limit must be an integer")
		}
	}

	list, cached, err := a.taskService.List(ctx, f)
	if err != nil {
		return err
	}
	if cached {
		fmt.Fprintln(a.out, "(offline: showing the last fetched list)")
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No tasks")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tTITLE")
	for _, t := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Title)
	}
	return tw.Flush()
}

func (a *App) printTask(t *models.Task) {
	fmt.Fprintf(a.out, "#%d %s\n", t.ID, t.Title)
	if t.Description != nil {
		fmt.Fprintf(a.out, "  %s\n", *t.Description)
	}
	fmt.Fprintf(a.out, "  status: %s  priority: %s\n", t.Status, t.Priority)
	fmt.Fprintf(a.out, "  created: %s  updated: %s\n",
		t.CreatedAt.Local().Format("2006-01-02 15:04"), t.UpdatedAt.Local().Format("2006-01-02 15:04"))
}

// Add prompts for the task fields. Empty answers leave status and priority
// to the server defaults.
func (a *App) Add(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	desc, err := getSimpleText(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}
	priority, err := getSimpleText(a.reader, "Priority [low/medium/high] (default medium)", a.out)
	if err != nil {
		return err
	}

	in := models.NewTask{Title: title, Priority: priority}
	if desc != "" {
		in.Description = &desc
	}

	t, err := a.taskService.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created task #%d\n", t.ID)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}
	t, err := a.taskService.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printTask(t)
	return nil
}

// Update sends only the given keys. An empty description clears it.
func (a *App) Update(ctx context.Context, args []string) error {
	id, rest, err := parseID(args)
	if err != nil {
		return err
	}
	kv, err := parseKV(rest, "title", "description", "status", "priority")
	if err != nil {
		return err
	}
	if len(kv) == 0 {
		return errors.New("nothing to update")
	}

	patch := models.TaskPatch{}
	for k, v := range kv {
		if k == "description" && v == "" {
			patch[k] = nil
			continue
		}
		patch[k] = v
	}

	t, err := a.taskService.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	a.printTask(t)
	return nil
}

func (a *App) Done(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}
	if _, err := a.taskService.Complete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Task #%d completed\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, _, err := parseID(args)
	if err != nil {
		return err
	}
	if err := a.taskService.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Task #%d deleted\n", id)
	return nil
}
