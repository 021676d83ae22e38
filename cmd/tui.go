package cmd

import (
	"context"

	"github.com/nibzard/tagtree/internal/logging"
	"github.com/nibzard/tagtree/internal/tags"
	"github.com/nibzard/tagtree/internal/ui"
)

// tuiCommand launches the tag browser.
func tuiCommand(ctx context.Context, a *app, args []string) error {
	flags := a.flagSet("tui")
	workview := flags.Bool("workview", false, "Start with workview counts")
	refresh := flags.Duration("refresh", 0, "Reload interval (0 disables)")
	if _, err := parseArgs(flags, args, 0, 0, "tui [-workview] [-refresh d]"); err != nil {
		return err
	}

	// Log output would corrupt the alternate screen.
	quiet := *a
	quiet.logger = logging.Discard()
	load := func() (*tags.Store, error) {
		store, _, err := quiet.open()
		return store, err
	}
	return ui.RunTUI(ctx, load, ui.WithWorkview(*workview), ui.WithRefreshInterval(*refresh))
}
