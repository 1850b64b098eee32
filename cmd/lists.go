package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/urfave/cli/v3"
)

const maxSuggestions = 3

// Search prints the catalog matches for a title, best first. The first match is the one sync would use.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	title := cmd.StringArg("title")
	if title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrMissingArgument)
	}

	catalog, err := r.catalogFor(cmd, "")
	if err != nil {
		return err
	}

	var year *int
	if cmd.IsSet("year") {
		y := cmd.Int("year")
		year = &y
	}

	r.logger.Debug("searching catalog", "title", title, "year", year)

	matches, err := catalog.Search(ctx, title, year)
	if err != nil {
		return err
	}
	if limit := cmd.Int("limit"); limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(matches, cmd.Bool("pretty"))
	}

	if len(matches) == 0 {
		return r.writePlain("No matches for %q\n", title)
	}

	r.writePlainHeader(fmt.Sprintf("Matches for %q", title))
	for i, m := range matches {
		r.writePlain("%d. %s (ID: %s)\n", i+1, m.DisplayTitle, m.ExternalID)
	}
	return nil
}

// Lists prints the lists owned by the authenticated account.
func (r *Runner) Lists(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.tmdbFor(cmd)
	if err != nil {
		return err
	}
	if !svc.HasSession() {
		return fmt.Errorf("%w: run '%s auth' first", shared.ErrNotAuthenticated, appName)
	}

	lists, err := svc.GetLists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(lists, cmd.Bool("pretty"))
	}

	if len(lists) == 0 {
		return r.writePlain("No lists found\n")
	}

	r.writePlainHeader(fmt.Sprintf("%d lists", len(lists)))
	for _, l := range lists {
		r.writePlain("%s (ID: %s, %d items)\n", l.Name, l.ID, l.ItemCount)
	}
	return nil
}

// List prints the entries of the list with the given name (the configured list name by default).
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		name = r.config.Sync.ListName
	}
	if name == "" {
		return fmt.Errorf("%w: list name is required", shared.ErrMissingArgument)
	}

	svc, err := r.tmdbFor(cmd)
	if err != nil {
		return err
	}
	if !svc.HasSession() {
		return fmt.Errorf("%w: run '%s auth' first", shared.ErrNotAuthenticated, appName)
	}

	lists, err := svc.GetLists(ctx)
	if err != nil {
		return err
	}

	var listID string
	for _, l := range lists {
		if l.Name == name {
			listID = l.ID
			break
		}
	}
	if listID == "" {
		if suggestions := suggestListNames(name, lists); len(suggestions) > 0 {
			return fmt.Errorf("%w: %q (did you mean %s?)", shared.ErrListNotFound, name, strings.Join(suggestions, ", "))
		}
		return fmt.Errorf("%w: %q", shared.ErrListNotFound, name)
	}

	details, err := svc.GetList(ctx, listID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(details, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (ID: %s)", details.Name, details.ID))
	if len(details.Items) == 0 {
		return r.writePlain("List is empty\n")
	}
	for i, item := range details.Items {
		r.writePlain("%d. %s (ID: %s)\n", i+1, item.Title, item.ID)
	}
	return nil
}

// suggestListNames ranks the account list names that contain name as a case-insensitive fuzzy subsequence, closest first.
func suggestListNames(name string, lists []services.ListSummary) []string {
	names := make([]string, 0, len(lists))
	for _, l := range lists {
		names = append(names, l.Name)
	}

	ranks := fuzzy.RankFindFold(name, names)
	sort.Sort(ranks)

	suggestions := make([]string, 0, maxSuggestions)
	for _, rank := range ranks {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, fmt.Sprintf("%q", rank.Target))
	}
	return suggestions
}
