package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rbright/hark/internal/audio"
	"github.com/rbright/hark/internal/catalog"
	"github.com/rbright/hark/internal/ipc"
)

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	tw := tabwriter.NewWriter(r.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tSTATE\tAVAILABLE\tMUTED\tDESCRIPTION")
	for _, device := range devices {
		mark := ""
		if device.Default {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			mark, device.ID, device.State, yesNo(device.Available), yesNo(device.Muted), device.Description)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// commandStatus prints "idle" when no daemon answers; status never fails
// just because nothing is running.
func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: ipc.CommandStatus})
	switch {
	case !handled:
		fmt.Fprintln(r.Stdout, "idle")
	case err != nil:
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	default:
		state := resp.State
		if state == "" {
			state = "idle"
		}
		if resp.Message != "" {
			state += " (" + resp.Message + ")"
		}
		fmt.Fprintln(r.Stdout, state)
	}
	return 0
}

func (r Runner) commandHistory(ctx context.Context, limit int) int {
	resp, ok := r.forward(ctx, ipc.Request{Command: ipc.CommandHistory, Limit: limit})
	if !ok {
		return 1
	}
	if len(resp.Entries) == 0 {
		fmt.Fprintln(r.Stdout, "no broadcasts recorded")
		return 0
	}
	for _, entry := range resp.Entries {
		fmt.Fprintf(r.Stdout, "%s  %s\n", entry.At.Local().Format(time.DateTime), entry.Text)
	}
	return 0
}

func (r Runner) commandCatalog(id string) int {
	repo := r.Catalog
	if repo == nil {
		repo = catalog.Stub{}
	}
	if id == "" {
		printCatalogHome(r.Stdout, repo)
		return 0
	}

	item, err := repo.Content(id)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	printContent(r.Stdout, item)
	return 0
}

func printCatalogHome(w io.Writer, repo catalog.Repository) {
	fmt.Fprintln(w, "Banners:")
	for _, banner := range repo.Banners() {
		fmt.Fprintf(w, "  %s  %s\n", banner.ID, banner.Title)
	}
	for _, section := range []struct {
		heading string
		items   []catalog.AudioContent
	}{
		{"Hot:", repo.HotRecommendations()},
		{"New:", repo.NewReleases()},
	} {
		fmt.Fprintln(w, section.heading)
		for _, item := range section.items {
			fmt.Fprintf(w, "  %s  %s by %s (%s)\n", item.ID, item.Title, item.Author, item.FormattedDuration())
		}
	}
}

func printContent(w io.Writer, item catalog.AudioContent) {
	lines := []string{
		item.Title,
		fmt.Sprintf("  id=%s | author=%s | category=%s | duration=%s", item.ID, item.Author, item.Category, item.FormattedDuration()),
		fmt.Sprintf("  plays=%d | likes=%d", item.PlayCount, item.LikeCount),
	}
	if item.Description != "" {
		lines = append(lines, "  "+item.Description)
	}
	lines = append(lines, "  audio="+item.AudioURL)
	if len(item.Recommendations) > 0 {
		lines = append(lines, "  related="+strings.Join(item.Recommendations, ","))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
