package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/pinsync/internal/client/scheduler"
	"github.com/dmitrijs2005/pinsync/internal/models"
)

var errUsage = errors.New("usage")

func formatPin(p models.Pin) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s owner=%s", p.ID, p.Owner)
	if p.Position != nil {
		fmt.Fprintf(&b, " at=%.6f,%.6f", p.Position.Lat, p.Position.Lng)
	}
	fmt.Fprintf(&b, " updated=%s", p.UpdatedAt().Format("2006-01-02 15:04:05.000"))
	if !p.Visible {
		b.WriteString(" hidden")
	}
	if p.PendingSync {
		b.WriteString(" pending")
	}
	return b.String()
}

func parseLatLng(args []string) (models.LatLng, error) {
	if len(args) != 2 {
		return models.LatLng{}, errUsage
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil || lat < -90 || lat > 90 {
		return models.LatLng{}, fmt.Errorf("bad latitude %q", args[0])
	}
	lng, err := strconv.ParseFloat(args[1], 64)
	if err != nil || lng < -180 || lng > 180 {
		return models.LatLng{}, fmt.Errorf("bad longitude %q", args[1])
	}
	return models.LatLng{Lat: lat, Lng: lng}, nil
}

// report prints err for the user and passes it through.
func report(usage string, err error) error {
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		printlnFn("Usage:", usage)
	default:
		printlnFn("Error:", err)
	}
	return err
}

func (a *App) Add(ctx context.Context, args []string) error {
	pos, err := parseLatLng(args)
	if err != nil {
		return report("add <lat> <lng>", err)
	}
	p, err := a.pins.Create(ctx, pos)
	if err != nil {
		return report("", err)
	}
	printlnFn("Added", p.ID)
	return nil
}

func (a *App) Move(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return report("move <id> <lat> <lng>", errUsage)
	}
	pos, err := parseLatLng(args[1:])
	if err != nil {
		return report("move <id> <lat> <lng>", err)
	}
	if _, err := a.pins.Move(ctx, args[0], pos); err != nil {
		return report("", err)
	}
	printlnFn("Moved", args[0])
	return nil
}

func (a *App) Hide(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return report("hide <id>", errUsage)
	}
	if err := a.pins.Hide(ctx, args[0]); err != nil {
		return report("", err)
	}
	printlnFn("Hidden", args[0])
	return nil
}

func (a *App) List(ctx context.Context) error {
	pins, err := a.pins.List(ctx)
	if err != nil {
		return report("", err)
	}
	if len(pins) == 0 {
		printlnFn("No pins")
		return nil
	}
	for _, p := range pins {
		printlnFn(formatPin(p))
	}
	return nil
}

// Sync schedules both directions; the work happens in the background.
func (a *App) Sync(context.Context) error {
	a.sched.Request(scheduler.Push)
	a.sched.Request(scheduler.Pull)
	printlnFn("Sync scheduled")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	pending, err := a.syncer.Pending(ctx)
	if err != nil {
		return report("", err)
	}
	last, err := a.syncer.LastPull(ctx)
	if err != nil {
		return report("", err)
	}
	lastPull := "never"
	if !last.IsZero() {
		lastPull = last.Format("2006-01-02 15:04:05")
	}

	printlnFn(fmt.Sprintf("client=%s mode=%s pending=%d push=%s pull=%s last_pull=%s",
		a.clientID, a.Mode(), pending,
		a.sched.State(scheduler.Push), a.sched.State(scheduler.Pull), lastPull))
	return nil
}
