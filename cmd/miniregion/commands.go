// cmd/miniregion/commands.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"miniregion/internal/client/backend"
	"miniregion/internal/client/listing"
	"miniregion/internal/client/orchestrator"
	"miniregion/internal/domain/activity"
	"miniregion/internal/domain/restaurant"
)

var errNoPosition = errors.New("no position given")

// flagLocator reports the position passed on the command line
type flagLocator struct {
	lat, lng *float64
}

func (l flagLocator) Locate(context.Context) (restaurant.LatLng, error) {
	if l.lat == nil || l.lng == nil {
		return restaurant.LatLng{}, errNoPosition
	}
	return restaurant.LatLng{Lat: *l.lat, Lng: *l.lng}, nil
}

// stderrNotifier prints orchestrator notices. Records are printed by the
// command once the fetch finished.
type stderrNotifier struct{}

func (stderrNotifier) Update([]restaurant.Record, orchestrator.Source) {}

func (stderrNotifier) Notice(message string) {
	fmt.Fprintln(os.Stderr, message)
}

// optionalFloat is a float flag that remembers whether it was set
type optionalFloat struct{ v *float64 }

func (f *optionalFloat) String() string {
	if f.v == nil {
		return ""
	}
	return fmt.Sprint(*f.v)
}

func (f *optionalFloat) Set(s string) error {
	var v float64
	if _, err := fmt.Sscan(s, &v); err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	f.v = &v
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	filter := fs.String("filter", "", "substring of name, address or category")
	sortBy := fs.String("sort", "rating", "rating, distance or name")
	var lat, lng optionalFloat
	fs.Var(&lat, "lat", "current latitude")
	fs.Var(&lng, "lng", "current longitude")
	if err := fs.Parse(args); err != nil {
		return err
	}

	orch := a.orchestrator(flagLocator{lat: lat.v, lng: lng.v})
	defer orch.Close()

	state := orch.Start(ctx)
	a.log.Debug().Stringer("state", state).Msg("start finished")

	return a.printRecords(ctx, orch, *filter, listing.ParseSortKey(*sortBy))
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	sortBy := fs.String("sort", "rating", "rating, distance or name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("missing search text")
	}

	orch := a.orchestrator(nil)
	defer orch.Close()

	if state := orch.Fetch(ctx, query); state == orchestrator.RateLimited {
		return errors.New("searching too fast, try again")
	}
	return a.printRecords(ctx, orch, "", listing.ParseSortKey(*sortBy))
}

func (a *app) printRecords(ctx context.Context, orch *orchestrator.Orchestrator, filter string, key listing.SortKey) error {
	records := orch.View(filter, key)
	_, source := orch.Records()
	loc := orch.Location()

	favs, err := a.favorites.List(ctx)
	if err != nil {
		return err
	}
	isFav := make(map[string]bool, len(favs))
	for _, id := range favs {
		isFav[id] = true
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "\tNAME\tCATEGORY\tRATING\tOPEN\tDISTANCE\tADDRESS\tID\n")
	for _, r := range records {
		mark := ""
		if isFav[r.ID] {
			mark = "*"
		}
		open := "no"
		if r.OpenNow {
			open = "yes"
		}
		dist := "-"
		if loc != nil {
			dist = fmt.Sprintf("%.1f km", listing.DistanceKm(*loc, restaurant.LatLng{Lat: r.Lat, Lng: r.Lng}))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f (%d)\t%s\t%s\t%s\t%s\n",
			mark, r.Name, r.Category, r.Rating, r.UserRatingsTotal, open, dist, r.Address, r.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Printf("%d restaurants (%s)\n", len(records), source)
	return nil
}

func (a *app) refresh(ctx context.Context) error {
	res, err := a.backend.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%d restaurants)\n", res.Message, res.Count)
	return nil
}

func (a *app) toggleFavorite(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: favorite <restaurant id>")
	}
	on, err := a.favorites.Toggle(ctx, args[0])
	if err != nil {
		return err
	}
	if on {
		fmt.Printf("%s added to favorites\n", args[0])
	} else {
		fmt.Printf("%s removed from favorites\n", args[0])
	}
	return nil
}

func (a *app) listFavorites(ctx context.Context) error {
	ids, err := a.favorites.List(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func (a *app) interests(ctx context.Context, args []string) error {
	if len(args) > 0 {
		var values []string
		for _, arg := range args {
			for _, v := range strings.Split(arg, ",") {
				if v = strings.TrimSpace(v); v != "" {
					values = append(values, v)
				}
			}
		}
		if err := a.favorites.SetInterests(ctx, values); err != nil {
			return err
		}
	}

	interests, err := a.favorites.Interests(ctx)
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(interests, ", "))
	return nil
}

func (a *app) events(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	start := fs.String("start", "", "first date, YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	events, err := a.backend.Events(ctx, *start)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tLOCATION")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date.Format("2006-01-02 15:04"), e.Title, e.Location)
	}
	return tw.Flush()
}

func (a *app) activities(ctx context.Context) error {
	items, err := a.backend.FamilyActivities(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tTITLE\tLOCATION")
	for _, f := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Kind, f.Title, f.Location)
	}
	return tw.Flush()
}

func (a *app) meetups(ctx context.Context) error {
	items, err := a.backend.SocialMeetups(ctx)
	if err != nil {
		return err
	}
	return printMeetups(os.Stdout, items...)
}

func (a *app) createMeetup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("meetup", flag.ContinueOnError)
	var m backend.NewMeetup
	fs.StringVar(&m.Title, "title", "", "meetup title")
	fs.StringVar(&m.Description, "description", "", "what is planned")
	fs.StringVar(&m.Date, "date", "", "RFC3339 time or YYYY-MM-DD")
	fs.StringVar(&m.Location, "location", "", "where to meet")
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := a.backend.CreateSocialMeetup(ctx, m)
	if err != nil {
		return err
	}
	return printMeetups(os.Stdout, created)
}

func (a *app) autocomplete(ctx context.Context, args []string) error {
	predictions, err := a.backend.Autocomplete(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	for _, p := range predictions {
		if desc, ok := p["description"].(string); ok {
			fmt.Println(desc)
		}
	}
	return nil
}

func printMeetups(w io.Writer, meetups ...activity.SocialMeetup) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tLOCATION\tID")
	for _, m := range meetups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Date.Format("2006-01-02 15:04"), m.Title, m.Location, m.ID)
	}
	return tw.Flush()
}
