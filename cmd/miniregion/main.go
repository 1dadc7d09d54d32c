// cmd/miniregion/main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"miniregion/internal/client/backend"
	"miniregion/internal/client/cache"
	"miniregion/internal/client/favorites"
	"miniregion/internal/client/localstore"
	"miniregion/internal/client/orchestrator"
	"miniregion/internal/client/policy"
	"miniregion/internal/config"
	"miniregion/internal/logging"
)

const usage = `usage: miniregion <command> [flags] [args]

commands:
  list          show restaurants (cache, nearby or region)
  search        search restaurants by place name
  refresh       trigger a server-side aggregation run
  favorite      toggle a restaurant favorite
  favorites     list favorite restaurant ids
  interests     show or set interests
  events        list events from a start date
  activities    list family activities
  meetups       list social meetups
  meetup        create a social meetup
  autocomplete  suggest place names
  health        check the backend
`

// app bundles the client components a command needs
type app struct {
	cfg       config.ClientConfig
	log       zerolog.Logger
	store     *localstore.Store
	backend   *backend.Client
	cache     *cache.Layer
	favorites *favorites.Store
}

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.LoadClient()
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := localstore.Open(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataPath).Msg("failed to open local store")
	}
	defer store.Close()

	a := &app{
		cfg:       cfg,
		log:       log,
		store:     store,
		backend:   backend.NewClient(cfg.BackendURL, cfg.RequestTimeout, logging.Component(log, "backend")),
		cache:     cache.NewLayer(store, logging.Component(log, "cache"), cache.WithTTL(cfg.CacheTTL)),
		favorites: favorites.NewStore(store),
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := a.run(ctx, cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "miniregion %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "list":
		return a.list(ctx, args)
	case "search":
		return a.search(ctx, args)
	case "refresh":
		return a.refresh(ctx)
	case "favorite":
		return a.toggleFavorite(ctx, args)
	case "favorites":
		return a.listFavorites(ctx)
	case "interests":
		return a.interests(ctx, args)
	case "events":
		return a.events(ctx, args)
	case "activities":
		return a.activities(ctx)
	case "meetups":
		return a.meetups(ctx)
	case "meetup":
		return a.createMeetup(ctx, args)
	case "autocomplete":
		return a.autocomplete(ctx, args)
	case "health":
		return a.backend.Health(ctx)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// orchestrator builds the fetch pipeline. A nil locator means no position.
func (a *app) orchestrator(locator orchestrator.Locator) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{}
	if locator != nil {
		opts = append(opts, orchestrator.WithLocator(locator))
	}

	return orchestrator.New(
		a.backend,
		a.cache,
		a.store,
		stderrNotifier{},
		orchestrator.Config{
			Region:       a.cfg.Region,
			NearbyRadius: a.cfg.NearbyRadius,
			PhotoAPIKey:  a.cfg.PhotoAPIKey,
			MinSpacing:   a.cfg.MinSpacing,
			Debounce:     a.cfg.Debounce,
			UseNearby:    a.cfg.UseNearby,
			Retry: policy.Retry{
				Attempts:   a.cfg.RetryAttempts,
				BaseDelay:  a.cfg.RetryBaseDelay,
				Multiplier: a.cfg.RetryMultiplier,
			},
		},
		logging.Component(a.log, "orchestrator"),
		opts...,
	)
}
