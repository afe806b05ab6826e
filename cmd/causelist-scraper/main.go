// causelist-scraper runs the cause list archiver: a scheduled pipeline that
// discovers daily listing pages, parses them, and syncs hearings into Postgres.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"causelist/internal/modkit"
	"causelist/internal/platform/config"
	"causelist/internal/platform/logger"
	"causelist/internal/platform/store"

	listdom "causelist/internal/services/listings/domain"
	listmod "causelist/internal/services/listings/module"
	notifymod "causelist/internal/services/notify/module"
)

func main() {
	var once = flag.Bool("once", false, "run one scrape immediately and exit")
	flag.Parse()

	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	l := logger.Get()

	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, PG: st.PG}

	lm := listmod.New(deps)
	ports := lm.Ports().(listmod.Ports)

	nm := notifymod.New(deps, ports.Email)
	lm.SetNotifier(nm.Ports().(notifymod.Ports).Notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		report, err := ports.Pipeline.RunOnce(ctx, listdom.RunKindManual)
		if err != nil {
			l.Error().Err(err).Msg("scrape failed")
			os.Exit(1)
		}
		l.Info().
			Str("status", report.Status).
			Int("links", report.Stats.LinksDiscovered).
			Int("added", report.Stats.RecordsAdded).
			Int("updated", report.Stats.RecordsUpdated).
			Int("deleted", report.Stats.RecordsDeleted).
			Msg("scrape complete")
		if report.Status != listdom.RunStatusSuccess {
			os.Exit(1)
		}
		return
	}

	lm.StartScheduler(ctx)
	l.Info().Msg("scraper started")

	<-ctx.Done()
	l.Info().Msg("shutting down")
	lm.StopScheduler(context.Background())
}
