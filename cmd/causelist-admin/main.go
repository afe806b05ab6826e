// causelist-admin is the operator CLI: user management, schema migrations,
// one-off scrapes, and system info.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"causelist/db"
	"causelist/internal/modkit"
	"causelist/internal/platform/config"
	"causelist/internal/platform/logger"
	"causelist/internal/platform/store"

	accountsdom "causelist/internal/services/accounts/domain"
	accountsrepo "causelist/internal/services/accounts/repo"
	accountssvc "causelist/internal/services/accounts/service"
	listdom "causelist/internal/services/listings/domain"
	listmod "causelist/internal/services/listings/module"
	listingsrepo "causelist/internal/services/listings/repo"
	notifymod "causelist/internal/services/notify/module"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: causelist-admin <command> [args]

commands:
  users create -email E -name N -password P [-role R]
  users list [-all]
  users show -id ID | -email E
  users approve -id ID [-by WHO] [-reason WHY]
  users deactivate -id ID [-by WHO] [-reason WHY]
  db migrate
  db status
  scraper run
  system info`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	root := config.New()
	ctx := context.Background()

	var err error
	switch os.Args[1] + " " + os.Args[2] {
	case "users create":
		err = usersCreate(ctx, root, os.Args[3:])
	case "users list":
		err = usersList(ctx, root, os.Args[3:])
	case "users show":
		err = usersShow(ctx, root, os.Args[3:])
	case "users approve":
		err = usersSetStatus(ctx, root, os.Args[3:], true)
	case "users deactivate":
		err = usersSetStatus(ctx, root, os.Args[3:], false)
	case "db migrate":
		err = dbMigrate(ctx, root)
	case "db status":
		err = dbStatus(ctx, root)
	case "scraper run":
		err = scraperRun(ctx, root)
	case "system info":
		err = systemInfo(ctx, root)
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("ok")
}

func openStore(ctx context.Context, root config.Conf) (*store.Store, error) {
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	return store.Open(ctx, store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
		},
	}, store.WithLogger(*logger.Get()))
}

func accountsService(st *store.Store, root config.Conf) *accountssvc.Service {
	ss := root.Prefix("CORE_SAVED_SEARCH_")
	return accountssvc.New(st.PG, accountsrepo.NewPG(), accountssvc.Config{
		SearchMinLen:     ss.MayInt("MIN_LEN", 3),
		SearchMaxLen:     ss.MayInt("MAX_LEN", 100),
		SearchMaxPerUser: ss.MayInt("MAX_PER_USER", 10),
	})
}

func usersCreate(ctx context.Context, root config.Conf, args []string) error {
	fs := flag.NewFlagSet("users create", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "initial password")
	role := fs.String("role", "", "optional role to grant")
	_ = fs.Parse(args)

	st, err := openStore(ctx, root)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	svc := accountsService(st, root)
	u, err := svc.Register(ctx, *email, *name, *password)
	if err != nil {
		return err
	}
	if *role != "" {
		if err := svc.AssignRole(ctx, u.ID, *role); err != nil {
			return err
		}
	}
	fmt.Printf("created %s (%s) status=%s\n", u.Email, u.ID, u.Status)
	return nil
}

func usersList(ctx context.Context, root config.Conf, args []string) error {
	fs := flag.NewFlagSet("users list", flag.ExitOnError)
	all := fs.Bool("all", false, "include soft deleted accounts")
	_ = fs.Parse(args)

	st, err := openStore(ctx, root)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	users, err := accountsService(st, root).ListUsers(ctx, *all)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tSTATUS\tCREATED")
	for _, u := range users {
		status := u.Status
		if u.Deleted() {
			status += " (deleted)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			u.ID, u.Email, u.DisplayName, status, u.CreatedAt.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func usersShow(ctx context.Context, root config.Conf, args []string) error {
	fs := flag.NewFlagSet("users show", flag.ExitOnError)
	id := fs.String("id", "", "account id")
	email := fs.String("email", "", "account email")
	_ = fs.Parse(args)

	st, err := openStore(ctx, root)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	svc := accountsService(st, root)

	user, err := func() (accountsdom.User, error) {
		if *id != "" {
			uid, err := uuid.Parse(*id)
			if err != nil {
				return accountsdom.User{}, fmt.Errorf("bad -id: %w", err)
			}
			return svc.UserByID(ctx, uid)
		}
		if *email != "" {
			return svc.UserByEmail(ctx, *email)
		}
		return accountsdom.User{}, fmt.Errorf("one of -id or -email is required")
	}()
	if err != nil {
		return err
	}

	fmt.Printf("id:       %s\n", user.ID)
	fmt.Printf("email:    %s\n", user.Email)
	fmt.Printf("name:     %s\n", user.DisplayName)
	fmt.Printf("status:   %s\n", user.Status)
	fmt.Printf("created:  %s\n", user.CreatedAt.UTC().Format(time.RFC3339))
	if user.Deleted() {
		fmt.Printf("deleted:  %s\n", user.DeletedAt.UTC().Format(time.RFC3339))
	}

	hist, err := svc.StatusHistory(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, c := range hist {
		fmt.Printf("  %s  %s by %s  %s\n",
			c.ChangedAt.UTC().Format(time.RFC3339), c.Status, c.ChangedBy, c.Reason)
	}
	return nil
}

func usersSetStatus(ctx context.Context, root config.Conf, args []string, approve bool) error {
	verb := "deactivate"
	if approve {
		verb = "approve"
	}
	fs := flag.NewFlagSet("users "+verb, flag.ExitOnError)
	id := fs.String("id", "", "account id")
	by := fs.String("by", "admin-cli", "who is making the change")
	reason := fs.String("reason", "", "why")
	_ = fs.Parse(args)

	uid, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("bad -id: %w", err)
	}

	st, err := openStore(ctx, root)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	svc := accountsService(st, root)
	if approve {
		user, err := svc.Approve(ctx, uid, *by, *reason)
		if err != nil {
			return err
		}
		fmt.Printf("%s is now %s\n", user.Email, user.Status)
		return nil
	}
	user, err := svc.Deactivate(ctx, uid, *by, *reason)
	if err != nil {
		return err
	}
	fmt.Printf("%s is now %s\n", user.Email, user.Status)
	return nil
}

func dbMigrate(ctx context.Context, root config.Conf) error {
	url := root.Prefix("SERVICE_PGSQL_").MustString("DBURL")
	return db.Migrate(ctx, url)
}

func dbStatus(ctx context.Context, root config.Conf) error {
	url := root.Prefix("SERVICE_PGSQL_").MustString("DBURL")
	return db.Status(ctx, url)
}

func scraperRun(ctx context.Context, root config.Conf) error {
	st, err := openStore(ctx, root)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	deps := modkit.Deps{Cfg: root, PG: st.PG}
	lm := listmod.New(deps)
	ports := lm.Ports().(listmod.Ports)
	nm := notifymod.New(deps, ports.Email)
	lm.SetNotifier(nm.Ports().(notifymod.Ports).Notifier)

	report, err := ports.Pipeline.RunOnce(ctx, listdom.RunKindManual)
	if err != nil {
		return err
	}
	fmt.Printf("run %s status=%s links=%d added=%d updated=%d deleted=%d\n",
		report.RunID, report.Status,
		report.Stats.LinksDiscovered,
		report.Stats.RecordsAdded, report.Stats.RecordsUpdated, report.Stats.RecordsDeleted)
	if report.Status != listdom.RunStatusSuccess {
		return fmt.Errorf("run finished with status %s", report.Status)
	}
	return nil
}

func systemInfo(ctx context.Context, root config.Conf) error {
	st, err := openStore(ctx, root)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	repo := listingsrepo.NewPG().Bind(st.PG)

	last, err := repo.LastSuccessfulStartedAt(ctx)
	if err != nil {
		return err
	}
	if last == nil {
		fmt.Println("last successful scrape: never")
	} else {
		fmt.Printf("last successful scrape: %s\n", last.UTC().Format(time.RFC3339))
	}

	runs, err := repo.ListRuns(ctx, 10)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tKIND\tSTATUS\tLINKS\tADDED\tUPDATED\tDELETED\tERROR")
	for _, r := range runs {
		msg := ""
		if r.ErrorMessage != nil {
			msg = *r.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.UTC().Format(time.RFC3339), r.Kind, r.Status,
			r.LinksDiscovered, r.RecordsAdded, r.RecordsUpdated, r.RecordsDeleted, msg)
	}
	return w.Flush()
}
