// Command aura is the on-device CLI for the AuraHealth core: account and
// profile management, observation logging, cycle and risk assessment, and
// the background sync dispatcher.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/radheshpai87/aurahealth-core/internal/errs"
	"github.com/radheshpai87/aurahealth-core/internal/limiter"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/registry"
	"github.com/radheshpai87/aurahealth-core/internal/storage"
	"github.com/radheshpai87/aurahealth-core/internal/storage/badgerstore"
	"github.com/radheshpai87/aurahealth-core/internal/storage/secretstore"
	"github.com/radheshpai87/aurahealth-core/internal/tracker"
)

// ---- data dir / device secret ----

func dataDir() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, "aurahealth")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "aurahealth")
}

// deviceSecret loads the keychain material for the secret tier, generating
// it on first run. The same material signs the persisted session token.
func deviceSecret(dir string) ([]byte, error) {
	p := filepath.Join(dir, "device.secret")
	if b, err := os.ReadFile(p); err == nil && len(b) > 0 {
		return b, nil
	}
	sec, err := secretstore.GenerateSecret()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(p, sec, 0o600); err != nil {
		return nil, err
	}
	return sec, nil
}

// ---- app wiring ----

// app assembles the device-side services over the two storage tiers.
type app struct {
	users  *registry.ServiceImpl
	track  *tracker.ServiceImpl
	scoped *storage.Scoped
	log    *zap.Logger

	secret *secretstore.SecretStore
	bulk   *badgerstore.Store
}

func openApp(dir string, log *zap.Logger) (*app, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	sec, err := deviceSecret(dir)
	if err != nil {
		return nil, err
	}
	secret, err := secretstore.Open(secretstore.Config{
		Path:   filepath.Join(dir, "secrets.json"),
		Secret: sec,
	}, log)
	if err != nil {
		return nil, err
	}
	bulk, err := badgerstore.Open(badgerstore.DefaultConfig(filepath.Join(dir, "bulk")), log)
	if err != nil {
		_ = secret.Close()
		return nil, err
	}

	session := storage.NewSessionHandle()
	lim := limiter.NewMemory(15*time.Minute, 5, 15*time.Minute)
	users := registry.NewService(secret, bulk, session, registry.Config{SignKey: sec}, lim, log)

	return &app{
		users:  users,
		track:  tracker.NewService(users.Scoped(), log),
		scoped: users.Scoped(),
		log:    log,
		secret: secret,
		bulk:   bulk,
	}, nil
}

func (a *app) Close() {
	if err := a.bulk.Close(); err != nil {
		a.log.Warn("close bulk store", zap.Error(err))
	}
	if err := a.secret.Close(); err != nil {
		a.log.Warn("close secret store", zap.Error(err))
	}
}

// requireUser restores the persisted session or exits.
func (a *app) requireUser(ctx context.Context) model.User {
	u, err := a.users.RestoreSession(ctx)
	if err != nil {
		fail(err)
	}
	if u == nil {
		fail(errors.New("no active session (login first)"))
	}
	return *u
}

func resolveUser(ctx context.Context, a *app, idOrName string) (string, error) {
	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return "", err
	}
	for _, u := range users {
		if u.ID == idOrName {
			return u.ID, nil
		}
	}
	for _, u := range users {
		if u.Name == idOrName {
			return u.ID, nil
		}
	}
	return "", fmt.Errorf("user %q: %w", idOrName, errs.ErrNotFound)
}

func usage() {
	fmt.Fprintf(os.Stderr, `aura CLI
Usage:
  aura [-data DIR] [-server URL] [-v] <cmd> [args]

Commands:
  version
  register    -name <name> -pin <4 digits> [-role subject|field_worker]
  login       -user <id|name> -pin <4 digits>
  logout
  whoami
  users
  delete-user -id <uuid> -yes
  profile     set|show [flags]
  period      add|rm|list [-date YYYY-MM-DD]
  log         add|list [flags]
  mood        [-date YYYY-MM-DD] [-tag positive|neutral|negative]
  flow        [-date YYYY-MM-DD] [-tag none|light|medium|heavy]
  symptoms    [-date YYYY-MM-DD] [-tags a,b,c]
  cycle
  checklist   [-tags a,b,c]
  assess      [-symptoms a,b] [-fainted] [-severe-pain] [-vomiting]
              [-village CODE] [-lang en|hi] [-ml URL]
  history
  emergency   -level LOW|MODERATE|HIGH [-symptoms a,b] [-contacts n1,n2]
              [-lat F -lon F] [-lang en|hi]
  sync        now|status|watch        (needs -server)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands over the assembled device services.
func main() {
	// global flags
	dir := flag.String("data", dataDir(), "data directory")
	server := flag.String("server", "", "aggregation service base URL")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	if cmd == "version" {
		fmt.Printf("aura %s (%s)\n", version, buildDate)
		return
	}

	log := zap.NewNop()
	if *verbose {
		log, _ = zap.NewDevelopment()
	}
	defer func() { _ = log.Sync() }()

	a, err := openApp(*dir, log)
	if err != nil {
		fail(err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("name", "", "display name")
		pin := fs.String("pin", "", "4-digit pin")
		role := fs.String("role", string(model.RoleSubject), "subject|field_worker")
		_ = fs.Parse(args)
		if *name == "" || *pin == "" {
			fmt.Fprintln(os.Stderr, "need -name and -pin")
			os.Exit(1)
		}

		u, err := a.users.Register(ctx, *name, model.Role(*role), *pin)
		if err != nil {
			fail(err)
		}
		printJSON(u)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		user := fs.String("user", "", "user id or name")
		pin := fs.String("pin", "", "4-digit pin")
		_ = fs.Parse(args)
		if *user == "" || *pin == "" {
			fmt.Fprintln(os.Stderr, "need -user and -pin")
			os.Exit(1)
		}

		id, err := resolveUser(ctx, a, *user)
		if err != nil {
			fail(err)
		}
		res, err := a.users.LoginWithPin(ctx, id, *pin)
		if err != nil {
			fail(err)
		}
		if !res.Success {
			fail(errs.ErrPinMismatch)
		}
		printJSON(res.User)

	case "logout":
		if err := a.users.Logout(ctx); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "whoami":
		u, err := a.users.RestoreSession(ctx)
		if err != nil {
			fail(err)
		}
		if u == nil {
			fmt.Fprintln(os.Stderr, "no active session")
			os.Exit(1)
		}
		printJSON(u)

	case "users":
		list, err := a.users.ListUsers(ctx)
		if err != nil {
			fail(err)
		}
		if list == nil {
			list = []model.User{}
		}
		printJSON(list)

	case "delete-user":
		fs := flag.NewFlagSet("delete-user", flag.ExitOnError)
		id := fs.String("id", "", "user id")
		yes := fs.Bool("yes", false, "confirm deletion")
		_ = fs.Parse(args)
		if *id == "" {
			fmt.Fprintln(os.Stderr, "need -id")
			os.Exit(1)
		}
		if !*yes {
			fmt.Fprintln(os.Stderr, "delete-user wipes every record of this user; re-run with -yes")
			os.Exit(1)
		}

		if err := a.users.DeleteUser(ctx, *id); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "profile":
		cmdProfile(ctx, a, args)
	case "period":
		cmdPeriod(ctx, a, args)
	case "log":
		cmdLog(ctx, a, args)
	case "mood":
		cmdMood(ctx, a, args)
	case "flow":
		cmdFlow(ctx, a, args)
	case "symptoms":
		cmdSymptoms(ctx, a, args)
	case "cycle":
		cmdCycle(ctx, a)
	case "checklist":
		cmdChecklist(args)
	case "assess":
		cmdAssess(ctx, a, args, *server)
	case "history":
		cmdHistory(ctx, a)
	case "emergency":
		cmdEmergency(ctx, a, args)
	case "sync":
		cmdSync(ctx, a, args, *server)
	default:
		usage()
	}
}

// ---- helpers ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
