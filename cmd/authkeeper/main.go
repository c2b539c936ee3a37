// Command authkeeper is a small admin tool around the credential engine:
// it migrates the schema and manages principals (register, verify a secret,
// reset a secret, sign out everywhere) against the configured database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/authkeeper"
	"github.com/dmitrijs2005/authkeeper/config"
	"github.com/dmitrijs2005/authkeeper/credential"
	"github.com/dmitrijs2005/authkeeper/internal/flagx"
	"github.com/dmitrijs2005/authkeeper/logging"
)

const usage = `usage: authkeeper <command> [-l login] [config flags]

commands:
  migrate    apply schema migrations
  register   create a principal (prompts for secret)
  verify     check a secret against the stored credential
  reset      replace the secret with a generated one and print it
  forget     rotate the correlation token ("sign out everywhere")
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	app, err := authkeeper.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := dispatch(ctx, app, command); err != nil {
		log.Fatalf("%v", err)
	}
}

func dispatch(ctx context.Context, app *authkeeper.App, command string) error {
	switch command {
	case "migrate":
		return app.Migrate(ctx)
	case "register":
		return runRegister(ctx, app, loginFlag())
	case "verify":
		return runVerify(ctx, app, loginFlag())
	case "reset":
		return runReset(ctx, app, loginFlag())
	case "forget":
		return runForget(ctx, app, loginFlag())
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func loginFlag() string {
	args := flagx.FilterArgs(os.Args[2:], []string{"-l", "-login"})

	var login string
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.StringVar(&login, "login", "", "principal login")
	fs.StringVar(&login, "l", "", "principal login (short)")
	_ = fs.Parse(args)

	if login == "" {
		log.Fatal("a login is required: -l <login>")
	}
	return login
}

func runRegister(ctx context.Context, app *authkeeper.App, login string) error {
	secret, err := promptSecret(os.Stdout, "Enter secret: ")
	if err != nil {
		return err
	}
	confirm, err := promptSecret(os.Stdout, "Confirm secret: ")
	if err != nil {
		return err
	}

	p := &credential.Principal{Login: login}
	if err := app.Store.AssignSecret(p, string(secret), string(confirm)); err != nil {
		return err
	}
	wipe(secret, confirm)

	if err := app.Store.Save(ctx, p); err != nil {
		return err
	}
	fmt.Printf("registered %s (id %s)\n", p.Login, p.ID)
	return nil
}

func runVerify(ctx context.Context, app *authkeeper.App, login string) error {
	p, err := app.Principals.ByLogin(ctx, login)
	if err != nil {
		return err
	}

	secret, err := promptSecret(os.Stdout, "Enter secret: ")
	if err != nil {
		return err
	}
	ok, err := app.Store.VerifySecret(p, string(secret))
	wipe(secret)
	if err != nil {
		return err
	}

	if !ok {
		return errors.New("secret does not match")
	}
	fmt.Println("secret ok")
	return nil
}

func runReset(ctx context.Context, app *authkeeper.App, login string) error {
	p, err := app.Principals.ByLogin(ctx, login)
	if err != nil {
		return err
	}

	plain, err := app.Store.ResetSecret(ctx, p)
	if err != nil {
		return err
	}
	// The generated secret is not retrievable later; print it once.
	fmt.Printf("new secret for %s: %s\n", login, plain)
	return nil
}

func runForget(ctx context.Context, app *authkeeper.App, login string) error {
	p, err := app.Principals.ByLogin(ctx, login)
	if err != nil {
		return err
	}

	if err := app.Store.Forget(ctx, p); err != nil {
		return err
	}
	fmt.Printf("rotated correlation token for %s; existing sessions are orphaned\n", login)
	return nil
}
