package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/spec-kit/storefront/internal/client"
	"github.com/spec-kit/storefront/internal/config"
	"github.com/spec-kit/storefront/internal/guard"
)

const usage = `usage: storefront <command> [flags]

commands:
  login -email <email> -password <password>
  logout
  whoami
  open <path>      e.g. /profile, /checkout, /admin/users`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store := guard.NewFileStore(cfg.StorageFile)
	app := client.NewApp(client.New(cfg.APIURL, cfg.Timeout()), store, os.Stdout)

	if err := run(app, os.Args[1], os.Args[2:]); err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func run(app *client.App, cmd string, args []string) error {
	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", os.Getenv("STOREFRONT_PASSWORD"), "account password")
		_ = fs.Parse(args)
		if *email == "" || *password == "" {
			return fmt.Errorf("email and password required")
		}
		return app.Login(*email, *password)
	case "logout":
		return app.Logout()
	case "whoami":
		return app.WhoAmI()
	case "open":
		if len(args) != 1 {
			return fmt.Errorf("open takes exactly one path")
		}
		return app.Open(args[0])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
		return nil
	}
}
