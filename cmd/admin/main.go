package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/stockroom-backend/internal/auth"
	"github.com/angelmondragon/stockroom-backend/internal/licenses"
	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/outbox"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

const tempPasswordLen = 16

func main() {
	logg := logger.New(logger.Options{ServiceName: "admin"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "", "admin command: create-account|issue-license")

	phone := flag.String("phone", "", "phone number (create-account)")
	password := flag.String("password", "", "password, generated when empty (create-account)")
	email := flag.String("email", "", "email (create-account)")
	first := flag.String("first", "", "first name (create-account)")
	last := flag.String("last", "", "last name (create-account)")

	days := flag.Int("days", 365, "license length in days (issue-license)")
	start := flag.String("start", "", "license start as RFC3339, defaults to now (issue-license)")
	inventory := flag.Bool("inventory", true, "grant the inventory plan (issue-license)")
	count := flag.Int("count", 1, "number of keys to issue (issue-license)")
	key := flag.String("key", "", "explicit key, only valid with -count=1 (issue-license)")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "admin",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmd,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	switch *cmd {
	case "create-account":
		secret := *password
		generated := secret == ""
		if generated {
			secret, err = security.GenerateTempPassword(tempPasswordLen)
			requireResource(ctx, logg, "password generator", err)
		}
		accounts := auth.NewAccountService(users.NewRepository(dbClient.DB()), cfg.Password)
		user, err := accounts.CreateAccount(ctx, auth.CreateAccountRequest{
			PhoneNumber: *phone,
			Password:    secret,
			Email:       *email,
			FirstName:   *first,
			LastName:    *last,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "create account failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created account %s (%s)\n", user.ID, user.PhoneNumber)
		if generated {
			fmt.Printf("temporary password: %s\n", secret)
		}

	case "issue-license":
		if *count < 1 {
			fmt.Fprintln(os.Stderr, "-count must be at least 1")
			os.Exit(1)
		}
		if *key != "" && *count != 1 {
			fmt.Fprintln(os.Stderr, "-key can only be used with -count=1")
			os.Exit(1)
		}
		if *days < 0 {
			fmt.Fprintln(os.Stderr, "-days must not be negative")
			os.Exit(1)
		}
		startDate := time.Now().UTC()
		if *start != "" {
			startDate, err = time.Parse(time.RFC3339, *start)
			if err != nil {
				fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
				os.Exit(1)
			}
		}

		svc, err := licenses.NewService(licenses.ServiceParams{
			DB:     dbClient,
			Repo:   licenses.NewRepository(dbClient.DB()),
			Outbox: outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		})
		requireResource(ctx, logg, "license service", err)

		for i := 0; i < *count; i++ {
			license, err := svc.Issue(ctx, licenses.IssueInput{
				Key:            *key,
				StartDate:      startDate,
				EndDate:        startDate.AddDate(0, 0, *days),
				AllowInventory: *inventory,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "issue license failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s\t%s\t%s\n", license.Key, license.StartDate.Format(time.DateOnly), license.EndDate.Format(time.DateOnly))
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
