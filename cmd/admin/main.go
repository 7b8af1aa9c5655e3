package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"blackjack-server/internal/config"
	"blackjack-server/internal/jwt"
	"blackjack-server/internal/util"
	"blackjack-server/pkg/db"
	"blackjack-server/pkg/ledger"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

var command = flag.String("c", "token", "specifies the command (token, keys, chips)")
var username = flag.String("u", "", "the player identity, -c token picks a random one if empty")
var ttl = flag.Duration("ttl", 24*time.Hour, "how long a token is valid, 0 never expires")
var amount = flag.Int("amount", 0, "chips to add (or remove, if negative) with -c chips")

func main() {
	flag.Parse()

	switch *command {
	case "token":
		if *username == "" {
			*username = util.GetRandomUsername()
			_, _ = fmt.Fprintf(os.Stderr, "signing a token for %s\n", *username)
		}

		jwt.LoadKeys()

		token, err := jwt.Sign(*username, *ttl)
		if err != nil {
			logrus.WithError(err).Fatal("could not sign token")
		}

		fmt.Println(token)
	case "keys":
		cfg := config.Instance().JWT
		for _, path := range []string{cfg.PrivateKey, cfg.PublicKey} {
			if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
				logrus.WithError(err).Fatal("could not create key directory")
			}
		}

		if err := jwt.GenerateKeys(cfg.PrivateKey, cfg.PublicKey); err != nil {
			logrus.WithError(err).Fatal("could not generate keys")
		}

		fmt.Printf("Wrote %s and %s\n", cfg.PrivateKey, cfg.PublicKey)
	case "chips":
		requireUsername()
		ctx := context.Background()
		l := ledger.NewPostgres(db.Instance(), config.Instance().Table.StartingChips)

		if *amount != 0 {
			if err := l.ApplyDelta(ctx, *username, *amount); err != nil {
				logrus.WithError(err).Fatal("could not apply chips")
			}
		}

		balance, err := l.GetBalance(ctx, *username)
		if err != nil {
			logrus.WithError(err).Fatal("could not get balance")
		}

		fmt.Printf("%s has %d chips\n", *username, balance)
	default:
		logrus.Fatalf("unknown command: %s", *command)
	}
}

func requireUsername() {
	if *username == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-u is required")
		os.Exit(1)
	}
}
