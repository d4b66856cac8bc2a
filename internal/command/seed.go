package command

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/waxcrate/waxcrate/internal/sec"
	"github.com/waxcrate/waxcrate/internal/storage"
	"github.com/waxcrate/waxcrate/internal/storage/db"
)

// Demo data constants.
const (
	demoUsername = "demo@waxcrate.local"
	demoPassword = "demo"
	minRecords   = 12
	maxExtra     = 12 // 12-24 records total
)

// seed returns the demo data seed from the DEV_SEED environment variable, or
// a random value if not set.
func seed() uint64 {
	if env := os.Getenv("DEV_SEED"); env != "" {
		if s, err := strconv.ParseUint(env, 10, 64); err == nil {
			return s
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for demo data
}

// seedDemoData populates the store with a demo account and a generated
// collection so dev mode starts with something to browse.
func seedDemoData(ctx context.Context, logger *slog.Logger, store storage.Store) error {
	hash, err := sec.HashPassword(demoPassword)
	if err != nil {
		return err
	}
	user, err := store.CreateUser(ctx, db.NewUser{
		Username:     demoUsername,
		PasswordHash: hash,
		DisplayName:  "Demo Collector",
	})
	if errors.Is(err, storage.ErrAlreadyExists) {
		logger.InfoContext(ctx, "demo user already present, skipping seed")
		return nil
	} else if err != nil {
		return err
	}

	s := seed()
	faker := gofakeit.New(s)
	conditions := []string{"Mint", "Near Mint", "VG+", "VG", "Good"}

	count := minRecords + faker.Number(0, maxExtra)
	for range count {
		song := faker.Song()
		_, err := store.CreateRecord(ctx, db.NewRecord{
			OwnerID: user.ID,
			Title:   song.Name,
			Artist:  song.Artist,
			Year:    strconv.Itoa(faker.Number(1955, 1999)),
			Genre:   song.Genre,
			CustomFields: map[string]string{
				"condition": conditions[faker.Number(0, len(conditions)-1)],
				"label":     faker.Company(),
			},
		})
		if err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "seeded demo data",
		slog.String("username", demoUsername),
		slog.String("password", demoPassword),
		slog.Int("records", count),
		slog.Uint64("seed", s),
	)
	return nil
}
