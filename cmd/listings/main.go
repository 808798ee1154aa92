// Command listings maintains the mapping from platform listing titles to
// cabins.  Without flags it prints the current mappings; with -ref and
// -cabin it points a reference at a cabin, bumping its version when it
// moves.  The resulting table is validated the same way the server
// validates it at start-up.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/config"
	"github.com/iliyamo/cabin-booking/internal/database"
	"github.com/iliyamo/cabin-booking/internal/repository"
)

func main() {
	_ = godotenv.Load()

	ref := flag.String("ref", "", "listing reference as it appears in the platform export")
	cabinID := flag.Uint64("cabin", 0, "cabin id the reference resolves to")
	flag.Parse()

	if err := run(*ref, *cabinID); err != nil {
		fmt.Fprintln(os.Stderr, "listings:", err)
		os.Exit(1)
	}
}

func run(ref string, cabinID uint64) error {
	cfg := config.Load()
	db, err := database.Open(database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listings := repository.NewListingRepo(db)
	cabins := repository.NewCabinRepo(db)

	if ref != "" || cabinID != 0 {
		if ref == "" || cabinID == 0 {
			return fmt.Errorf("-ref and -cabin go together")
		}
		if _, err := cabins.GetByID(ctx, cabinID); err != nil {
			return fmt.Errorf("cabin %d: %w", cabinID, err)
		}
		if err := listings.Upsert(ctx, ref, cabinID); err != nil {
			return err
		}
	}

	mappings, err := listings.List(ctx)
	if err != nil {
		return err
	}
	all, err := cabins.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tCABIN\tVERSION")
	for _, m := range mappings {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", m.ID, m.ListingRef, m.CabinID, m.Version)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	_, err = booking.NewUnitMap(mappings, all)
	return err
}
