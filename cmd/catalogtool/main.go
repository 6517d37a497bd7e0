/*
 * Copyright © 2025 Ragamala Labs, All rights reserved.
 */

// Command catalogtool inspects a catalog deployment: it prints the static
// index contract per entity kind, the effective configuration, and can run
// one-off maintenance operations against the table.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/ragamala/catalogstore"
	"github.com/ragamala/catalogstore/config"
	"github.com/ragamala/catalogstore/keys"
	"github.com/ragamala/catalogstore/models"
	"github.com/ragamala/catalogstore/registry"
)

var (
	versionFlag = flag.Bool("version", false, "Show version information")
	vFlag       = flag.Bool("v", false, "Show version information (short)")
	configFlag  = flag.String("config", "", "Path to catalog YAML configuration")
	contractCmd = flag.Bool("contract", false, "Print the per-kind index slot contract")
	repairFlag  = flag.String("repair-composition", "", "Repair the latest row of a composition id")
)

func main() {
	flag.Parse()

	if *versionFlag || *vFlag {
		info := catalogstore.GetVersionInfo()
		fmt.Printf("catalogtool version %s\n", info.Version)
		fmt.Printf("Git commit: %s\n", info.GitCommit)
		fmt.Printf("Build date: %s\n", info.BuildDate)
		fmt.Printf("Go version: %s\n", info.GoVersion)
		os.Exit(0)
	}

	if *contractCmd {
		printContract()
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "catalogtool: %v\n", err)
		os.Exit(1)
	}
	printConfig(cfg)

	if *repairFlag != "" {
		if err := repairComposition(cfg, *repairFlag); err != nil {
			fmt.Fprintf(os.Stderr, "catalogtool: %v\n", err)
			os.Exit(1)
		}
	}
}

func printConfig(cfg *config.Config) {
	fmt.Printf("table:  %s\n", cfg.Table)
	fmt.Printf("region: %s\n", cfg.Region)
	if cfg.Endpoint != "" {
		fmt.Printf("endpoint: %s\n", cfg.Endpoint)
	}

	classes := make([]string, 0, len(cfg.RateLimits))
	for class := range cfg.RateLimits {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	fmt.Println("rate limits:")
	for _, class := range classes {
		limit := cfg.RateLimits[class]
		fmt.Printf("  %-10s %4d / %dms\n", class, limit.Max, limit.WindowMS)
	}
}

// printContract derives the slot table from the bindings themselves, so the
// output cannot drift from the code.
func printContract() {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "kind\tslot\tpartition\tsort")

	samples := []struct {
		kind  keys.Kind
		tuple func() (keys.KeyTuple, error)
	}{
		{keys.KindComposition, func() (keys.KeyTuple, error) {
			c := models.Composition{
				Versioned: models.Versioned{ID: "<id>", Version: 1, IsLatest: true},
				Title:     "<title>", Tradition: "<tradition>", Language: "<language>",
				RagaID: "<ragaId>", TalaID: "<talaId>",
			}
			return sampleTuple(&c)
		}},
		{keys.KindArtist, func() (keys.KeyTuple, error) {
			a := models.Artist{
				Versioned: models.Versioned{ID: "<id>", Version: 1, IsLatest: true},
				Name:      "<name>", Tradition: "<tradition>",
			}
			return sampleTuple(&a)
		}},
		{keys.KindRaga, func() (keys.KeyTuple, error) {
			r := models.Raga{
				Versioned: models.Versioned{ID: "<id>", Version: 1, IsLatest: true},
				Name:      "<name>", Tradition: "<tradition>", Melakarta: 29,
			}
			return sampleTuple(&r)
		}},
		{keys.KindTala, func() (keys.KeyTuple, error) {
			ta := models.Tala{
				Versioned: models.Versioned{ID: "<id>", Version: 1, IsLatest: true},
				Name:      "<name>", Tradition: "<tradition>",
			}
			return sampleTuple(&ta)
		}},
		{keys.KindAttribution, func() (keys.KeyTuple, error) {
			at := models.Attribution{
				CompositionID: "<compositionId>", ArtistID: "<artistId>",
				AttributionType: models.AttributionDisputed,
			}
			return sampleTuple(&at)
		}},
	}

	for _, s := range samples {
		tuple, err := s.tuple()
		if err != nil {
			fmt.Fprintf(os.Stderr, "catalogtool: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(w, "%s\tprimary\t%s\t%s\n", s.kind, tuple.PK, tuple.SK)
		for i, pair := range tuple.GSI {
			if pair.PK == "" {
				continue
			}
			fmt.Fprintf(w, "%s\tgsi%d\t%s\t%s\n", s.kind, i+1, pair.PK, pair.SK)
		}
	}
	w.Flush()
}

func sampleTuple[T any](entity *T) (keys.KeyTuple, error) {
	binding, ok := registry.GetBinding[T]()
	if !ok {
		return keys.KeyTuple{}, fmt.Errorf("no binding for %T", *entity)
	}
	return binding.Keys(entity)
}

func repairComposition(cfg *config.Config, id string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	catalog, err := catalogstore.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	repaired, err := catalog.Compositions.RepairLatest(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("composition %s healthy at version %d\n", id, repaired.Version)
	return nil
}
