// Command poolgen fetches a cube from the card search API and writes a
// generated pool as CSV, without starting the web server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"cubepool/internal/config"
	"cubepool/internal/cube"

	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process globals; it returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	def := config.DefaultConfig()

	flags := pflag.NewFlagSet("poolgen", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	sets := flags.StringP("sets", "s", def.Scryfall.DefaultSets, "comma-separated set codes")
	rarity := flags.BoolP("rarity", "r", true, "keep rarity (required for rare/uncommon/common slots)")
	packs := flags.IntP("packs", "p", def.Packs.PackCount, "number of packs")
	rares := flags.Int("rares", def.Packs.RaresPerPack, "rare or mythic cards per pack")
	uncommons := flags.Int("uncommons", def.Packs.UncommonsPerPack, "uncommon cards per pack")
	commons := flags.Int("commons", def.Packs.CommonsPerPack, "common cards per pack")
	columns := flags.String("columns", "name", "exported columns: name or name,rarity")
	out := flags.StringP("out", "o", "", "output file (default: stdout)")
	apiURL := flags.String("api", def.Scryfall.BaseURL, "card search API base URL")
	pageDelay := flags.Duration("page-delay", def.Scryfall.PageDelay, "pause between result pages")
	maxPages := flags.Int("max-pages", def.Scryfall.MaxPages, "stop after this many pages")
	seed := flags.Uint64("seed", 0, "random seed for a reproducible pool (0 picks one)")
	quiet := flags.BoolP("quiet", "q", false, "suppress progress output")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: poolgen [flags]")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		flags.Usage()
		return 2
	}

	logf := func(format string, a ...any) {
		if !*quiet {
			fmt.Fprintf(stderr, format+"\n", a...)
		}
	}

	query, err := cube.ParseFetchQuery(*sets, *rarity)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	spec, err := cube.ParsePackSpec(strconv.Itoa(*packs), strconv.Itoa(*rares), strconv.Itoa(*uncommons), strconv.Itoa(*commons))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	cols, err := cube.ParseColumns(*columns)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg := def
	cfg.Scryfall.BaseURL = *apiURL
	cfg.Scryfall.PageDelay = *pageDelay
	cfg.Scryfall.MaxPages = *maxPages
	if u, err := url.Parse(cfg.Scryfall.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		fmt.Fprintf(stderr, "Error: --api must be an absolute http(s) URL, got %q\n", cfg.Scryfall.BaseURL)
		return 2
	}
	if cfg.Scryfall.MaxPages < 1 || cfg.Scryfall.PageDelay < 0 {
		fmt.Fprintln(stderr, "Error: --max-pages must be at least 1 and --page-delay cannot be negative")
		return 2
	}

	logf("Fetching %s from %s", query.SearchExpression(), cfg.Scryfall.BaseURL)
	start := time.Now()
	result := cube.NewFetcher(cfg).Fetch(ctx, query, func(p cube.PageProgress) {
		logf("  page %d: %d/%d cards", p.Page, p.Cards, p.TotalCards)
	})

	switch result.Status {
	case cube.FetchComplete:
		logf("Fetched %d cards in %d pages (%s)", len(result.Cube), result.Pages, time.Since(start).Round(time.Millisecond))
	case cube.FetchCancelled:
		fmt.Fprintf(stderr, "Cancelled after %d pages\n", result.Pages)
		return 130
	default:
		fmt.Fprintf(stderr, "Warning: partial cube of %d cards: %v\n", len(result.Cube), result.Err)
	}

	if *seed == 0 {
		*seed = rand.Uint64()
	}
	pool := cube.NewSampler(rand.NewPCG(*seed, *seed)).GeneratePool(result.Cube, spec)
	if want := spec.PackSize() * spec.PackCount; len(pool) < want {
		fmt.Fprintf(stderr, "Warning: the cube only had enough cards for %d of %d\n", len(pool), want)
	}
	logf("Generated %d cards (seed %d)", len(pool), *seed)

	body := cube.Export(pool, cube.ExportOptions{Columns: cols})
	if *out == "" {
		if _, err := stdout.Write(body); err != nil {
			fmt.Fprintf(stderr, "Error writing pool: %v\n", err)
			return 1
		}
		return 0
	}

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(stderr, "Error creating directory: %v\n", err)
			return 1
		}
	}
	if err := os.WriteFile(*out, body, 0644); err != nil {
		fmt.Fprintf(stderr, "Error writing pool: %v\n", err)
		return 1
	}
	absPath, _ := filepath.Abs(*out)
	logf("Pool saved to %s", absPath)
	return 0
}
