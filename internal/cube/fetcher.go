package cube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"cubepool/internal/config"

	"golang.org/x/time/rate"
)

// maxPageBytes bounds a single decoded search page
const maxPageBytes = 8 << 20

// FetchStatus tells the UI whether a cube is everything the API had to offer
type FetchStatus string

const (
	FetchComplete  FetchStatus = "complete"
	FetchPartial   FetchStatus = "partial"
	FetchCancelled FetchStatus = "cancelled"
)

// FetchResult is the outcome of one Fetch. Cube always holds the cards
// accumulated before the loop stopped, even when Err is set.
type FetchResult struct {
	Cube   Cube
	Status FetchStatus
	Pages  int
	Err    error
}

// PageProgress is reported after every page that was appended to the cube
type PageProgress struct {
	Page       int
	Cards      int
	TotalCards int
}

// searchPage is one page of /cards/search
type searchPage struct {
	Object     string       `json:"object"`
	TotalCards int          `json:"total_cards"`
	HasMore    bool         `json:"has_more"`
	NextPage   string       `json:"next_page"`
	Data       []searchCard `json:"data"`
}

type searchCard struct {
	Name   string `json:"name"`
	Rarity string `json:"rarity"`
}

// Fetcher walks the paginated card search API one page at a time.
type Fetcher struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	baseURL      string
	userAgent    string
	pageDelay    time.Duration
	fetchTimeout time.Duration
	maxPages     int
	debug        bool
}

// NewFetcher creates a Fetcher from the scryfall section of the config.
// The limiter is shared by every fetch made through this Fetcher.
func NewFetcher(cfg *config.ServerConfig) *Fetcher {
	s := cfg.Scryfall
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: s.RequestTimeout,
		},
		limiter:      rate.NewLimiter(rate.Limit(s.RequestsPerSec), 1),
		baseURL:      s.BaseURL,
		userAgent:    s.UserAgent,
		pageDelay:    s.PageDelay,
		fetchTimeout: s.FetchTimeout,
		maxPages:     s.MaxPages,
		debug:        cfg.Debug(),
	}
}

// Fetch accumulates every card matching q into a new Cube. Pages are requested
// strictly in sequence, following the next_page cursor of each response.
//
// Transport failures, non-success statuses and malformed pages end the loop
// with FetchPartial and the cards gathered so far. Cancelling ctx ends it with
// FetchCancelled. onPage may be nil.
func (f *Fetcher) Fetch(ctx context.Context, q FetchQuery, onPage func(PageProgress)) FetchResult {
	if f.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.fetchTimeout)
		defer cancel()
	}

	pageURL := SearchURL(f.baseURL, q)
	cards := make(Cube, 0)
	pages := 0

	for {
		if err := ctx.Err(); err != nil {
			return stopped(cards, pages, err)
		}

		page, err := f.fetchPage(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return stopped(cards, pages, ctx.Err())
			}
			log.Printf("❌ Cube fetch stopped at page %d: %v", pages+1, err)
			return FetchResult{Cube: cards, Status: FetchPartial, Pages: pages, Err: err}
		}

		pages++
		for _, raw := range page.Data {
			card := Card{Name: raw.Name}
			if q.IncludeRarity {
				card.Rarity = Rarity(raw.Rarity)
			}
			cards = append(cards, card)
		}
		if f.debug {
			log.Printf("DEBUG: 📄 page %d: %d cards (%d/%d)", pages, len(page.Data), len(cards), page.TotalCards)
		}
		if onPage != nil {
			onPage(PageProgress{Page: pages, Cards: len(cards), TotalCards: page.TotalCards})
		}

		if page.NextPage == "" {
			return FetchResult{Cube: cards, Status: FetchComplete, Pages: pages}
		}
		if pages >= f.maxPages {
			log.Printf("⚠️ Cube fetch hit the page limit (%d pages, %d cards)", pages, len(cards))
			return FetchResult{Cube: cards, Status: FetchPartial, Pages: pages, Err: fmt.Errorf("%w after %d pages", ErrPageLimit, pages)}
		}
		next, err := f.checkCursor(page.NextPage)
		if err != nil {
			log.Printf("❌ Cube fetch stopped at page %d: %v", pages, err)
			return FetchResult{Cube: cards, Status: FetchPartial, Pages: pages, Err: err}
		}

		// Courtesy pause before asking for the next page
		if err := sleep(ctx, f.pageDelay); err != nil {
			return stopped(cards, pages, err)
		}
		pageURL = next
	}
}

// fetchPage issues one GET and decodes the page
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (*searchPage, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{Code: resp.StatusCode, URL: pageURL}
	}

	var page searchPage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPageBytes)).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}
	if page.Object != "list" {
		return nil, fmt.Errorf("%w: unexpected object %q", ErrMalformedPage, page.Object)
	}
	return &page, nil
}

// checkCursor only follows next_page links that stay on the configured API host
func (f *Fetcher) checkCursor(next string) (string, error) {
	base, err := url.Parse(f.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrForeignCursor, err)
	}
	if u.Scheme != base.Scheme || u.Host != base.Host {
		return "", fmt.Errorf("%w: %s", ErrForeignCursor, u.Redacted())
	}
	return u.String(), nil
}

// stopped builds the result for a loop ended by its context
func stopped(cards Cube, pages int, err error) FetchResult {
	if errors.Is(err, context.Canceled) {
		return FetchResult{Cube: cards, Status: FetchCancelled, Pages: pages, Err: err}
	}
	log.Printf("⏱️ Cube fetch timed out after %d pages", pages)
	return FetchResult{Cube: cards, Status: FetchPartial, Pages: pages, Err: fmt.Errorf("fetch timed out: %w", err)}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
