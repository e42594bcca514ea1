package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bakerybot/backend/pkg/errors"
	"bakerybot/backend/pkg/logger"
	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const maxResults = 5

// Listing is one product hit from the storefront search page
type Listing struct {
	Title string
	Price string // display string, e.g. "250 บาท"
	Link  string

	// PriceValue is the parsed price for filtering; HasPrice is false when
	// the storefront did not publish one
	PriceValue float64
	HasPrice   bool
}

// Scraper looks up products on the storefront search page
type Scraper struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewScraper creates a catalog scraper for the given storefront
func NewScraper(baseURL string, timeout time.Duration) *Scraper {
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Get(),
	}
}

// Search fetches the search page for a term and returns up to five listings
func (s *Scraper) Search(ctx context.Context, term string) ([]Listing, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s", s.baseURL, url.QueryEscape(term))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, errors.NewCatalogFetchFailed(term, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewCatalogFetchFailed(term, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewCatalogFetchFailed(term, fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.NewCatalogFetchFailed(term, err)
	}

	var listings []Listing
	doc.Find("div.product_name").EachWithBreak(func(_ int, card *goquery.Selection) bool {
		listing := s.parseCard(card)
		if listing.Title == "" {
			return true
		}
		listings = append(listings, listing)
		return len(listings) < maxResults
	})

	s.logger.Debug("Catalog search completed",
		zap.String("term", term),
		zap.Int("results", len(listings)),
	)

	return listings, nil
}

func (s *Scraper) parseCard(card *goquery.Selection) Listing {
	listing := Listing{
		Title: strings.TrimSpace(card.Text()),
		Link:  "Link not available",
		Price: "Price not available",
	}

	anchor := card.Find("a").First()
	if anchor.Length() == 0 {
		return listing
	}

	if href, ok := anchor.Attr("href"); ok {
		if strings.HasPrefix(href, "http") {
			listing.Link = href
		} else {
			listing.Link = s.baseURL + href
		}
	}

	// Product metadata rides along in the anchor's gaeepd attribute as
	// HTML-escaped JSON
	if raw, ok := anchor.Attr("gaeepd"); ok {
		var meta map[string]interface{}
		decoded := strings.ReplaceAll(raw, "&quot;", `"`)
		if err := json.Unmarshal([]byte(decoded), &meta); err == nil {
			if priceStr, ok := meta["price"].(string); ok && priceStr != "" {
				listing.Price = priceStr + " บาท"
				if value, err := CleanPrice(priceStr); err == nil {
					listing.PriceValue = value
					listing.HasPrice = true
				}
			}
		}
	}

	return listing
}

// CleanPrice parses a storefront price string. Currency markers and
// thousands separators are stripped; a "low - high" range yields the low end
func CleanPrice(priceStr string) (float64, error) {
	cleaned := strings.NewReplacer("฿", "", "บาท", "", ",", "").Replace(priceStr)
	cleaned = strings.TrimSpace(cleaned)

	if idx := strings.Index(cleaned, "-"); idx >= 0 {
		cleaned = strings.TrimSpace(cleaned[:idx])
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable price %q: %w", priceStr, err)
	}
	return value, nil
}
