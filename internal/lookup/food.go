package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SimplePineApple/BalanceTrackerBot/internal/tracker"
)

const (
	DefaultFoodURL = "https://world.openfoodfacts.org"
	foodCacheTTL   = 24 * time.Hour

	// kJPerKcal converts energy_100g (kJ) when no kcal field is present.
	kJPerKcal = 4.184
)

// Food resolves products through the OpenFoodFacts search API.
type Food struct {
	baseURL string
	client  *http.Client
	cache   Cache
}

func NewFood(baseURL string, timeout time.Duration, cache Cache) *Food {
	if baseURL == "" {
		baseURL = DefaultFoodURL
	}
	return &Food{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		cache:   cache,
	}
}

// offProduct is the part of an OpenFoodFacts product we read.
type offProduct struct {
	ProductName string `json:"product_name"`
	GenericName string `json:"generic_name"`
	Nutriments  struct {
		EnergyKcal100g nutriment `json:"energy-kcal_100g"`
		Energy100g     nutriment `json:"energy_100g"`
	} `json:"nutriments"`
}

// nutriment accepts both 89 and "89". OpenFoodFacts is not consistent.
// null, "" and non-numeric strings leave it unset, same as a missing key.
type nutriment struct {
	value float64
	set   bool
}

func (n *nutriment) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.value, n.set = v, true
	return nil
}

// Lookup returns the first product with usable energy data. ok=false on no
// match or any failure.
func (f *Food) Lookup(ctx context.Context, query string) (tracker.FoodItem, bool) {
	query = strings.TrimSpace(query)
	key := CacheKey("food", query)

	var item tracker.FoodItem
	if f.cache != nil && f.cache.Get(ctx, key, &item) {
		return item, true
	}

	item, found, err := f.search(ctx, query)
	if err != nil {
		log.Printf("[food] %q: %v", query, err)
		return tracker.FoodItem{}, false
	}
	if !found {
		return tracker.FoodItem{}, false
	}
	if f.cache != nil {
		f.cache.Set(ctx, key, item, foodCacheTTL)
	}
	return item, true
}

func (f *Food) search(ctx context.Context, query string) (tracker.FoodItem, bool, error) {
	params := url.Values{
		"search_terms":  {query},
		"search_simple": {"1"},
		"action":        {"process"},
		"json":          {"1"},
		"page_size":     {"10"},
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/cgi/search.pl?"+params.Encode(), nil)
	if err != nil {
		return tracker.FoodItem{}, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "BalanceTrackerBot/1.0")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return tracker.FoodItem{}, false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return tracker.FoodItem{}, false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return tracker.FoodItem{}, false, fmt.Errorf("openfoodfacts returned status %d", resp.StatusCode)
	}

	var result struct {
		Products []offProduct `json:"products"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return tracker.FoodItem{}, false, fmt.Errorf("unmarshal response: %w", err)
	}

	item, ok := pickProduct(result.Products, query)
	return item, ok, nil
}

// pickProduct prefers a direct kcal/100g value and falls back to kJ/100g.
func pickProduct(products []offProduct, query string) (tracker.FoodItem, bool) {
	for _, p := range products {
		name := p.ProductName
		if name == "" {
			name = p.GenericName
		}
		if name == "" {
			name = query
		}

		if kcal := p.Nutriments.EnergyKcal100g; kcal.set {
			return tracker.FoodItem{Name: name, KcalPer100G: kcal.value}, true
		}
		if kj := p.Nutriments.Energy100g; kj.set {
			return tracker.FoodItem{Name: name, KcalPer100G: kj.value / kJPerKcal}, true
		}
	}
	return tracker.FoodItem{}, false
}
