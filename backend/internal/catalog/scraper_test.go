package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPage = `
<html><body>
<div class="product_name"><a href="/product/rolling-pin" gaeepd="{&quot;price&quot;:&quot;120&quot;}">ไม้นวดแป้งไม้สัก</a></div>
<div class="product_name"><a href="/product/flour" gaeepd="{&quot;price&quot;:&quot;85 - 240&quot;}">แป้งเค้กตราบัวแดง</a></div>
<div class="product_name"><a href="/product/box">กล่องเค้ก 1 ปอนด์</a></div>
<div class="product_name"><a href="/product/a" gaeepd="{&quot;price&quot;:&quot;1,250&quot;}">เตาอบ A</a></div>
<div class="product_name"><a href="/product/b" gaeepd="{&quot;price&quot;:&quot;300&quot;}">พิมพ์เค้ก B</a></div>
<div class="product_name"><a href="/product/c" gaeepd="{&quot;price&quot;:&quot;10&quot;}">ช้อนตวง C</a></div>
</body></html>`

func TestScraper_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "เค้ก", r.URL.Query().Get("q"))
		fmt.Fprint(w, searchPage)
	}))
	defer srv.Close()

	scraper := NewScraper(srv.URL, 5*time.Second)
	listings, err := scraper.Search(context.Background(), "เค้ก")
	require.NoError(t, err)

	// Capped at five results even though the page has six cards
	require.Len(t, listings, 5)

	assert.Equal(t, "ไม้นวดแป้งไม้สัก", listings[0].Title)
	assert.Equal(t, srv.URL+"/product/rolling-pin", listings[0].Link)
	assert.Equal(t, "120 บาท", listings[0].Price)
	assert.True(t, listings[0].HasPrice)
	assert.Equal(t, 120.0, listings[0].PriceValue)

	// Range prices resolve to the low end
	assert.Equal(t, 85.0, listings[1].PriceValue)

	// Card without gaeepd metadata has no usable price
	assert.False(t, listings[2].HasPrice)
	assert.Equal(t, "Price not available", listings[2].Price)

	// Thousands separator
	assert.Equal(t, 1250.0, listings[3].PriceValue)
}

func TestScraper_Search_EmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>no results</p></body></html>")
	}))
	defer srv.Close()

	scraper := NewScraper(srv.URL, 5*time.Second)
	listings, err := scraper.Search(context.Background(), "ไม่มี")
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestScraper_Search_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	scraper := NewScraper(srv.URL, 5*time.Second)
	_, err := scraper.Search(context.Background(), "เค้ก")
	assert.Error(t, err)
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"plain", "250", 250, false},
		{"currency suffix", "250 บาท", 250, false},
		{"currency symbol", "฿99", 99, false},
		{"thousands separator", "1,250", 1250, false},
		{"range takes minimum", "85 - 240", 85, false},
		{"not a price", "Price not available", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanPrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
