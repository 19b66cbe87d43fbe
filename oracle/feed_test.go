package oracle

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestManualFeedSetAndGet(t *testing.T) {
	feed := NewManualFeed()
	now := time.Now()
	feed.Set(" eth ", big.NewInt(2000_00000000), now)

	quote, err := feed.LatestPrice("ETH")
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if quote.Price.Cmp(big.NewInt(2000_00000000)) != 0 {
		t.Fatalf("unexpected price %s", quote.Price)
	}
	if quote.Decimals != FeedDecimals {
		t.Fatalf("unexpected decimals %d", quote.Decimals)
	}
	if !quote.Timestamp.Equal(now) {
		t.Fatalf("unexpected timestamp %s", quote.Timestamp)
	}
}

func TestManualFeedSetDecimal(t *testing.T) {
	feed := NewManualFeed()
	if err := feed.SetDecimal("BTC", "63950.25", time.Now()); err != nil {
		t.Fatalf("set decimal: %v", err)
	}
	quote, err := feed.LatestPrice("btc")
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	want := big.NewInt(63950_25000000)
	if quote.Price.Cmp(want) != 0 {
		t.Fatalf("price = %s, want %s", quote.Price, want)
	}

	if err := feed.SetDecimal("BTC", "not-a-number", time.Now()); err == nil {
		t.Fatal("expected error for malformed price")
	}
	if err := feed.SetDecimal("BTC", "", time.Now()); err == nil {
		t.Fatal("expected error for empty price")
	}
}

func TestManualFeedUnknownAsset(t *testing.T) {
	feed := NewManualFeed()
	if _, err := feed.LatestPrice("DOGE"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestManualFeedQuoteIsolation(t *testing.T) {
	feed := NewManualFeed()
	feed.Set("ETH", big.NewInt(100), time.Now())

	quote, err := feed.LatestPrice("ETH")
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	quote.Price.SetInt64(999)

	again, err := feed.LatestPrice("ETH")
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if again.Price.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("stored quote mutated: %s", again.Price)
	}
}

func TestStaticFeed(t *testing.T) {
	feed := StaticFeed{"ETH": big.NewInt(2000_00000000)}
	quote, err := feed.LatestPrice("eth")
	if err != nil {
		t.Fatalf("latest price: %v", err)
	}
	if quote.Price.Cmp(big.NewInt(2000_00000000)) != 0 {
		t.Fatalf("unexpected price %s", quote.Price)
	}
	if _, err := feed.LatestPrice("BTC"); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}
