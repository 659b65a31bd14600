package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cpleonardo/simple-market-maker/internal/domain"
)

func TestSnapshotBeforeFirstPublish(t *testing.T) {
	market := domain.MarketPair{Base: "BTC", Quote: "MXN"}
	book := NewBook(market)

	snap := book.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot returned nil")
	}
	if snap.Market != market {
		t.Fatalf("market = %s, want %s", snap.Market, market)
	}
	if len(snap.Asks) != 0 || len(snap.Bids) != 0 {
		t.Fatalf("empty book has levels: %d asks %d bids", len(snap.Asks), len(snap.Bids))
	}
}

func TestPublishReplacesSnapshot(t *testing.T) {
	market := domain.MarketPair{Base: "BTC", Quote: "MXN"}
	book := NewBook(market)

	first := &domain.OrderBookSnapshot{
		Market:    market,
		Asks:      []domain.PriceLevel{{Price: decimal.NewFromInt(101)}},
		Timestamp: time.Now(),
	}
	book.Publish(first)
	if book.Snapshot() != first {
		t.Fatal("Snapshot did not return the published pointer")
	}

	second := &domain.OrderBookSnapshot{
		Market:    market,
		Asks:      []domain.PriceLevel{{Price: decimal.NewFromInt(102)}},
		Timestamp: time.Now(),
	}
	book.Publish(second)
	if book.Snapshot() != second {
		t.Fatal("Snapshot did not return the latest publish")
	}
}

func TestConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	market := domain.MarketPair{Base: "BTC", Quote: "MXN"}
	book := NewBook(market)

	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			p := decimal.NewFromInt(int64(100 + i%10))
			book.Publish(&domain.OrderBookSnapshot{
				Market: market,
				Asks: []domain.PriceLevel{
					{Price: p, Amount: decimal.NewFromInt(1), Value: p},
				},
				Bids: []domain.PriceLevel{
					{Price: p, Amount: decimal.NewFromInt(1), Value: p},
				},
			})
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				snap := book.Snapshot()
				// A published snapshot always carries matched sides; a torn
				// read would mix levels from different publishes.
				if len(snap.Asks) != len(snap.Bids) {
					t.Error("torn snapshot: side lengths differ")
					return
				}
				if len(snap.Asks) == 1 && !snap.Asks[0].Price.Equal(snap.Bids[0].Price) {
					t.Error("torn snapshot: sides from different publishes")
					return
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	close(stop)
	wg.Wait()
}
