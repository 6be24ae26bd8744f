package monitor

import (
	"context"
	"sync"
	"time"

	"dex-pair-monitor/internal/dexscreener"
	"dex-pair-monitor/internal/domain"
)

var testNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func testConfig() domain.Config {
	return domain.Config{
		Endpoint:       "https://example.test/latest/dex/search?q=new",
		Thresholds:     domain.Thresholds{MinLiquidityUSD: 2000, MaxAgeMinutes: 5},
		RefreshSeconds: 10,
	}
}

func ptr[T any](v T) *T {
	return &v
}

// rawPair builds a complete upstream record aged ageMin minutes at testNow.
func rawPair(base, quote string, liquidity, ageMin float64) dexscreener.RawPair {
	created := testNow.Add(-time.Duration(ageMin * float64(time.Minute))).UnixMilli()
	return dexscreener.RawPair{
		ChainID:       "solana",
		DexID:         "raydium",
		PairAddress:   "pair-" + base + "-" + quote,
		BaseToken:     &dexscreener.RawToken{Address: "mint-" + base, Symbol: base},
		QuoteToken:    &dexscreener.RawToken{Address: "mint-" + quote, Symbol: quote},
		PriceUSD:      "1.5",
		Liquidity:     &dexscreener.RawLiquidity{USD: ptr(liquidity)},
		Volume:        &dexscreener.RawVolume{H24: ptr(100.0)},
		PairCreatedAt: ptr(created),
		Security: &dexscreener.RawSecurity{
			Verified:        ptr(true),
			LiquidityLocked: ptr(true),
		},
	}
}

type setBlacklist map[string]bool

func (s setBlacklist) ContainsToken(address string) bool {
	return s[address]
}

// fakeSource returns scripted results; the last one repeats.
type fakeSource struct {
	mu      sync.Mutex
	results []FetchResult
	calls   int
	release chan struct{} // when non-nil, each fetch waits for a value
	started chan struct{} // when non-nil, signalled as each fetch begins
}

func (f *fakeSource) FetchPairs(ctx context.Context, _ string) ([]dexscreener.RawPair, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	var res FetchResult
	if len(f.results) > 0 {
		if i >= len(f.results) {
			i = len(f.results) - 1
		}
		res = f.results[i]
	}
	release, started := f.release, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return res.Records, res.Err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeTimer records requested pacing waits. With fire set, every wait
// elapses immediately; otherwise waits elapse only through Fire.
type fakeTimer struct {
	mu    sync.Mutex
	fire  bool
	waits []time.Duration
	chans []chan time.Time
}

func (f *fakeTimer) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, d)
	ch := make(chan time.Time, 1)
	if f.fire {
		ch <- testNow.Add(d)
	}
	f.chans = append(f.chans, ch)
	return ch
}

func (f *fakeTimer) Waits() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

// Fire elapses the most recent wait.
func (f *fakeTimer) Fire() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n := len(f.chans); n > 0 {
		f.chans[n-1] <- testNow
	}
}

func (f *fakeTimer) Total() time.Duration {
	var total time.Duration
	for _, w := range f.Waits() {
		total += w
	}
	return total
}
