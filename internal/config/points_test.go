package config

import (
	"testing"

	"github.com/pathik-bd/pathik-api/internal/model"
)

func TestDefaultPointTable(t *testing.T) {
	p := DefaultPointTable()
	want := map[model.Category]int{
		model.CategoryRestaurant:  10,
		model.CategoryHotel:       10,
		model.CategoryMarket:      10,
		model.CategoryTravelGuide: 15,
	}
	for c, w := range want {
		if got := p.Points(c); got != w {
			t.Fatalf("Points(%s) = %d, want %d", c, got, w)
		}
	}
	if p.Points(model.Category("metro")) != 0 {
		t.Fatal("unknown category awarded points")
	}
}

func TestLoadPointTableOverrides(t *testing.T) {
	t.Setenv("POINTS_RESTAURANT", "12")
	t.Setenv("POINTS_HOTEL", "0")
	t.Setenv("POINTS_MARKET", "abc")
	t.Setenv("POINTS_TRAVEL_GUIDE", "25")

	p := LoadPointTable()
	if p.Restaurant != 12 || p.Hotel != 10 || p.Market != 10 || p.TravelGuide != 25 {
		t.Fatalf("table = %+v", p)
	}
}

func TestExpected(t *testing.T) {
	p := DefaultPointTable()
	b := model.Breakdown{Restaurants: 2, Hotels: 1, TravelGuides: 1}
	if got := p.Expected(b); got != 45 {
		t.Fatalf("Expected = %d, want 45", got)
	}
}

func TestSchedulerAndLogDefaults(t *testing.T) {
	s := LoadSchedulerConfig()
	if !s.Enabled || s.Cron != "0 0 3 * * *" {
		t.Fatalf("scheduler = %+v", s)
	}
	t.Setenv("RECONCILE_ENABLED", "false")
	if LoadSchedulerConfig().Enabled {
		t.Fatal("RECONCILE_ENABLED=false ignored")
	}
	if l := LoadLogConfig(); l.Level != "info" || l.Format != "text" {
		t.Fatalf("log = %+v", l)
	}
}

func TestRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	rl := LoadRateLimitConfig()
	if rl.Capacity != 1 || rl.RefillTokens != 1 || rl.RefillInterval.Seconds() != 2 {
		t.Fatalf("rate limit = %+v", rl)
	}
	if rl.TTL < 5*rl.RefillInterval {
		t.Fatalf("ttl %v below minimum", rl.TTL)
	}
}

func TestCacheConfigDefaults(t *testing.T) {
	c := LoadCacheConfig()
	if !c.Enabled || !c.Methods["GET"] || c.Prefix != "pathik:cache" || !c.InvalidateOnWrite {
		t.Fatalf("cache = %+v", c)
	}
}
