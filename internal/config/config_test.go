package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSetDefaultsUnmarshal(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		t.Fatalf("unmarshal defaults failed: %v", err)
	}
	if cfg.Schedule.ExpirationCron != "0 8 * * *" || cfg.Schedule.CleanupCron != "0 23 * * *" {
		t.Fatalf("unexpected cron defaults: %+v", cfg.Schedule)
	}
	if cfg.Listing.DefaultPageSize != 25 || cfg.Listing.MaxPageSize != 100 {
		t.Fatalf("unexpected listing defaults: %+v", cfg.Listing)
	}
	if cfg.Schedule.CleanupRetention() != 24*time.Hour {
		t.Fatalf("unexpected retention: %v", cfg.Schedule.CleanupRetention())
	}
	if len(cfg.Stripe.PaymentMethodTypes) != 1 || cfg.Stripe.PaymentMethodTypes[0] != "card" {
		t.Fatalf("unexpected stripe payment methods: %v", cfg.Stripe.PaymentMethodTypes)
	}
	if cfg.Media.Configured() {
		t.Fatalf("media should not be configured without credentials")
	}
}

func TestScheduleLocation(t *testing.T) {
	loc := ScheduleConfig{Timezone: "Europe/Bucharest"}.Location()
	if loc.String() != "Europe/Bucharest" {
		t.Fatalf("want Europe/Bucharest got %s", loc.String())
	}
	if got := (ScheduleConfig{Timezone: "Mars/Olympus"}).Location(); got != time.UTC {
		t.Fatalf("invalid timezone should fall back to UTC, got %s", got.String())
	}
	if got := (ScheduleConfig{}).Location(); got != time.UTC {
		t.Fatalf("empty timezone should be UTC, got %s", got.String())
	}
}
