package repository

import (
	"strings"
	"testing"
)

func TestBuildLikeConditionByDialectSQLite(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", []string{"announcements.title", " ", "announcements.street"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	want := "announcements.title LIKE ? OR announcements.street LIKE ?"
	if condition != want {
		t.Fatalf("condition mismatch, want %s got %s", want, condition)
	}
}

func TestBuildLikeConditionByDialectPostgres(t *testing.T) {
	condition, _ := buildLikeConditionByDialect("postgres", []string{"title"})
	if condition != "title ILIKE ?" {
		t.Fatalf("postgres should use ILIKE, got %s", condition)
	}
}

func TestNullsLastOrder(t *testing.T) {
	got := nullsLastOrder("lp.latest_promotion_at")
	if !strings.HasPrefix(got, "CASE WHEN lp.latest_promotion_at IS NULL THEN 1 ELSE 0 END ASC") {
		t.Fatalf("unexpected nulls last prefix: %s", got)
	}
	if !strings.HasSuffix(got, "lp.latest_promotion_at DESC") {
		t.Fatalf("unexpected nulls last suffix: %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%cluj%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%cluj%" {
			t.Fatalf("args[%d] want %%cluj%% got %v", idx, arg)
		}
	}
}

func TestPageWindow(t *testing.T) {
	start, end := PageWindow(10, 2, 4)
	if start != 4 || end != 8 {
		t.Fatalf("page 2 window want 4..8 got %d..%d", start, end)
	}
	start, end = PageWindow(10, 5, 4)
	if start != 10 || end != 10 {
		t.Fatalf("out of range window want 10..10 got %d..%d", start, end)
	}
	page, size := NormalizePagination(0, 500, 25, 100)
	if page != 1 || size != 100 {
		t.Fatalf("normalize want 1/100 got %d/%d", page, size)
	}
}
