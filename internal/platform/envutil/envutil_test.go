package envutil

import (
	"testing"
	"time"
)

func TestParsers(t *testing.T) {
	t.Setenv("SHOP_INT", "42")
	t.Setenv("SHOP_BAD_INT", "forty")
	t.Setenv("SHOP_BOOL", "on")
	t.Setenv("SHOP_SECS", "90")
	t.Setenv("SHOP_LIST", " a, ,b ,c")

	if got := Int("SHOP_INT", 1); got != 42 {
		t.Fatalf("Int=%d", got)
	}
	if got := Int("SHOP_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback=%d", got)
	}
	if got := Int64("SHOP_INT", 0); got != 42 {
		t.Fatalf("Int64=%d", got)
	}
	if !Bool("SHOP_BOOL", false) {
		t.Fatal("Bool should be true")
	}
	if Bool("SHOP_MISSING", false) {
		t.Fatal("missing Bool should use default")
	}
	if got := Seconds("SHOP_SECS", time.Second); got != 90*time.Second {
		t.Fatalf("Seconds=%s", got)
	}
	if got := Minutes("SHOP_MISSING", 3*time.Minute); got != 3*time.Minute {
		t.Fatalf("Minutes=%s", got)
	}
	if got := List("SHOP_LIST", nil); len(got) != 3 || got[2] != "c" {
		t.Fatalf("List=%v", got)
	}
	if got := String("SHOP_MISSING", "dflt", nil); got != "dflt" {
		t.Fatalf("String=%q", got)
	}
}
