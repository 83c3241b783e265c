package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("X_RENDER_TIMEOUT", "45s")
	if got := Duration("X_RENDER_TIMEOUT", time.Second); got != 45*time.Second {
		t.Fatalf("Duration: want=%v got=%v", 45*time.Second, got)
	}
	t.Setenv("X_RENDER_TIMEOUT", "12")
	if got := Duration("X_RENDER_TIMEOUT", time.Second); got != 12*time.Second {
		t.Fatalf("Duration bare int: want=%v got=%v", 12*time.Second, got)
	}
	t.Setenv("X_RENDER_TIMEOUT", "nope")
	if got := Duration("X_RENDER_TIMEOUT", time.Second); got != time.Second {
		t.Fatalf("Duration fallback: want=%v got=%v", time.Second, got)
	}
}

func TestBoolAndInt(t *testing.T) {
	t.Setenv("X_FLAG", "off")
	if Bool("X_FLAG", true) {
		t.Fatalf("Bool: want=false")
	}
	t.Setenv("X_FLAG", "")
	if !Bool("X_FLAG", true) {
		t.Fatalf("Bool default: want=true")
	}
	t.Setenv("X_N", "abc")
	if got := Int("X_N", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
}
