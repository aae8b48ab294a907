package folio

import (
	"testing"
	"time"
)

func TestLimiterAllowsUnderMax(t *testing.T) {
	l := NewLoginLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Check("1.2.3.4") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
		l.Record("1.2.3.4")
	}
	if l.Check("1.2.3.4") {
		t.Error("fourth attempt should be blocked")
	}
}

func TestLimiterPerIP(t *testing.T) {
	l := NewLoginLimiter(1, time.Minute)

	l.Record("1.1.1.1")
	if l.Check("1.1.1.1") {
		t.Error("1.1.1.1 should be blocked")
	}
	if !l.Check("2.2.2.2") {
		t.Error("a different IP must not be affected")
	}
}

func TestLimiterSuccessDoesNotCount(t *testing.T) {
	l := NewLoginLimiter(2, time.Minute)

	// Check alone never consumes the budget.
	for i := 0; i < 10; i++ {
		if !l.Check("3.3.3.3") {
			t.Fatal("Check without Record must not consume attempts")
		}
	}
}

func TestLimiterWindowExpiry(t *testing.T) {
	l := NewLoginLimiter(1, 10*time.Millisecond)

	l.Record("4.4.4.4")
	if l.Check("4.4.4.4") {
		t.Fatal("should be blocked right after the attempt")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Check("4.4.4.4") {
		t.Error("attempts outside the window must be forgotten")
	}
}
