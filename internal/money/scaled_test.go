package money

import "testing"

func TestMulFracExactDivision(t *testing.T) {
	// liability = stake(100) * (odds(200) - scale(100)) / scale(100) = 100
	stake := FromUint64(100)
	liability := stake.MulFrac(200-DefaultScale, DefaultScale)
	if liability.Uint64() != 100 {
		t.Fatalf("expected liability 100, got %s", liability)
	}
}

func TestMulFracTruncatesTowardZero(t *testing.T) {
	// 10 * 7 / 3 = 23.33... should truncate to 23.
	v := FromUint64(10).MulFrac(7, 3)
	if v.Uint64() != 23 {
		t.Fatalf("expected 23, got %s", v)
	}
}

func TestSubUnderflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on underflow")
		}
	}()
	FromUint64(1).Sub(FromUint64(2))
}

func TestMinAndCmp(t *testing.T) {
	a, b := FromUint64(5), FromUint64(9)
	if a.Min(b).Cmp(a) != 0 {
		t.Fatal("Min should return the smaller value")
	}
	if a.Cmp(b) >= 0 {
		t.Fatal("expected a < b")
	}
}
