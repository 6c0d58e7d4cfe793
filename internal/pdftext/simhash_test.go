package pdftext_test

import (
	"testing"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/pdftext"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/similarity"
)

func TestShingles(t *testing.T) {
	t.Run("overlapping substrings with counts", func(t *testing.T) {
		t.Parallel()
		got := pdftext.Shingles("ababa", 3)
		want := map[string]int{"aba": 2, "bab": 1}
		if len(got) != len(want) {
			t.Fatalf("got %d shingles, want %d: %v", len(got), len(want), got)
		}
		for s, n := range want {
			if got[s] != n {
				t.Errorf("shingle %q count = %d, want %d", s, got[s], n)
			}
		}
	})

	t.Run("text shorter than k is one shingle", func(t *testing.T) {
		t.Parallel()
		got := pdftext.Shingles("ab", 5)
		if len(got) != 1 || got["ab"] != 1 {
			t.Errorf("got %v, want single shingle ab", got)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		t.Parallel()
		if got := pdftext.Shingles("", 5); len(got) != 0 {
			t.Errorf("got %v, want empty map", got)
		}
	})

	t.Run("multi-byte runes stay whole", func(t *testing.T) {
		t.Parallel()
		got := pdftext.Shingles("héllo", 2)
		for s := range got {
			if len([]rune(s)) != 2 {
				t.Errorf("shingle %q is %d runes, want 2", s, len([]rune(s)))
			}
		}
	})

	t.Run("non-positive k falls back to default", func(t *testing.T) {
		t.Parallel()
		got := pdftext.Shingles("abcdefgh", 0)
		for s := range got {
			if len(s) != pdftext.DefaultShingleSize {
				t.Errorf("shingle %q length = %d, want %d", s, len(s), pdftext.DefaultShingleSize)
			}
		}
	})
}

func TestSimHashText(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()
		const text = "The quick brown fox jumps over the lazy dog."
		a, okA := pdftext.SimHashText(text, 5)
		b, okB := pdftext.SimHashText(text, 5)
		if !okA || !okB {
			t.Fatal("expected text fingerprint")
		}
		if a != b {
			t.Errorf("same text hashed differently: %x vs %x", a, b)
		}
	})

	t.Run("no text reports not ok", func(t *testing.T) {
		t.Parallel()
		if _, ok := pdftext.SimHashText("   \n\t ", 5); ok {
			t.Error("whitespace-only text reported a fingerprint")
		}
	})

	t.Run("trivial edit stays close", func(t *testing.T) {
		t.Parallel()
		base := "Quarterly report for the finance department covering operational expenditures and revenue."
		edited := "Quarterly report for the finance department covering operational expenditure and revenue."
		a, _ := pdftext.SimHashText(base, 5)
		b, _ := pdftext.SimHashText(edited, 5)
		if dist := similarity.Hamming64(a, b); dist > 16 {
			t.Errorf("one-word edit moved simhash %d bits, want <= 16", dist)
		}
	})

	t.Run("unrelated texts land apart", func(t *testing.T) {
		t.Parallel()
		a, _ := pdftext.SimHashText("Annual shareholder meeting minutes and voting results.", 5)
		b, _ := pdftext.SimHashText("zqx wvu tsr qpo nml kji hgf edc ba 0123456789.", 5)
		if dist := similarity.Hamming64(a, b); dist < 8 {
			t.Errorf("unrelated texts only %d bits apart", dist)
		}
	})
}

func TestSimHashEmptyShingles(t *testing.T) {
	t.Parallel()
	if got := pdftext.SimHash(map[string]int{}); got != 0 {
		t.Errorf("SimHash of empty set = %x, want 0", got)
	}
}
