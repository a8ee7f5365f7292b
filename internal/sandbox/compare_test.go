package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codearena/judgecore/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestCompareStrictExactMatch(t *testing.T) {
	a := writeTemp(t, "answer.txt", "42\n")
	b := writeTemp(t, "actual.txt", "42\n")

	result, err := Compare(a, b, types.KindStrict)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected identical byte content to be accepted, got %+v", result)
	}
}

func TestCompareStrictTrailingWhitespaceRejected(t *testing.T) {
	a := writeTemp(t, "answer.txt", "42\n")
	b := writeTemp(t, "actual.txt", "42 \n")

	result, err := Compare(a, b, types.KindStrict)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.Accepted {
		t.Fatal("strict comparison must not tolerate trailing whitespace")
	}
}

func TestCompareStandardIgnoresTrailingWhitespaceAndBlankLines(t *testing.T) {
	a := writeTemp(t, "answer.txt", "1 2 3\nhello\n")
	b := writeTemp(t, "actual.txt", "1 2 3   \nhello\n\n\n")

	result, err := Compare(a, b, types.KindStandard)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected trailing whitespace/blank lines to be normalized away, got %+v", result)
	}
}

func TestCompareStandardReportsFirstDifferingLine(t *testing.T) {
	a := writeTemp(t, "answer.txt", "one\ntwo\nthree\n")
	b := writeTemp(t, "actual.txt", "one\nTWO\nthree\n")

	result, err := Compare(a, b, types.KindStandard)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected mismatch to be rejected")
	}
	if result.Info != "first difference at line 2" {
		t.Fatalf("Info = %q, want a reference to line 2", result.Info)
	}
}

func TestCompareStandardDifferentLineCounts(t *testing.T) {
	a := writeTemp(t, "answer.txt", "one\ntwo\n")
	b := writeTemp(t, "actual.txt", "one\n")

	result, err := Compare(a, b, types.KindStandard)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if result.Accepted {
		t.Fatal("expected a shorter output to be rejected")
	}
}

func TestCompareMissingFile(t *testing.T) {
	a := writeTemp(t, "answer.txt", "1\n")
	_, err := Compare(a, filepath.Join(t.TempDir(), "missing.txt"), types.KindStandard)
	if err == nil {
		t.Fatal("expected an error when the actual output file is missing")
	}
}
