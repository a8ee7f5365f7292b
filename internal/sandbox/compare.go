package sandbox

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/codearena/judgecore/types"
)

// CompareResult is the outcome of compare().
type CompareResult struct {
	Accepted bool
	// Info identifies the first differing line number when useful;
	// empty on Accepted.
	Info string
}

// Compare implements the two output-comparison policies of spec
// §4.1: byte-exact for Strict, and trailing-whitespace/blank-line
// normalized for Standard.
func Compare(answerPath, actualPath string, kind types.ProblemKind) (CompareResult, error) {
	if kind == types.KindStrict {
		return compareStrict(answerPath, actualPath)
	}
	return compareStandard(answerPath, actualPath)
}

func compareStrict(answerPath, actualPath string) (CompareResult, error) {
	want, err := os.ReadFile(answerPath)
	if err != nil {
		return CompareResult{}, err
	}
	got, err := os.ReadFile(actualPath)
	if err != nil {
		return CompareResult{}, err
	}
	if string(want) == string(got) {
		return CompareResult{Accepted: true}, nil
	}
	return CompareResult{Accepted: false, Info: "output differs from the expected answer (strict)"}, nil
}

// compareStandard trims trailing whitespace on every line, then trims
// trailing blank lines, before comparing. Grounded on judge.rs's trim().
func compareStandard(answerPath, actualPath string) (CompareResult, error) {
	want, err := normalizedLines(answerPath)
	if err != nil {
		return CompareResult{}, err
	}
	got, err := normalizedLines(actualPath)
	if err != nil {
		return CompareResult{}, err
	}

	n := len(want)
	if len(got) < n {
		n = len(got)
	}
	for i := 0; i < n; i++ {
		if want[i] != got[i] {
			return CompareResult{Accepted: false, Info: fmt.Sprintf("first difference at line %d", i+1)}, nil
		}
	}
	if len(want) != len(got) {
		return CompareResult{Accepted: false, Info: fmt.Sprintf("expected %d lines, got %d", len(want), len(got))}, nil
	}
	return CompareResult{Accepted: true}, nil
}

func normalizedLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, nil
}
