// Package sandbox implements the Sandboxed Runner: compiling a
// submission, running its binary once per case under time/memory
// limits, and comparing output against the reference answer.
package sandbox

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/codearena/judgecore/types"
)

// CompileResult is the outcome of compile().
type CompileResult struct {
	// Ok is true iff the compiler exited 0 AND ExecPath exists.
	Ok       bool
	ExecPath string
	Stderr   string
}

// defaultCompileTimeout bounds a misbehaving compiler; spec does not
// define a compile-time limit, so this is a generous fixed ceiling.
const defaultCompileTimeout = 30 * time.Second

// Compile materializes sourceCode under language.SourceFileName
// inside a fresh temporary directory, substitutes the %INPUT%/%OUTPUT%
// placeholders in CompileArgv, and runs the compiler synchronously.
// The directory is released on every exit path via the returned
// cleanup func, which the caller must invoke once the executable is
// no longer needed (including across the subsequent per-case run()
// calls, since ExecPath lives inside it).
func Compile(ctx context.Context, language types.Language, sourceCode string) (CompileResult, func(), error) {
	dir, err := os.MkdirTemp("", "judgecore-compile-*")
	if err != nil {
		return CompileResult{}, func() {}, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	sourcePath := filepath.Join(dir, language.SourceFileName)
	if err := os.WriteFile(sourcePath, []byte(sourceCode), 0o644); err != nil {
		cleanup()
		return CompileResult{}, func() {}, err
	}

	execPath := filepath.Join(dir, "a.out")
	argv := substitutePlaceholders(language.CompileArgv, sourcePath, execPath)
	if len(argv) == 0 {
		cleanup()
		return CompileResult{Ok: false, Stderr: "empty compile_argv"}, func() {}, nil
	}

	compileCtx, cancel := context.WithTimeout(ctx, defaultCompileTimeout)
	defer cancel()

	cmd := exec.CommandContext(compileCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	var stderr strings.Builder
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	_, statErr := os.Stat(execPath)
	ok := runErr == nil && statErr == nil

	return CompileResult{
		Ok:       ok,
		ExecPath: execPath,
		Stderr:   stderr.String(),
	}, cleanup, nil
}

func substitutePlaceholders(argv []string, sourcePath, execPath string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		arg = strings.ReplaceAll(arg, types.PlaceholderInput, sourcePath)
		arg = strings.ReplaceAll(arg, types.PlaceholderOutput, execPath)
		out[i] = arg
	}
	return out
}
