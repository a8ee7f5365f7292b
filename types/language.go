package types

// PlaceholderInput and PlaceholderOutput are substituted inside a
// Language's CompileArgv with the absolute source path and the chosen
// executable path, respectively.
const (
	PlaceholderInput  = "%INPUT%"
	PlaceholderOutput = "%OUTPUT%"
)

// Language is a static, read-only-after-boot compiler/toolchain
// definition loaded from the configuration file.
type Language struct {
	// Name identifies the language in a Submission.
	Name string `json:"name"`

	// SourceFileName is the file name the source code is written to
	// before compilation (e.g. "main.cpp").
	SourceFileName string `json:"source_file_name"`

	// CompileArgv is the compiler invocation, argv-style. It must
	// contain PlaceholderInput and PlaceholderOutput exactly once each.
	CompileArgv []string `json:"compile_argv"`
}
