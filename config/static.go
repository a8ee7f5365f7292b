package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/codearena/judgecore/types"
)

// ServerConfig is the bind address/port section of the static
// configuration file.
type ServerConfig struct {
	BindAddress string `json:"bind_address"`
	BindPort    int    `json:"bind_port"`
}

// Static is the JSON document passed via --config: the server bind
// address and the full, read-only-after-boot problem and language
// tables.
type Static struct {
	Server    ServerConfig     `json:"server"`
	Problems  []types.Problem  `json:"problems"`
	Languages []types.Language `json:"languages"`
}

// LoadStatic reads and validates the --config JSON document.
func LoadStatic(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Static{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var s Static
	if err := json.Unmarshal(data, &s); err != nil {
		return Static{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := s.validate(); err != nil {
		return Static{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return s, nil
}

func (s Static) validate() error {
	if s.Server.BindPort <= 0 {
		return fmt.Errorf("server.bind_port must be positive")
	}

	seenProblems := make(map[uint32]struct{}, len(s.Problems))
	for _, p := range s.Problems {
		if _, dup := seenProblems[p.ID]; dup {
			return fmt.Errorf("duplicate problem id %d", p.ID)
		}
		seenProblems[p.ID] = struct{}{}
		switch p.Kind {
		case types.KindStandard, types.KindStrict:
		default:
			return fmt.Errorf("problem %d: unknown kind %q", p.ID, p.Kind)
		}
	}

	seenLanguages := make(map[string]struct{}, len(s.Languages))
	for _, l := range s.Languages {
		if _, dup := seenLanguages[l.Name]; dup {
			return fmt.Errorf("duplicate language %q", l.Name)
		}
		seenLanguages[l.Name] = struct{}{}
		if countPlaceholder(l.CompileArgv, types.PlaceholderInput) != 1 ||
			countPlaceholder(l.CompileArgv, types.PlaceholderOutput) != 1 {
			return fmt.Errorf("language %q: compile_argv must contain %s and %s exactly once each",
				l.Name, types.PlaceholderInput, types.PlaceholderOutput)
		}
	}

	return nil
}

func countPlaceholder(argv []string, placeholder string) int {
	count := 0
	for _, arg := range argv {
		if arg == placeholder {
			count++
		}
	}
	return count
}

// ProblemByID returns the problem with the given id.
func (s Static) ProblemByID(id uint32) (types.Problem, bool) {
	for _, p := range s.Problems {
		if p.ID == id {
			return p, true
		}
	}
	return types.Problem{}, false
}

// LanguageByName returns the language with the given name.
func (s Static) LanguageByName(name string) (types.Language, bool) {
	for _, l := range s.Languages {
		if l.Name == name {
			return l, true
		}
	}
	return types.Language{}, false
}

// ProblemIDs returns every static problem id, in configuration order.
func (s Static) ProblemIDs() []uint32 {
	ids := make([]uint32, len(s.Problems))
	for i, p := range s.Problems {
		ids[i] = p.ID
	}
	return ids
}
