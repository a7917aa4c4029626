// Package builder stages submitted control code and runs the external build
// tool that turns it into a sandboxable executable.
package builder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/config"
	"github.com/san-kum/osvsim/internal/osv"
)

const idPlaceholder = "{{id}}"

const entryPoint = "\n\nint main() {\n\tsetup();\n\twhile(1) {\n\t\tloop();\n\t}\n}\n"

var (
	idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	// A return type (optionally a pointer or array), a name, then a
	// parenthesised parameter list. Closing parens are tagged with '#' in
	// the scanned text so the list stops at the first one.
	declPattern = regexp.MustCompile(`[0-9A-Za-z_\[*]+\]?\s+[0-9A-Za-z_]+\s*\([^#]*\)`)
)

// ValidID reports whether id is safe to use as a directory and binary name.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// ExtractDeclarations returns the top-level function signatures in source.
// It is a textual scan, not a parser: signatures with nested parentheses or
// macros may come out wrong.
func ExtractDeclarations(source string) []string {
	var top strings.Builder
	depth := 0
	for _, c := range source {
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		default:
			if depth != 0 {
				continue
			}
			if c == '\n' || c == '\r' {
				c = ' '
			}
			top.WriteRune(c)
			if c == ')' {
				top.WriteByte('#')
			}
		}
	}
	return declPattern.FindAllString(top.String(), -1)
}

// Header renders decls as a guarded prototypes header.
func Header(decls []string) string {
	var b strings.Builder
	b.WriteString("#ifndef PROTOTYPES_H\n#define PROTOTYPES_H\n\n")
	for _, d := range decls {
		b.WriteString(d)
		b.WriteString(";\n")
	}
	b.WriteString("\n#endif")
	return b.String()
}

type Builder struct {
	envDir  string
	depsDir string
	command string
	log     zerolog.Logger
}

func New(cfg config.BuilderConfig, log zerolog.Logger) *Builder {
	command := cfg.Command
	if command == "" {
		command = config.DefaultBuildCommand
	}
	return &Builder{
		envDir:  cfg.EnvironmentsDir,
		depsDir: cfg.DependenciesDir,
		command: command,
		log:     log,
	}
}

// Dir is where the sources and executable for id are staged.
func (b *Builder) Dir(id string) string {
	return filepath.Join(b.envDir, id)
}

// Build stages source under Dir(id), runs the build command from the
// dependencies directory and returns the executable path. A failing build
// returns *osv.BuildError with the tool's combined output.
func (b *Builder) Build(ctx context.Context, id, source string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("%w: invalid program id %q", osv.ErrSetup, id)
	}

	dir := b.Dir(id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &osv.BuildError{ProgramID: id, Wrapped: err}
	}

	src := filepath.Join(dir, id+".cpp")
	if err := os.WriteFile(src, []byte(source+entryPoint), 0644); err != nil {
		return "", &osv.BuildError{ProgramID: id, Wrapped: err}
	}
	hdr := filepath.Join(dir, id+".h")
	if err := os.WriteFile(hdr, []byte(Header(ExtractDeclarations(source))), 0644); err != nil {
		return "", &osv.BuildError{ProgramID: id, Wrapped: err}
	}

	command := strings.ReplaceAll(b.command, idPlaceholder, id)
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = b.depsDir

	b.log.Info().Str("id", id).Str("command", command).Msg("building program")
	out, err := cmd.CombinedOutput()
	if err != nil {
		b.log.Debug().Str("id", id).Bytes("output", out).Msg("build failed")
		return "", &osv.BuildError{ProgramID: id, Output: string(out), Wrapped: err}
	}

	return filepath.Join(dir, id), nil
}
