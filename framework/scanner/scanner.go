// Package scanner discovers component type names by walking a package
// directory tree.
//
// A package is a dotted identifier ("com.example.app"); dots map to path
// separators inside the scanned fs.FS. Every unit file found below it
// (by default "*.class") yields the fully-qualified dotted name
// "com.example.app.sub.UnitName".
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"go.uber.org/multierr"

	"github.com/km-arc/go-spring/framework/log"
)

// DefaultExtension marks compiled-unit files.
const DefaultExtension = ".class"

// ScanError reports a package directory that does not exist or cannot be listed.
type ScanError struct {
	Package string
	Dir     string
	Err     error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanner: package %q (%s): %v", e.Package, e.Dir, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Scanner walks an fs.FS rooted at the classpath.
type Scanner struct {
	fsys      fs.FS
	extension string
	strict    bool
	logger    log.Logger

	// subtrees skipped by the last Scan
	warnings error
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithExtension sets the unit-file extension (".class" by default).
func WithExtension(ext string) Option {
	return func(s *Scanner) {
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.extension = ext
	}
}

// WithStrict makes an unlistable nested directory abort the whole scan.
// By default the subtree is skipped with a warning.
func WithStrict(strict bool) Option {
	return func(s *Scanner) { s.strict = strict }
}

// WithLogger sets the logger used for skipped subtrees.
func WithLogger(l log.Logger) Option {
	return func(s *Scanner) { s.logger = l }
}

// New creates a Scanner over fsys.
func New(fsys fs.FS, opts ...Option) *Scanner {
	s := &Scanner{
		fsys:      fsys,
		extension: DefaultExtension,
		logger:    log.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns the fully-qualified names of every unit file under pkg.
// Entries are visited in fs.ReadDir order, so the result is deterministic.
//
//	names, err := scanner.New(os.DirFS("classes")).Scan("com.example.app")
func (s *Scanner) Scan(pkg string) ([]string, error) {
	pkg = strings.Trim(strings.TrimSpace(pkg), ".")
	dir := packageDir(pkg)
	s.warnings = nil

	info, err := fs.Stat(s.fsys, dir)
	if err != nil {
		return nil, &ScanError{Package: pkg, Dir: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Package: pkg, Dir: dir, Err: errors.New("not a directory")}
	}

	var names []string
	if err := s.walk(pkg, dir, &names, true); err != nil {
		return nil, err
	}
	s.logger.Debugf("[scanner]package %q: %d unit(s)", pkg, len(names))
	return names, nil
}

func (s *Scanner) walk(pkg, dir string, names *[]string, root bool) error {
	entries, err := fs.ReadDir(s.fsys, dir)
	if err != nil {
		scanErr := &ScanError{Package: pkg, Dir: dir, Err: err}
		if root || s.strict {
			return scanErr
		}
		s.logger.Warnf("[scanner]skip subtree: %v", scanErr)
		s.warnings = multierr.Append(s.warnings, scanErr)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			if err := s.walk(qualify(pkg, name), path.Join(dir, name), names, false); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() || !strings.HasSuffix(name, s.extension) {
			continue
		}
		unit := strings.TrimSuffix(name, s.extension)
		if unit == "" {
			continue
		}
		*names = append(*names, qualify(pkg, unit))
	}
	return nil
}

// Warnings returns the subtrees the last Scan skipped, combined with
// multierr. Nil when nothing was skipped.
func (s *Scanner) Warnings() error { return s.warnings }

func packageDir(pkg string) string {
	if pkg == "" {
		return "."
	}
	return strings.ReplaceAll(pkg, ".", "/")
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
