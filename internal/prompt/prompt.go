// Package prompt asks the user for the output name and the aspects file
// when the session is attached to a terminal.
package prompt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/starford/wormbox/internal/apperr"
)

// Interactive reports whether stdin and stdout are terminals.
func Interactive() bool {
	in, out := os.Stdin.Fd(), os.Stdout.Fd()
	return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
		(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
}

// Prompter asks questions through huh forms. A non-interactive Prompter
// answers every question with its default.
type Prompter struct {
	interactive bool
	run         func(ctx context.Context, f *huh.Form) error
}

// New creates a Prompter. It only prompts when enabled is set and the
// session is interactive.
func New(enabled bool) *Prompter {
	return &Prompter{
		interactive: enabled && Interactive(),
		run: func(ctx context.Context, f *huh.Form) error {
			return f.RunWithContext(ctx)
		},
	}
}

func (p *Prompter) ask(ctx context.Context, fields ...huh.Field) error {
	err := p.run(ctx, huh.NewForm(huh.NewGroup(fields...)))
	if errors.Is(err, huh.ErrUserAborted) {
		return apperr.ErrCanceled
	}
	return err
}

// OutputName asks for the report name, proposing def. An empty answer
// keeps def.
func (p *Prompter) OutputName(ctx context.Context, def string) (string, error) {
	if !p.interactive {
		return def, nil
	}
	name := def
	err := p.ask(ctx, huh.NewInput().
		Title("Name of the results file").
		Description(".csv is appended when missing").
		Placeholder(def).
		Value(&name))
	if err != nil {
		return "", err
	}
	if name = strings.TrimSpace(name); name == "" {
		return def, nil
	}
	return name, nil
}

// AspectsFile chooses the aspects file for folder. When def exists in the
// folder the user confirms it; otherwise a path is requested. An empty
// path cancels.
func (p *Prompter) AspectsFile(ctx context.Context, folder, def string) (string, error) {
	if !p.interactive {
		return def, nil
	}
	if def != "" && fileExists(filepath.Join(folder, def)) {
		use := true
		err := p.ask(ctx, huh.NewConfirm().
			Title("Use the aspects file "+def+" found in the folder?").
			Affirmative("Yes").
			Negative("No").
			Value(&use))
		if err != nil {
			return "", err
		}
		if use {
			return def, nil
		}
	}

	var path string
	err := p.ask(ctx, huh.NewInput().
		Title("Path of the aspects file").
		Value(&path).
		Validate(func(s string) error {
			if s = strings.TrimSpace(s); s != "" && !fileExists(resolve(folder, s)) {
				return errors.New("file not found")
			}
			return nil
		}))
	if err != nil {
		return "", err
	}
	if path = strings.TrimSpace(path); path == "" {
		return "", apperr.ErrCanceled
	}
	return path, nil
}

func resolve(folder, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(folder, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
