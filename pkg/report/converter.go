package report

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Direction selects a script conversion.
type Direction string

const (
	ToSimplified  Direction = "t2s"
	ToTraditional Direction = "s2t"
)

// ParseDirection accepts "t2s"/"s2t" and the longer "simplified"/"traditional".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t2s", "simplified":
		return ToSimplified, nil
	case "s2t", "traditional":
		return ToTraditional, nil
	default:
		return "", fmt.Errorf("unknown conversion direction %q (want t2s or s2t)", s)
	}
}

// Converter is the external traditional/simplified text service.
type Converter interface {
	Convert(ctx context.Context, text string, dir Direction) (string, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, text string, dir Direction) (string, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ctx context.Context, text string, dir Direction) (string, error) {
	return f(ctx, text, dir)
}

// CommandConverter pipes text through an external command such as OpenCC.
// Every "{direction}" in Args is replaced by the direction value.
type CommandConverter struct {
	Command string
	Args    []string
}

// Convert runs the command with text on stdin and returns its stdout.
func (c CommandConverter) Convert(ctx context.Context, text string, dir Direction) (string, error) {
	if c.Command == "" {
		return "", fmt.Errorf("no converter command configured")
	}
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = strings.ReplaceAll(a, "{direction}", string(dir))
	}

	cmd := exec.CommandContext(ctx, c.Command, args...)
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s: %w: %s", c.Command, err, msg)
		}
		return "", fmt.Errorf("%s: %w", c.Command, err)
	}
	return strings.TrimRight(stdout.String(), "\n"), nil
}
