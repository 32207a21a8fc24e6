package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// isInteractiveInput reports whether stdin is connected to a terminal.
func isInteractiveInput() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// lineAnswerer renders prompts to out and takes one line of in per answer.
// In script mode answers are echoed and lines starting with '#' are ignored.
type lineAnswerer struct {
	out    io.Writer
	lines  <-chan string
	script bool

	questionColor *color.Color
	choiceColor   *color.Color
	hintColor     *color.Color
	problemColor  *color.Color
	infoColor     *color.Color
}

// readLines feeds lines of in into channel until EOF.
// Reading happens in a goroutine so Answer may return on cancellation.
func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func newLineAnswerer(in io.Reader, out io.Writer, script bool) *lineAnswerer {
	return &lineAnswerer{
		out:           out,
		lines:         readLines(in),
		script:        script,
		questionColor: color.New(color.Bold),
		choiceColor:   color.New(color.FgCyan),
		hintColor:     color.New(color.Faint),
		problemColor:  color.New(color.FgRed),
		infoColor:     color.New(color.FgGreen),
	}
}

// newTerminalAnswerer asks the operator on the terminal.
func newTerminalAnswerer(out io.Writer) *lineAnswerer {
	return newLineAnswerer(os.Stdin, out, false)
}

// newScriptAnswerer replays answers from a file, one per line.
func newScriptAnswerer(path string, out io.Writer) (*lineAnswerer, io.Closer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("can't open answers file: %w", err)
	}
	return newLineAnswerer(file, out, true), file, nil
}

func (a *lineAnswerer) render(prompt Prompt) {
	if prompt.Problem != "" {
		a.problemColor.Fprintf(a.out, "! %s\n", prompt.Problem)
	}
	a.questionColor.Fprintln(a.out, prompt.Question)
	for i, choice := range prompt.Choices {
		a.choiceColor.Fprintf(a.out, "  %d. %s\n", i+1, choice)
	}
	if prompt.Hint != "" {
		a.hintColor.Fprintln(a.out, prompt.Hint)
	}
	if prompt.Default != "" {
		fmt.Fprintf(a.out, "[%s] ", prompt.Default)
	}
	fmt.Fprint(a.out, "> ")
}

func (a *lineAnswerer) Answer(ctx context.Context, prompt Prompt) (string, error) {
	a.render(prompt)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return "", errInterrupted
		case line, ok := <-a.lines:
			if !ok {
				fmt.Fprintln(a.out)
				return "", errInterrupted
			}
			if a.script && strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue
			}
			if a.script {
				fmt.Fprintln(a.out, line)
			}
			answer := strings.TrimSpace(line)
			if answer == "" {
				answer = prompt.Default
			}
			return answer, nil
		}
	}
}

func (a *lineAnswerer) Inform(message string) {
	a.infoColor.Fprintln(a.out, message)
}
