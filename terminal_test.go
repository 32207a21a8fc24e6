package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLineAnswerer_Answer(t *testing.T) {
	// Arrange
	var out bytes.Buffer
	answerer := newLineAnswerer(strings.NewReader("2\n\n  reason text \n"), &out, false)
	prompt := Prompt{
		Kind:     PromptPatternCategory,
		Question: "Choose category",
		Choices:  []string{"food", "groceries"},
		Default:  "food",
		Problem:  "unknown category",
	}

	// Act
	var answers []string
	for i := 0; i < 3; i++ {
		answer, err := answerer.Answer(context.Background(), prompt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		answers = append(answers, answer)
	}
	_, err := answerer.Answer(context.Background(), prompt)

	// Assert
	if diff := cmp.Diff([]string{"2", "food", "reason text"}, answers); diff != "" {
		t.Errorf("answers mismatch (-expected +got):\n%s", diff)
	}
	if !errors.Is(err, errInterrupted) {
		t.Errorf("expected errInterrupted at EOF, got %v", err)
	}
	for _, part := range []string{"Choose category", "1. food", "2. groceries", "[food] > ", "unknown category"} {
		if !strings.Contains(out.String(), part) {
			t.Errorf("expected output to contain %q, got %q", part, out.String())
		}
	}
}

func TestLineAnswerer_ScriptModeEchoesAndSkipsComments(t *testing.T) {
	var out bytes.Buffer
	answerer := newLineAnswerer(strings.NewReader("# first file\nfood\n"), &out, true)

	answer, err := answerer.Answer(context.Background(), Prompt{Question: "Category?"})

	if err != nil || answer != "food" {
		t.Fatalf("expected 'food', got '%s' %v", answer, err)
	}
	if !strings.Contains(out.String(), "> food\n") || strings.Contains(out.String(), "first file") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestLineAnswerer_CancelledWhileWaiting(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	answerer := newLineAnswerer(reader, io.Discard, false)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := answerer.Answer(ctx, Prompt{Question: "Reason?"})

	if !errors.Is(err, errInterrupted) {
		t.Errorf("expected errInterrupted, got %v", err)
	}
}

func TestLineAnswerer_Inform(t *testing.T) {
	var out bytes.Buffer
	answerer := newLineAnswerer(strings.NewReader(""), &out, false)

	answerer.Inform("Matched pattern 'food_delivery'")

	if !strings.Contains(out.String(), "Matched pattern 'food_delivery'\n") {
		t.Errorf("unexpected output %q", out.String())
	}
}
