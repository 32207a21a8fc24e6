package main

import (
	"context"
	"errors"
	"testing"
)

// scriptedAnswerer replies with canned answers and records prompts.
type scriptedAnswerer struct {
	answers  []string
	prompts  []Prompt
	messages []string
}

func (s *scriptedAnswerer) Answer(ctx context.Context, prompt Prompt) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.answers) == 0 {
		return "", errInterrupted
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

func (s *scriptedAnswerer) Inform(message string) {
	s.messages = append(s.messages, message)
}

func (s *scriptedAnswerer) promptKinds() []PromptKind {
	kinds := make([]PromptKind, len(s.prompts))
	for i, prompt := range s.prompts {
		kinds[i] = prompt.Kind
	}
	return kinds
}

func TestChoiceByNumber(t *testing.T) {
	choices := []string{"food", "travel"}

	if got, ok := choiceByNumber(" 2 ", choices); !ok || got != "travel" {
		t.Errorf("expected 'travel', got '%s' %v", got, ok)
	}
	for _, answer := range []string{"0", "3", "food", ""} {
		if _, ok := choiceByNumber(answer, choices); ok {
			t.Errorf("expected '%s' to be rejected", answer)
		}
	}
}

func TestAsk_RepeatsUntilValid(t *testing.T) {
	answerer := &scriptedAnswerer{answers: []string{"x", "ok"}}

	value, err := ask(context.Background(), answerer, Prompt{Kind: PromptReason}, func(answer string) (string, string) {
		if len(answer) < 2 {
			return "", "too short"
		}
		return answer, ""
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "ok" {
		t.Errorf("expected 'ok', got '%s'", value)
	}
	if len(answerer.prompts) != 2 || answerer.prompts[1].Problem != "too short" {
		t.Errorf("expected second prompt with problem, got %+v", answerer.prompts)
	}
}

func TestAsk_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	answerer := &scriptedAnswerer{answers: []string{"ok"}}

	_, err := ask(ctx, answerer, Prompt{}, func(answer string) (string, string) { return answer, "" })

	if !errors.Is(err, errInterrupted) {
		t.Errorf("expected errInterrupted, got %v", err)
	}
	if len(answerer.prompts) != 0 {
		t.Errorf("expected no prompts after cancellation, got %d", len(answerer.prompts))
	}
}
