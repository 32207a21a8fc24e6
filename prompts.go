package main

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var errInterrupted = errors.New("processing interrupted")

// PromptKind tells which input the operator is asked for.
type PromptKind string

const (
	PromptFile                PromptKind = "file"
	PromptCurrency            PromptKind = "currency"
	PromptMatchedCategory     PromptKind = "matched_category"
	PromptPatternWord         PromptKind = "pattern_word"
	PromptPatternName         PromptKind = "pattern_name"
	PromptPatternCategory     PromptKind = "pattern_category"
	PromptTransactionCategory PromptKind = "transaction_category"
	PromptReason              PromptKind = "reason"
	PromptSplits              PromptKind = "splits"
)

// Prompt is a request for one line of operator input.
type Prompt struct {
	Kind     PromptKind
	Question string
	// Choices are shown numbered from 1, operator may answer with the number.
	Choices []string
	// Default is used when answer is empty.
	Default string
	Hint    string
	// Problem explains why the previous answer was rejected.
	Problem string
}

// Answerer supplies operator answers. Implementations return errInterrupted when the
// operator aborted or no more answers are available.
type Answerer interface {
	Answer(ctx context.Context, prompt Prompt) (string, error)
	Inform(message string)
}

// choiceByNumber resolves "3" into the third choice.
func choiceByNumber(answer string, choices []string) (string, bool) {
	number, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || number < 1 || number > len(choices) {
		return "", false
	}
	return choices[number-1], true
}

// ask repeats prompt until validate accepts the answer. Validate returns problem text for
// a rejected answer.
func ask(
	ctx context.Context,
	answerer Answerer,
	prompt Prompt,
	validate func(answer string) (string, string),
) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", errInterrupted
		}
		answer, err := answerer.Answer(ctx, prompt)
		if err != nil {
			return "", err
		}
		value, problem := validate(strings.TrimSpace(answer))
		if problem == "" {
			return value, nil
		}
		prompt.Problem = problem
	}
}
