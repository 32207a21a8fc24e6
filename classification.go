package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	answerSkip       = "s"
	answerNewPattern = "n"

	minCategoryLength    = 2
	minPatternWordLength = 2
	minPatternNameLength = 3
	minReasonLength      = 3

	defaultPatternWord   = "transaction"
	defaultNewFlowReason = "General transaction"
	reasonNoPattern      = "skipped by operator: no pattern identified"
	reasonSkippedByUser  = "skipped by operator"
	reasonInterrupted    = "processing interrupted"
)

// PatternStore keeps category patterns.
type PatternStore interface {
	ActivePatterns(ctx context.Context, processor ProcessorKind) ([]CategoryPattern, error)
	// FindPattern returns nil pattern when there is no pattern with such name.
	FindPattern(ctx context.Context, name string, processor ProcessorKind) (*CategoryPattern, error)
	// SavePattern creates pattern or, for existing name, unions substrings and replaces category.
	SavePattern(ctx context.Context, pattern CategoryPattern) (CategoryPattern, error)
}

// Classifier starts classifications of transactions of one processor.
type Classifier struct {
	Processor  ProcessorKind
	Patterns   PatternStore
	Categories CategoryCatalog
}

type classificationState int

const (
	stateMatchedCategory classificationState = iota
	stateMatchedReason
	statePatternWord
	statePatternName
	statePatternCategory
	stateTransactionCategory
	stateReason
	stateSplits
	stateDone
)

// Classification is the state machine of one transaction classification. It never reads
// input itself: Prompt tells what is needed, Supply moves it forward with the answer.
type Classification struct {
	classifier  *Classifier
	tx          NormalizedTransaction
	state       classificationState
	problem     string
	matched     *CategoryPattern
	pattern     *CategoryPattern
	createdNew  bool
	suggestions []string
	word        string
	decision    ClassificationDecision
	notes       []string
}

// Begin checks patterns of the processor and returns classification waiting for input.
func (c *Classifier) Begin(ctx context.Context, tx NormalizedTransaction) (*Classification, error) {
	patterns, err := c.Patterns.ActivePatterns(ctx, c.Processor)
	if err != nil {
		return nil, fmt.Errorf("can't load category patterns: %w", err)
	}
	cl := &Classification{classifier: c, tx: tx}
	if matched, ok := newPatternMatcher(patterns).match(tx.Description); ok {
		cl.matched = &matched
		cl.state = stateMatchedCategory
	} else {
		cl.enterNewPatternFlow()
	}
	return cl, nil
}

func (cl *Classification) enterNewPatternFlow() {
	cl.state = statePatternWord
	cl.pattern = nil
	cl.suggestions = suggestPatternWords(cl.tx.Description)
}

func (cl *Classification) Done() bool {
	return cl.state == stateDone
}

func (cl *Classification) Decision() ClassificationDecision {
	return cl.decision
}

// TakeNotes returns messages for the operator collected since the previous call.
func (cl *Classification) TakeNotes() []string {
	notes := cl.notes
	cl.notes = nil
	return notes
}

// Interrupt resolves classification to skip without further prompts.
func (cl *Classification) Interrupt() {
	if cl.Done() {
		return
	}
	cl.finishSkip(reasonInterrupted)
	cl.decision.Interrupted = true
}

func (cl *Classification) finishSkip(reason string) {
	cl.decision = ClassificationDecision{Action: ActionSkip, Reason: reason}
	cl.state = stateDone
}

func (cl *Classification) categoryHint(extra string) string {
	hint := "Enter number to choose or type a new category name."
	if extra != "" {
		hint += " " + extra
	}
	return hint
}

// Prompt describes input needed in the current state. Not valid when Done.
func (cl *Classification) Prompt() Prompt {
	categories := cl.classifier.Categories.Names()
	prompt := Prompt{Problem: cl.problem}
	switch cl.state {
	case stateMatchedCategory:
		prompt.Kind = PromptMatchedCategory
		prompt.Question = fmt.Sprintf(
			"'%s' matches pattern '%s' with category '%s'. Category of this transaction?",
			cl.tx.Description, cl.matched.Name, cl.matched.Category,
		)
		prompt.Choices = categories
		prompt.Default = cl.matched.Category
		prompt.Hint = cl.categoryHint(fmt.Sprintf(
			"'%s' to skip transaction, '%s' to define a new pattern instead.", answerSkip, answerNewPattern,
		))
	case stateMatchedReason:
		prompt.Kind = PromptReason
		prompt.Question = "Reason of the transaction?"
		prompt.Default = "Transaction: " + cl.matched.Name
	case statePatternWord:
		prompt.Kind = PromptPatternWord
		prompt.Question = fmt.Sprintf("No pattern matches '%s'. Text to match similar transactions?", cl.tx.Description)
		prompt.Choices = cl.suggestions
		prompt.Default = defaultPatternWord
		if len(cl.suggestions) > 0 {
			prompt.Default = cl.suggestions[0]
		}
		prompt.Hint = fmt.Sprintf("Enter number of suggestion or own text, '%s' to skip transaction.", answerSkip)
	case statePatternName:
		prompt.Kind = PromptPatternName
		prompt.Question = fmt.Sprintf("Name of the pattern for '%s'?", cl.word)
		prompt.Default = defaultPatternName(cl.word)
	case statePatternCategory:
		prompt.Kind = PromptPatternCategory
		prompt.Question = fmt.Sprintf("Category of the new pattern '%s'?", cl.word)
		prompt.Choices = categories
		prompt.Hint = cl.categoryHint("")
	case stateTransactionCategory:
		prompt.Kind = PromptTransactionCategory
		prompt.Question = "Category of this transaction?"
		prompt.Choices = categories
		prompt.Default = cl.pattern.Category
		prompt.Hint = cl.categoryHint("")
	case stateReason:
		prompt.Kind = PromptReason
		prompt.Question = "Reason of the transaction?"
		prompt.Default = defaultNewFlowReason
	case stateSplits:
		prompt.Kind = PromptSplits
		prompt.Question = fmt.Sprintf(
			"Split %s %s with others? Format: name:percentage[,name:percentage...]",
			formatAmount(cl.tx.Amount()), currencySymbol(cl.tx.Currency),
		)
		prompt.Hint = "Enter for no splits."
	}
	return prompt
}

func defaultPatternName(word string) string {
	return strings.Join(strings.Fields(word), "_") + "_transaction"
}

// chooseCategory resolves answer into existing or new category. A new category which
// can't be saved to the categories file is still used, operator is warned.
func (cl *Classification) chooseCategory(ctx context.Context, answer string) (string, error) {
	names := cl.classifier.Categories.Names()
	if choice, ok := choiceByNumber(answer, names); ok {
		return choice, nil
	}
	for _, name := range names {
		if strings.EqualFold(name, strings.TrimSpace(answer)) {
			return name, nil
		}
	}
	if len([]rune(answer)) < minCategoryLength {
		cl.problem = fmt.Sprintf("category must be a number from the list or a name of %d+ characters", minCategoryLength)
		return "", nil
	}
	category, err := cl.classifier.Categories.Add(answer)
	if category == "" {
		return "", fmt.Errorf("can't add category '%s': %w", answer, err)
	}
	if err != nil {
		loggerFrom(ctx).Warn().Err(err).Str("category", category).Msg("Can't save new category")
		cl.notes = append(cl.notes, fmt.Sprintf("Added new category '%s' for this run only: %v.", category, err))
		return category, nil
	}
	cl.notes = append(cl.notes, fmt.Sprintf("Added new category '%s'.", category))
	return category, nil
}

// Supply moves classification forward with an operator answer. Rejected answers keep the
// state and set Problem of the next prompt. Errors come from storage only.
func (cl *Classification) Supply(ctx context.Context, answer string) error {
	if cl.Done() {
		return errors.New("classification is already done")
	}
	answer = strings.TrimSpace(answer)
	cl.problem = ""

	switch cl.state {
	case stateMatchedCategory:
		switch {
		case strings.EqualFold(answer, answerSkip):
			cl.finishSkip(reasonSkippedByUser)
			return nil
		case strings.EqualFold(answer, answerNewPattern):
			cl.enterNewPatternFlow()
			return nil
		}
		category := cl.matched.Category
		if answer != "" {
			var err error
			if category, err = cl.chooseCategory(ctx, answer); err != nil || category == "" {
				return err
			}
		}
		cl.pattern = cl.matched
		cl.decision.TransactionCategory = category
		cl.state = stateMatchedReason

	case stateMatchedReason, stateReason:
		reason := answer
		if reason == "" {
			reason = cl.Prompt().Default
		} else if len([]rune(reason)) < minReasonLength {
			cl.problem = fmt.Sprintf("reason must have at least %d characters", minReasonLength)
			return nil
		}
		cl.decision.Reason = reason
		cl.state = stateSplits

	case statePatternWord:
		if strings.EqualFold(answer, answerSkip) {
			cl.finishSkip(reasonNoPattern)
			return nil
		}
		word := cl.Prompt().Default
		if choice, ok := choiceByNumber(answer, cl.suggestions); ok {
			word = choice
		} else if answer != "" {
			if len([]rune(answer)) < minPatternWordLength {
				cl.problem = fmt.Sprintf("pattern text must have at least %d characters", minPatternWordLength)
				return nil
			}
			word = strings.ToLower(answer)
		}
		cl.word = word
		cl.state = statePatternName

	case statePatternName:
		name := strings.ToLower(answer)
		if name == "" {
			name = defaultPatternName(cl.word)
		} else if len([]rune(name)) < minPatternNameLength {
			cl.problem = fmt.Sprintf("pattern name must have at least %d characters", minPatternNameLength)
			return nil
		}
		existing, err := cl.classifier.Patterns.FindPattern(ctx, name, cl.classifier.Processor)
		if err != nil {
			return fmt.Errorf("can't find pattern '%s': %w", name, err)
		}
		if existing == nil {
			cl.pattern = &CategoryPattern{Name: name, Processor: cl.classifier.Processor, Active: true}
			cl.state = statePatternCategory
			return nil
		}
		// Existing pattern is used unchanged.
		cl.pattern = existing
		cl.notes = append(cl.notes, fmt.Sprintf(
			"Pattern '%s' already exists, using it with category '%s'.", name, existing.Category,
		))
		cl.state = stateTransactionCategory

	case statePatternCategory:
		category, err := cl.chooseCategory(ctx, answer)
		if err != nil || category == "" {
			return err
		}
		cl.pattern.Category = category
		cl.pattern.Substrings = []string{cl.word}
		saved, err := cl.classifier.Patterns.SavePattern(ctx, *cl.pattern)
		if err != nil {
			return fmt.Errorf("can't create pattern '%s': %w", cl.pattern.Name, err)
		}
		cl.pattern = &saved
		cl.createdNew = true
		cl.notes = append(cl.notes, fmt.Sprintf("Created pattern '%s' for '%s' in category '%s'.", saved.Name, cl.word, category))
		cl.state = stateTransactionCategory

	case stateTransactionCategory:
		category := cl.pattern.Category
		if answer != "" {
			var err error
			if category, err = cl.chooseCategory(ctx, answer); err != nil || category == "" {
				return err
			}
		}
		cl.decision.TransactionCategory = category
		cl.state = stateReason

	case stateSplits:
		var splits []Split
		if answer != "" {
			var remaining decimal.Decimal
			var err error
			splits, remaining, err = parseSplits(answer, cl.tx.Amount())
			if err != nil {
				cl.problem = err.Error()
				return nil
			}
			cl.notes = append(cl.notes, fmt.Sprintf("Unallocated %s%% stays yours.", remaining.String()))
		}
		cl.finishProcess(splits)
	}
	return nil
}

func (cl *Classification) finishProcess(splits []Split) {
	action := ActionProcess
	if cl.createdNew {
		action = ActionCreateNew
	}
	cl.decision.Action = action
	cl.decision.PatternID = cl.pattern.ID
	cl.decision.PatternName = cl.pattern.Name
	cl.decision.Category = cl.pattern.Category
	cl.decision.Splits = splits
	cl.state = stateDone
}

// parseSplits parses "name:percentage[,name:percentage...]". Each percentage must be in
// (0, 100] and their total must not exceed 100. Returns unallocated percentage.
func parseSplits(text string, amount float64) ([]Split, decimal.Decimal, error) {
	hundred := decimal.NewFromInt(100)
	total := decimal.Zero
	splits := []Split{}
	for _, entry := range strings.Split(text, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, percentageText, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("split '%s' must look like name:percentage", entry)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, decimal.Zero, fmt.Errorf("split '%s' has no person name", entry)
		}
		percentage, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(percentageText), "%"))
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("split '%s' has invalid percentage", entry)
		}
		if !percentage.IsPositive() || percentage.GreaterThan(hundred) {
			return nil, decimal.Zero, fmt.Errorf("percentage of '%s' must be in (0, 100]", name)
		}
		total = total.Add(percentage)
		if total.GreaterThan(hundred) {
			return nil, decimal.Zero, fmt.Errorf("total percentage %s exceeds 100", total.String())
		}
		splits = append(splits, Split{
			Person:     name,
			Percentage: percentage.InexactFloat64(),
			Amount:     splitAmount(percentage.InexactFloat64(), amount),
		})
	}
	if len(splits) == 0 {
		return nil, decimal.Zero, fmt.Errorf("no splits in '%s'", text)
	}
	return splits, hundred.Sub(total), nil
}

// runClassification drives classification with answers until it is done. Cancellation of
// ctx or interruption of the answerer resolves it to skip.
func runClassification(
	ctx context.Context,
	classifier *Classifier,
	tx NormalizedTransaction,
	answerer Answerer,
) (ClassificationDecision, error) {
	cl, err := classifier.Begin(ctx, tx)
	if err != nil {
		return ClassificationDecision{}, err
	}
	for !cl.Done() {
		if ctx.Err() != nil {
			cl.Interrupt()
			break
		}
		answer, err := answerer.Answer(ctx, cl.Prompt())
		if errors.Is(err, errInterrupted) || ctx.Err() != nil {
			cl.Interrupt()
			break
		}
		if err != nil {
			return ClassificationDecision{}, fmt.Errorf("can't read answer: %w", err)
		}
		if err := cl.Supply(ctx, answer); err != nil {
			return ClassificationDecision{}, err
		}
		for _, note := range cl.TakeNotes() {
			answerer.Inform(note)
		}
	}
	return cl.Decision(), nil
}
