package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestHelper prepares a working folder with configuration, statements and answers.
type TestHelper struct {
	t       *testing.T
	tempDir string
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t, tempDir: t.TempDir()}
}

// CreateConfigFile creates a config file in the temp directory with the given content.
func (th *TestHelper) CreateConfigFile(content string) string {
	return writeTestFile(th.t, th.tempDir, "config.yaml", content)
}

// CreateMinimalConfig creates a valid config with the ICICI processor reading 'statements'.
func (th *TestHelper) CreateMinimalConfig() string {
	if err := os.MkdirAll(filepath.Join(th.tempDir, "statements"), 0755); err != nil {
		th.t.Fatalf("Failed to create statements dir: %v", err)
	}
	return th.CreateConfigFile(`databasePath: db/ledger.db
timeZoneLocation: "UTC"
processors:
  icici_bank:
    extractionFolder: statements
    currency: INR
`)
}

func (th *TestHelper) CreateAnswers(answers ...string) string {
	return writeTestFile(th.t, th.tempDir, "answers.txt", strings.Join(answers, "\n")+"\n")
}

func (th *TestHelper) path(elem ...string) string {
	return filepath.Join(append([]string{th.tempDir}, elem...)...)
}

func TestParseArgs_Success(t *testing.T) {
	tests := []struct {
		name            string
		args            []string
		want            Args
		isHelpRequested bool
	}{
		{
			name: "default args",
			args: []string{},
			want: Args{ConfigPath: "config.yaml"},
		},
		{
			name: "custom config path",
			args: []string{"custom_config.yaml"},
			want: Args{ConfigPath: "custom_config.yaml"},
		},
		{
			name: "all flags",
			args: []string{
				"-p", "icici_bank", "--file", "stmt.xlsx", "--answers", "answers.txt",
				"--reprocess-skipped", "-v", "my.yaml",
			},
			want: Args{
				ConfigPath:       "my.yaml",
				Processor:        "icici_bank",
				File:             "stmt.xlsx",
				Answers:          "answers.txt",
				ReprocessSkipped: true,
				Verbose:          true,
			},
		},
		{
			name:            "help requested",
			args:            []string{"--help"},
			want:            Args{},
			isHelpRequested: true,
		},
		{
			name:            "version requested",
			args:            []string{"--version"},
			want:            Args{},
			isHelpRequested: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout bytes.Buffer

			got, isHelpRequested, err := parseArgs(tt.args, &stdout)

			if err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
			if isHelpRequested != tt.isHelpRequested {
				t.Errorf("Expected isHelpRequested %t, got %t", tt.isHelpRequested, isHelpRequested)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("args mismatch (-expected +got):\n%s", diff)
			}
			if tt.isHelpRequested && stdout.Len() == 0 {
				t.Errorf("Expected help or version output")
			}
		})
	}
}

func TestParseArgs_InvalidArgument(t *testing.T) {
	_, _, err := parseArgs([]string{"--invalid-argument"}, &bytes.Buffer{})

	checkErrorContainsSubstring(t, err, "unknown argument --invalid-argument")
}

func TestRunApplication_ProcessesNewestStatement(t *testing.T) {
	// Arrange
	helper := NewTestHelper(t)
	configFile := helper.CreateMinimalConfig()
	writeTestFile(t, helper.path("statements"), "statement.csv", iciciStatementCsv)
	answers := helper.CreateAnswers(
		"# UPI-SWIGGY",
		"swiggy", "", "1", "", "", "",
		"# NEFT-ACME CORP SALARY",
		"salary", "", "income", "", "salary for january", "",
		"# UPI-ZOMATO ORDER",
		"s",
	)
	var stdout bytes.Buffer

	// Act
	err := runApplication(context.Background(), Args{ConfigPath: configFile, Answers: answers}, &stdout)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	output := stdout.String()
	for _, part := range []string{
		"statement.csv: completed",
		"rows 3, processed 2, skipped 1, duplicate 0, auto-skipped 0",
		"Created pattern 'swiggy_transaction'",
		"income                 1  +₹100000.00",
	} {
		if !strings.Contains(output, part) {
			t.Errorf("Expected output to contain %q, got:\n%s", part, output)
		}
	}
	if _, err := os.Stat(helper.path("db", "ledger.db")); err != nil {
		t.Errorf("Expected database file: %v", err)
	}
	categories, err := loadCategoryList(helper.path(DEFAULT_CATEGORIES_FILE_PATH))
	if err != nil {
		t.Fatalf("Failed to load categories: %v", err)
	}
	if !categories.contains("income") {
		t.Errorf("Expected 'income' category saved, got %v", categories.Names())
	}
}

func TestRunApplication_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prepare  func(helper *TestHelper) Args
		expected string
	}{
		{
			name: "missing config",
			prepare: func(helper *TestHelper) Args {
				return Args{ConfigPath: helper.path("absent.yaml")}
			},
			expected: "can't find configuration file",
		},
		{
			name: "wrong config",
			prepare: func(helper *TestHelper) Args {
				return Args{ConfigPath: helper.CreateConfigFile("processors: {}\n")}
			},
			expected: "is wrong",
		},
		{
			name: "not configured processor",
			prepare: func(helper *TestHelper) Args {
				return Args{ConfigPath: helper.CreateMinimalConfig(), Processor: "generic_csv", Answers: helper.CreateAnswers()}
			},
			expected: "processor 'generic_csv' is not configured",
		},
		{
			name: "empty extraction folder",
			prepare: func(helper *TestHelper) Args {
				return Args{ConfigPath: helper.CreateMinimalConfig(), Answers: helper.CreateAnswers()}
			},
			expected: "there are no statement files",
		},
		{
			name: "missing answers file",
			prepare: func(helper *TestHelper) Args {
				return Args{ConfigPath: helper.CreateMinimalConfig(), Answers: helper.path("absent.txt")}
			},
			expected: "can't open answers file",
		},
		{
			name: "missing statement file",
			prepare: func(helper *TestHelper) Args {
				return Args{
					ConfigPath: helper.CreateMinimalConfig(),
					Answers:    helper.CreateAnswers(),
					File:       helper.path("absent.xlsx"),
				}
			},
			expected: "can't find statement file",
		},
		{
			name: "header not found",
			prepare: func(helper *TestHelper) Args {
				return Args{
					ConfigPath: helper.CreateMinimalConfig(),
					Answers:    helper.CreateAnswers(),
					File:       writeTestFile(helper.t, helper.tempDir, "random.csv", "a,b\n1,2\n"),
				}
			},
			expected: "header row not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			helper := NewTestHelper(t)
			args := tt.prepare(helper)

			err := runApplication(context.Background(), args, &bytes.Buffer{})

			checkErrorContainsSubstring(t, err, tt.expected)
		})
	}
}

func TestRunApplication_RequiresTerminalOrAnswers(t *testing.T) {
	if isInteractiveInput() {
		t.Skip("stdin is a terminal")
	}
	helper := NewTestHelper(t)

	err := runApplication(context.Background(), Args{ConfigPath: helper.CreateMinimalConfig()}, &bytes.Buffer{})

	checkErrorContainsSubstring(t, err, "provide operator answers with --answers")
}
