package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// getAbsolutePath checks if a file exists and returns its absolute path.
func getAbsolutePath(filename string) (string, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return filename, fmt.Errorf("error getting absolute path: %v", err)
	}

	_, err = os.Stat(absPath)
	if os.IsNotExist(err) {
		return absPath, fmt.Errorf("file does not exist: %v", absPath)
	} else if err != nil {
		return absPath, fmt.Errorf("error checking file: %v", err)
	}

	return absPath, nil
}

type statementFile struct {
	Path    string
	ModTime time.Time
}

// findStatementFiles lists files of folder with one of extensions, newest first.
// Hidden files and spreadsheet lock files ("~$...") are ignored.
func findStatementFiles(folder string, extensions []string) ([]statementFile, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("can't list '%s': %w", folder, err)
	}
	files := []statementFile{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			continue
		}
		if indexOf(extensions, strings.ToLower(filepath.Ext(name))) < 0 {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("can't stat '%s': %w", name, err)
		}
		files = append(files, statementFile{Path: filepath.Join(folder, name), ModTime: info.ModTime()})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Path < files[j].Path
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// chooseStatementFile returns the only file or asks the operator, the newest is default.
func chooseStatementFile(ctx context.Context, answerer Answerer, folder string, files []statementFile) (string, error) {
	switch len(files) {
	case 0:
		return "", fmt.Errorf("there are no statement files in '%s'", folder)
	case 1:
		return files[0].Path, nil
	}
	choices := make([]string, len(files))
	for i, file := range files {
		choices[i] = fmt.Sprintf("%s (%s)", filepath.Base(file.Path), file.ModTime.Format("2006-01-02 15:04"))
	}
	prompt := Prompt{
		Kind:     PromptFile,
		Question: fmt.Sprintf("Several statement files found in '%s', which one to process?", folder),
		Choices:  choices,
		Default:  "1",
		Hint:     "Enter number of the file.",
	}
	return ask(ctx, answerer, prompt, func(answer string) (string, string) {
		if answer == "" {
			answer = prompt.Default
		}
		if choice, ok := choiceByNumber(answer, choices); ok {
			return files[indexOf(choices, choice)].Path, ""
		}
		return "", fmt.Sprintf("'%s' is not a number from 1 to %d", answer, len(choices))
	})
}
