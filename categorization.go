package main

import (
	"strings"
	"unicode"
)

// TrieNode is a node of a rune trie over pattern substrings.
type TrieNode struct {
	children map[rune]*TrieNode
	// patternIndex is the lowest index of a pattern ending here, -1 if none.
	patternIndex int
}

func newTrieNode() *TrieNode {
	return &TrieNode{children: make(map[rune]*TrieNode), patternIndex: -1}
}

// insert adds word which belongs to pattern with index provided.
func (t *TrieNode) insert(word string, index int) {
	node := t
	for _, ch := range word {
		next, ok := node.children[ch]
		if !ok {
			next = newTrieNode()
			node.children[ch] = next
		}
		node = next
	}
	if node.patternIndex < 0 || index < node.patternIndex {
		node.patternIndex = index
	}
}

// searchLowestIndex returns the lowest pattern index among all substrings found in s, -1 if
// no substring occurs.
func (t *TrieNode) searchLowestIndex(s string) int {
	runes := []rune(s)
	found := -1
	for i := range runes {
		node := t
		for j := i; j < len(runes); j++ {
			next, ok := node.children[runes[j]]
			if !ok {
				break
			}
			node = next
			if node.patternIndex >= 0 && (found < 0 || node.patternIndex < found) {
				found = node.patternIndex
				if found == 0 {
					return 0
				}
			}
		}
	}
	return found
}

// patternMatcher finds the first category pattern (in given order) with any substring
// occurring in description, case-insensitively.
type patternMatcher struct {
	root     *TrieNode
	patterns []CategoryPattern
}

func newPatternMatcher(patterns []CategoryPattern) *patternMatcher {
	root := newTrieNode()
	for i, pattern := range patterns {
		for _, substring := range pattern.Substrings {
			substring = strings.ToLower(strings.TrimSpace(substring))
			if substring == "" {
				continue
			}
			root.insert(substring, i)
		}
	}
	return &patternMatcher{root: root, patterns: patterns}
}

func (m *patternMatcher) match(description string) (CategoryPattern, bool) {
	index := m.root.searchLowestIndex(strings.ToLower(description))
	if index < 0 {
		return CategoryPattern{}, false
	}
	return m.patterns[index], true
}

var suggestionStopwords = map[string]bool{
	"to": true, "from": true, "the": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "by": true, "for": true,
}

const maxPatternSuggestions = 5

// suggestPatternWords picks up to 5 words of description worth matching on: stopwords and
// words with less than 3 letters or digits are dropped, punctuation around words is trimmed.
func suggestPatternWords(description string) []string {
	isWordRune := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	suggestions := []string{}
	seen := map[string]bool{}
	for _, token := range strings.Fields(strings.ToLower(description)) {
		token = strings.TrimFunc(token, func(r rune) bool { return !isWordRune(r) })
		if suggestionStopwords[token] || seen[token] {
			continue
		}
		wordRunes := 0
		for _, r := range token {
			if isWordRune(r) {
				wordRunes++
			}
		}
		if wordRunes < 3 {
			continue
		}
		seen[token] = true
		suggestions = append(suggestions, token)
		if len(suggestions) == maxPatternSuggestions {
			break
		}
	}
	return suggestions
}
