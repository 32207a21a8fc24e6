package main

import (
	"testing"
)

func TestLookupProcessor(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantKind ProcessorKind
		wantErr  string
	}{
		{name: "icici", input: "icici_bank", wantKind: ProcessorICICIBank},
		{name: "trimmed", input: " generic_csv ", wantKind: ProcessorGenericCsv},
		{name: "unknown", input: "hdfc", wantErr: "unknown processor 'hdfc', supported: generic_csv, icici_bank"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := lookupProcessor(tt.input)

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error, got profile %v", profile.Kind)
				}
				checkErrorContainsSubstring(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if profile.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, profile.Kind)
			}
		})
	}
}

func TestInstitutionNameFor(t *testing.T) {
	if got := institutionNameFor(ProcessorICICIBank); got != "Icici Bank" {
		t.Errorf("expected 'Icici Bank', got '%s'", got)
	}
}
