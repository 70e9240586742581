package models

import "testing"

func TestParseTaskStatus(t *testing.T) {
	valid := []string{"PENDING", "IN_PROGRESS", "COMPLETED", "CANCELLED"}
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			got, err := ParseTaskStatus(s)
			if err != nil {
				t.Fatalf("ParseTaskStatus(%q) error: %v", s, err)
			}
			if string(got) != s {
				t.Fatalf("ParseTaskStatus(%q) = %q", s, got)
			}
		})
	}

	invalid := []string{"", "pending", "DONE", "Pending", "IN PROGRESS"}
	for _, s := range invalid {
		t.Run("invalid_"+s, func(t *testing.T) {
			if _, err := ParseTaskStatus(s); err == nil {
				t.Fatalf("ParseTaskStatus(%q) accepted invalid status", s)
			}
		})
	}
}
