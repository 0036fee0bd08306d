package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewWorkRequest(t *testing.T) {
	wr, err := NewWorkRequest("  Provision VM ", " 4 vCPU ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if wr.ID == uuid.Nil {
		t.Error("ID should be assigned")
	}
	if wr.Title != "Provision VM" {
		t.Errorf("expected trimmed title, got %q", wr.Title)
	}
	if wr.Description != "4 vCPU" {
		t.Errorf("expected trimmed description, got %q", wr.Description)
	}
	if wr.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestNewWorkRequest_EmptyTitle(t *testing.T) {
	_, err := NewWorkRequest("   ", "desc")
	if !errors.Is(err, ErrTitleRequired) {
		t.Errorf("expected ErrTitleRequired, got %v", err)
	}
}

func TestNewWorkRequest_UniqueIDs(t *testing.T) {
	a, _ := NewWorkRequest("a", "")
	b, _ := NewWorkRequest("b", "")
	if a.ID == b.ID {
		t.Error("ids should be unique")
	}
}
