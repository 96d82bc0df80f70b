package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndCopies(t *testing.T) {
	registry := NewRegistry()
	reconcile := &stubJob{name: "payment_reconcile"}
	other := &stubJob{name: "other"}
	if err := registry.Register(reconcile); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(other); err != nil {
		t.Fatalf("register: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != reconcile || jobs[1] != other {
		t.Fatalf("jobs returned out of order: %v", jobs)
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "payment_reconcile"}, nil, &stubJob{name: "payment_reconcile"})
	if len(registry.Jobs()) != 1 {
		t.Fatalf("expected duplicate to be skipped, got %d jobs", len(registry.Jobs()))
	}
	if err := registry.Register(&stubJob{name: "payment_reconcile"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}
