package main

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/availability"
	"github.com/carelink/carelink/internal/domain/identity"
)

// -- ProviderDirectoryAdapter --

type providerRepoStub struct {
	providers map[uuid.UUID]*identity.Provider
	err       error
}

func newProviderRepoStub() *providerRepoStub {
	return &providerRepoStub{providers: make(map[uuid.UUID]*identity.Provider)}
}

func (s *providerRepoStub) Create(_ context.Context, p *identity.Provider) error {
	s.providers[p.ID] = p
	return nil
}

func (s *providerRepoStub) GetByID(_ context.Context, id uuid.UUID) (*identity.Provider, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.providers[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return p, nil
}

func (s *providerRepoStub) GetByEmail(_ context.Context, email string) (*identity.Provider, error) {
	for _, p := range s.providers {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (s *providerRepoStub) Update(_ context.Context, p *identity.Provider) error {
	s.providers[p.ID] = p
	return nil
}

func (s *providerRepoStub) List(_ context.Context, _, _ int) ([]*identity.Provider, int, error) {
	var out []*identity.Provider
	for _, p := range s.providers {
		out = append(out, p)
	}
	return out, len(out), nil
}

type patientRepoStub struct{}

func (s *patientRepoStub) Create(_ context.Context, _ *identity.Patient) error { return nil }

func (s *patientRepoStub) GetByID(_ context.Context, _ uuid.UUID) (*identity.Patient, error) {
	return nil, identity.ErrNotFound
}

func (s *patientRepoStub) GetByEmail(_ context.Context, _ string) (*identity.Patient, error) {
	return nil, identity.ErrNotFound
}

func (s *patientRepoStub) Update(_ context.Context, _ *identity.Patient) error { return nil }

func (s *patientRepoStub) List(_ context.Context, _, _ int) ([]*identity.Patient, int, error) {
	return nil, 0, nil
}

func newTestAdapter() (*ProviderDirectoryAdapter, *providerRepoStub) {
	repo := newProviderRepoStub()
	svc := identity.NewService(repo, &patientRepoStub{})
	return NewProviderDirectoryAdapter(svc), repo
}

func TestProviderDirectoryAdapter_Found(t *testing.T) {
	adapter, repo := newTestAdapter()

	id := uuid.New()
	repo.providers[id] = &identity.Provider{
		ID:             id,
		Email:          "dana@clinic.example",
		FirstName:      "Dana",
		LastName:       "Lee",
		Specialization: "cardiology",
		Active:         true,
	}

	info, err := adapter.FindProvider(context.Background(), id)
	if err != nil {
		t.Fatalf("FindProvider: %v", err)
	}
	if info.ID != id {
		t.Errorf("ID = %s, want %s", info.ID, id)
	}
	if info.FullName != "Dana Lee" {
		t.Errorf("FullName = %q, want %q", info.FullName, "Dana Lee")
	}
	if info.Specialization != "cardiology" {
		t.Errorf("Specialization = %q, want %q", info.Specialization, "cardiology")
	}
}

func TestProviderDirectoryAdapter_NotFound(t *testing.T) {
	adapter, _ := newTestAdapter()

	_, err := adapter.FindProvider(context.Background(), uuid.New())
	if !errors.Is(err, availability.ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestProviderDirectoryAdapter_InactiveProvider(t *testing.T) {
	adapter, repo := newTestAdapter()

	id := uuid.New()
	repo.providers[id] = &identity.Provider{
		ID:        id,
		FirstName: "Sam",
		LastName:  "Ng",
		Active:    false,
	}

	_, err := adapter.FindProvider(context.Background(), id)
	if !errors.Is(err, availability.ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound for deactivated provider", err)
	}
}

func TestProviderDirectoryAdapter_RepoErrorPassesThrough(t *testing.T) {
	adapter, repo := newTestAdapter()
	repo.err = errors.New("connection refused")

	_, err := adapter.FindProvider(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, availability.ErrProviderNotFound) {
		t.Fatal("infrastructure errors must not be reported as a missing provider")
	}
}
