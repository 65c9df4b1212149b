package services

import (
	"errors"
	"testing"

	"visitor-backend/models"
)

func TestVisitorCreate_DefaultsAndToken(t *testing.T) {
	env := newTestEnv(t)

	visitor, err := env.visitors.Create(VisitorPayload{
		Name:  "  Jordan Lee  ",
		Email: "jordan@example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if visitor.Name != "Jordan Lee" {
		t.Fatalf("expected trimmed name, got %q", visitor.Name)
	}
	if visitor.VisitorType != models.VisitorTypeThirdParty {
		t.Fatalf("expected third_party default, got %s", visitor.VisitorType)
	}
	if len(visitor.AccessToken) != 64 {
		t.Fatalf("expected 64 hex chars of access token, got %d", len(visitor.AccessToken))
	}

	byToken, err := env.visitors.GetByAccessToken(visitor.AccessToken)
	if err != nil {
		t.Fatalf("lookup by token: %v", err)
	}
	if byToken.ID != visitor.ID {
		t.Fatalf("token lookup returned visitor %d, want %d", byToken.ID, visitor.ID)
	}
}

func TestVisitorCreate_RejectsBadEmail(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.visitors.Create(VisitorPayload{Name: "No Email", Email: "not-an-email"}); err == nil {
		t.Fatal("expected an error for an invalid email")
	}
}

func TestVisitorSearch_ExcludesAnonymised(t *testing.T) {
	env := newTestEnv(t)

	kept, err := env.visitors.Create(VisitorPayload{Name: "Sam Keeper", Email: "sam@example.com", Company: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	gone, err := env.visitors.Create(VisitorPayload{Name: "Sam Gone", Email: "samgone@example.com", Company: "Acme"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.visitors.Anonymise(gone.ID); err != nil {
		t.Fatalf("anonymise: %v", err)
	}

	results, err := env.visitors.Search("sam", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != kept.ID {
		t.Fatalf("expected only the kept visitor, got %+v", results)
	}
}

func TestVisitorAnonymise_ScrubsAndIsIdempotentConflict(t *testing.T) {
	env := newTestEnv(t)

	visitor, err := env.visitors.Create(VisitorPayload{
		Name:    "Robin Private",
		Email:   "robin@example.com",
		Phone:   "0123456",
		Company: "Acme",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := env.visitors.Anonymise(visitor.ID); err != nil {
		t.Fatalf("anonymise: %v", err)
	}

	scrubbed, err := env.visitors.GetByID(visitor.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if scrubbed.Email != "" || scrubbed.Phone != "" || scrubbed.Company != "" {
		t.Fatalf("personal data not scrubbed: %+v", scrubbed)
	}
	if !scrubbed.IsAnonymised {
		t.Fatal("expected is_anonymised set")
	}

	if err := env.visitors.Anonymise(visitor.ID); !errors.Is(err, ErrVisitorNotFound) {
		t.Fatalf("expected ErrVisitorNotFound on repeat, got %v", err)
	}
}
