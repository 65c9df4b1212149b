package services

import (
	"errors"
	"testing"
	"time"

	"visitor-backend/models"
)

func TestDenyCheck_MatchesByVisitorID(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	reception := createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)

	vid := visitor.ID
	if _, err := env.denyList.Add(AddPayload{
		VisitorID:   &vid,
		VisitorName: visitor.Name,
		SiteID:      site.ID,
		Reason:      "trespassing",
		IsPermanent: true,
		AddedBy:     reception.ID,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	entry, err := env.denyList.Check(visitor, site.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if entry == nil {
		t.Fatal("expected a blocking entry")
	}
}

func TestDenyCheck_EmailMatchIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	reception := createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)

	// Entry added before the visitor record existed, so email only.
	if _, err := env.denyList.Add(AddPayload{
		VisitorName:  visitor.Name,
		VisitorEmail: "  " + upperFirst(visitor.Email) + "  ",
		SiteID:       site.ID,
		Reason:       "aggressive behaviour",
		IsPermanent:  true,
		AddedBy:      reception.ID,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	entry, err := env.denyList.Check(visitor, site.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if entry == nil {
		t.Fatal("expected an email match despite case difference")
	}
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

func TestDenyCheck_ExpiredEntryIgnored(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	reception := createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)

	vid := visitor.ID
	expired := time.Now().UTC().Add(-time.Hour)
	if _, err := env.denyList.Add(AddPayload{
		VisitorID:   &vid,
		VisitorName: visitor.Name,
		SiteID:      site.ID,
		Reason:      "temporary ban",
		ExpiresAt:   &expired,
		AddedBy:     reception.ID,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	entry, err := env.denyList.Check(visitor, site.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if entry != nil {
		t.Fatalf("expired entry should not block, got %+v", entry)
	}
}

func TestDenyCheck_FutureExpiryBlocks(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	reception := createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)

	vid := visitor.ID
	future := time.Now().UTC().Add(24 * time.Hour)
	if _, err := env.denyList.Add(AddPayload{
		VisitorID:   &vid,
		VisitorName: visitor.Name,
		SiteID:      site.ID,
		Reason:      "temporary ban",
		ExpiresAt:   &future,
		AddedBy:     reception.ID,
	}); err != nil {
		t.Fatalf("add: %v", err)
	}

	entry, err := env.denyList.Check(visitor, site.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if entry == nil {
		t.Fatal("unexpired entry should block")
	}
}

func TestDenyAdd_RequiresReason(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)

	if _, err := env.denyList.Add(AddPayload{
		VisitorName: "Someone",
		SiteID:      site.ID,
		Reason:      "   ",
		IsPermanent: true,
	}); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
}

func TestDenyDeactivate_StopsBlocking(t *testing.T) {
	env := newTestEnv(t)
	site := createSite(t, env.db)
	reception := createUser(t, env.db, site.ID, models.RoleReception)
	visitor := createVisitor(t, env.db, models.VisitorTypeThirdParty)

	vid := visitor.ID
	entry, err := env.denyList.Add(AddPayload{
		VisitorID:   &vid,
		VisitorName: visitor.Name,
		SiteID:      site.ID,
		Reason:      "incident",
		IsPermanent: true,
		AddedBy:     reception.ID,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := env.denyList.Deactivate(entry.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	blocking, err := env.denyList.Check(visitor, site.ID)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if blocking != nil {
		t.Fatal("deactivated entry should not block")
	}

	// Retained for audit, not deleted.
	entries, err := env.denyList.ListForSite(site.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0].IsActive {
		t.Fatalf("expected 1 inactive entry, got %+v", entries)
	}
}
