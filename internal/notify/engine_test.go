package notify

import (
	"testing"

	"github.com/google/uuid"

	"github.com/gigboard/backend/internal/models"
)

func recipient(mutate func(*Recipient)) Recipient {
	rec := Recipient{
		PlanID:           uuid.New(),
		PlanStatus:       models.PlanNoPlan,
		MembershipStatus: models.MembershipConfirmed,
		EmailMe:          true,
		Email:            "member@example.com",
	}
	if mutate != nil {
		mutate(&rec)
	}
	return rec
}

func TestFilterAudience(t *testing.T) {
	t.Run("confirmed members who want mail are included", func(t *testing.T) {
		got := FilterAudience([]Recipient{recipient(nil)}, false, false)
		if len(got) != 1 {
			t.Fatalf("expected 1 recipient, got %d", len(got))
		}
	})

	t.Run("unconfirmed members are excluded", func(t *testing.T) {
		for _, status := range []models.MembershipStatus{
			models.MembershipUnconfirmed, models.MembershipInvited, models.MembershipPending,
		} {
			rec := recipient(func(r *Recipient) { r.MembershipStatus = status })
			if got := FilterAudience([]Recipient{rec}, true, false); len(got) != 0 {
				t.Fatalf("status %s: expected exclusion, got %v", status, got)
			}
		}
	})

	t.Run("opted-out members are excluded", func(t *testing.T) {
		rec := recipient(func(r *Recipient) { r.EmailMe = false })
		if got := FilterAudience([]Recipient{rec}, true, false); len(got) != 0 {
			t.Fatalf("expected exclusion, got %v", got)
		}
	})

	t.Run("occasionals need an inviting gig", func(t *testing.T) {
		rec := recipient(func(r *Recipient) { r.IsOccasional = true })
		if got := FilterAudience([]Recipient{rec}, false, false); len(got) != 0 {
			t.Fatalf("expected exclusion, got %v", got)
		}
		if got := FilterAudience([]Recipient{rec}, true, false); len(got) != 1 {
			t.Fatalf("expected inclusion when invited, got %v", got)
		}
	})

	t.Run("undecided-only keeps no-plan and don't-know answers", func(t *testing.T) {
		kept := []models.PlanStatus{models.PlanNoPlan, models.PlanDontKnow}
		dropped := []models.PlanStatus{
			models.PlanDefinitely, models.PlanProbably,
			models.PlanProbablyNot, models.PlanCantDoIt, models.PlanNotInterested,
		}
		for _, status := range kept {
			rec := recipient(func(r *Recipient) { r.PlanStatus = status })
			if got := FilterAudience([]Recipient{rec}, false, true); len(got) != 1 {
				t.Fatalf("status %v: expected inclusion", status)
			}
		}
		for _, status := range dropped {
			rec := recipient(func(r *Recipient) { r.PlanStatus = status })
			if got := FilterAudience([]Recipient{rec}, false, true); len(got) != 0 {
				t.Fatalf("status %v: expected exclusion", status)
			}
		}
	})

	t.Run("mixed list keeps order", func(t *testing.T) {
		a := recipient(func(r *Recipient) { r.Email = "a@example.com" })
		b := recipient(func(r *Recipient) { r.EmailMe = false })
		c := recipient(func(r *Recipient) { r.Email = "c@example.com" })
		got := FilterAudience([]Recipient{a, b, c}, false, false)
		if len(got) != 2 || got[0].Email != "a@example.com" || got[1].Email != "c@example.com" {
			t.Fatalf("unexpected result: %v", got)
		}
	})
}
