package access

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/warden/internal/domain"
)

func testPolicy(cd, limit int, enableOnDefault bool) domain.ServicePolicy {
	return domain.ServicePolicy{
		Identity:        "demo.ping",
		Kind:            domain.KindHandler,
		Cooldown:        cd,
		Limit:           limit,
		EnableOnDefault: enableOnDefault,
	}
}

func TestEnabledInGroupDefault(t *testing.T) {
	rec := domain.NewServiceRecord("demo.ping")

	// With empty override sets the policy default decides, whatever the group.
	for _, groupID := range []int64{1, 42, 9999} {
		if !EnabledInGroup(rec, testPolicy(0, 0, true), groupID) {
			t.Errorf("EnabledInGroup(default=true, group=%d) = false, want true", groupID)
		}
		if EnabledInGroup(rec, testPolicy(0, 0, false), groupID) {
			t.Errorf("EnabledInGroup(default=false, group=%d) = true, want false", groupID)
		}
	}
}

func TestEnableDisableOverride(t *testing.T) {
	tests := []struct {
		name            string
		enableOnDefault bool
	}{
		{name: "default enabled", enableOnDefault: true},
		{name: "default disabled", enableOnDefault: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pol := testPolicy(0, 0, tt.enableOnDefault)
			rec := domain.NewServiceRecord("demo.ping")

			Enable(rec, 42)
			if !EnabledInGroup(rec, pol, 42) {
				t.Error("EnabledInGroup after Enable = false, want true")
			}

			Disable(rec, 42)
			if EnabledInGroup(rec, pol, 42) {
				t.Error("EnabledInGroup after Disable = true, want false")
			}
		})
	}
}

func TestEnableDisableConvergence(t *testing.T) {
	rec := domain.NewServiceRecord("demo.ping")

	// enable -> disable -> enable must converge to exactly one enable
	// override and no disable override.
	Enable(rec, 42)
	Disable(rec, 42)
	Enable(rec, 42)

	if diff := cmp.Diff([]int64{42}, rec.EnableGroups); diff != "" {
		t.Errorf("EnableGroups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{}, rec.DisableGroups); diff != "" {
		t.Errorf("DisableGroups mismatch (-want +got):\n%s", diff)
	}
}

func TestEnableIsIdempotent(t *testing.T) {
	rec := domain.NewServiceRecord("demo.ping")

	Enable(rec, 42)
	Enable(rec, 42)

	if len(rec.EnableGroups) != 1 {
		t.Errorf("EnableGroups has %d entries, want 1", len(rec.EnableGroups))
	}
}

func TestCooldownFlow(t *testing.T) {
	pol := testPolicy(10, 0, true)
	rec := domain.NewServiceRecord("demo.ping")
	base := time.Unix(100, 0)

	// Missing entry: always allowed.
	if ok, _ := CheckCooldown(rec, pol, 7, 42, base); !ok {
		t.Fatal("CheckCooldown with no stored state = denied, want allowed")
	}

	CommitCooldown(rec, pol, 7, 42, base)

	ok, retry := CheckCooldown(rec, pol, 7, 42, base.Add(5*time.Second))
	if ok {
		t.Error("CheckCooldown at t+5s = allowed, want denied")
	}
	if retry != 5*time.Second {
		t.Errorf("retryAfter = %v, want 5s", retry)
	}

	if ok, _ := CheckCooldown(rec, pol, 7, 42, base.Add(10*time.Second)); !ok {
		t.Error("CheckCooldown at t+10s = denied, want allowed")
	}
}

func TestCooldownDisabledPolicy(t *testing.T) {
	pol := testPolicy(0, 0, true)
	rec := domain.NewServiceRecord("demo.ping")
	now := time.Unix(100, 0)

	CommitCooldown(rec, pol, 7, 42, now)

	// cd == 0 always allows, stored state is not consulted.
	if ok, _ := CheckCooldown(rec, pol, 7, 42, now); !ok {
		t.Error("CheckCooldown with cd=0 = denied, want allowed")
	}
}

func TestCooldownIsolatedPerGroupAndUser(t *testing.T) {
	pol := testPolicy(10, 0, true)
	rec := domain.NewServiceRecord("demo.ping")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	CommitCooldown(rec, pol, 7, 42, now)

	if ok, _ := CheckCooldown(rec, pol, 8, 42, now); !ok {
		t.Error("cooldown of user 7 leaked to user 8")
	}
	if ok, _ := CheckCooldown(rec, pol, 7, 43, now); !ok {
		t.Error("cooldown in group 42 leaked to group 43")
	}
	// Private context uses the "0" sentinel key.
	if ok, _ := CheckCooldown(rec, pol, 7, 0, now); !ok {
		t.Error("cooldown in group 42 leaked to private context")
	}
}

func TestLimitFlow(t *testing.T) {
	pol := testPolicy(0, 3, true)
	rec := domain.NewServiceRecord("demo.ping")
	dayD := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ok, remaining := CheckLimit(rec, pol, 7, 42, dayD)
		if !ok {
			t.Fatalf("CheckLimit call %d = denied, want allowed", i+1)
		}
		if remaining != 3-i {
			t.Errorf("remaining before commit %d = %d, want %d", i+1, remaining, 3-i)
		}
		CommitLimit(rec, pol, 7, 42, dayD.Add(time.Duration(i)*time.Minute))
	}

	if got := rec.Usage["42"]["7"].Count; got != 3 {
		t.Errorf("stored count = %d, want 3", got)
	}

	if ok, _ := CheckLimit(rec, pol, 7, 42, dayD.Add(time.Hour)); ok {
		t.Error("fourth CheckLimit on day D = allowed, want denied")
	}

	// Next calendar day: allowed regardless of the stored count, and
	// the following commit resets the window to 1.
	dayD1 := dayD.AddDate(0, 0, 1)
	ok, remaining := CheckLimit(rec, pol, 7, 42, dayD1)
	if !ok {
		t.Fatal("CheckLimit on day D+1 = denied, want allowed")
	}
	if remaining != 3 {
		t.Errorf("remaining on day D+1 = %d, want 3", remaining)
	}

	CommitLimit(rec, pol, 7, 42, dayD1)
	if got := rec.Usage["42"]["7"].Count; got != 1 {
		t.Errorf("count after reset commit = %d, want 1", got)
	}
}

func TestLimitDisabledPolicy(t *testing.T) {
	pol := testPolicy(0, 0, true)
	rec := domain.NewServiceRecord("demo.ping")
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	if ok, _ := CheckLimit(rec, pol, 7, 42, now); !ok {
		t.Error("CheckLimit with limit=0 = denied, want allowed")
	}
}

func TestLimitWindowResetAcrossMonths(t *testing.T) {
	pol := testPolicy(0, 1, true)
	rec := domain.NewServiceRecord("demo.ping")

	// Exhaust the quota on March 30th.
	mar30 := time.Date(2026, 3, 30, 23, 0, 0, 0, time.UTC)
	CommitLimit(rec, pol, 7, 42, mar30)
	if ok, _ := CheckLimit(rec, pol, 7, 42, mar30); ok {
		t.Fatal("CheckLimit after exhausting quota = allowed, want denied")
	}

	// April 30th shares the day-of-month number but is a different
	// calendar date, so the window has expired.
	apr30 := time.Date(2026, 4, 30, 9, 0, 0, 0, time.UTC)
	if ok, _ := CheckLimit(rec, pol, 7, 42, apr30); !ok {
		t.Error("CheckLimit a month later = denied, want allowed")
	}

	// Month boundary: March 31 -> April 1.
	mar31 := time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)
	apr1 := time.Date(2026, 4, 1, 0, 1, 0, 0, time.UTC)
	rec2 := domain.NewServiceRecord("demo.ping")
	CommitLimit(rec2, pol, 7, 42, mar31)
	if ok, _ := CheckLimit(rec2, pol, 7, 42, apr1); !ok {
		t.Error("CheckLimit just past midnight on April 1st = denied, want allowed")
	}
}

func TestExempt(t *testing.T) {
	tests := []struct {
		name string
		ev   domain.Event
		want bool
	}{
		{
			name: "group member message",
			ev:   domain.Event{Kind: domain.KindMessage, UserID: 7, GroupID: 42, Role: domain.RoleMember},
			want: false,
		},
		{
			name: "group admin message",
			ev:   domain.Event{Kind: domain.KindMessage, UserID: 7, GroupID: 42, Role: domain.RoleAdmin},
			want: true,
		},
		{
			name: "group owner notify",
			ev:   domain.Event{Kind: domain.KindNotify, UserID: 7, GroupID: 42, Role: domain.RoleOwner},
			want: true,
		},
		{
			name: "meta event",
			ev:   domain.Event{Kind: domain.KindMeta},
			want: true,
		},
		{
			name: "private message",
			ev:   domain.Event{Kind: domain.KindMessage, UserID: 7},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Exempt(tt.ev); got != tt.want {
				t.Errorf("Exempt() = %v, want %v", got, tt.want)
			}
		})
	}
}
