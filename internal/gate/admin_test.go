package gate

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/warden/internal/domain"
	"github.com/MrSnakeDoc/warden/internal/logger"
	"github.com/MrSnakeDoc/warden/internal/registry"
)

func newTestAdmin(pols ...domain.ServicePolicy) (*Admin, *memStore, *registry.Registry) {
	log := logger.New("error", false)
	reg := registry.New(log)
	for _, pol := range pols {
		reg.Register(pol)
	}
	store := newMemStore()
	return NewAdmin(reg, store, log), store, reg
}

func TestAdminEnableBatch(t *testing.T) {
	admin, store, _ := newTestAdmin(
		domain.ServicePolicy{Identity: "demo.ping", EnableOnDefault: false},
		domain.ServicePolicy{Identity: "weather.forecast", EnableOnDefault: false},
	)

	res := admin.Enable(context.Background(), 42, []string{"ping", "nosuch"})

	if diff := cmp.Diff([]string{"ping"}, res.Succeeded); diff != "" {
		t.Errorf("Succeeded mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"nosuch"}, res.Failed); diff != "" {
		t.Errorf("Failed mismatch (-want +got):\n%s", diff)
	}

	rec := store.records["demo.ping"]
	if rec == nil || len(rec.EnableGroups) != 1 || rec.EnableGroups[0] != 42 {
		t.Errorf("enable override not persisted: %+v", rec)
	}
	if _, touched := store.records["weather.forecast"]; touched {
		t.Error("unrelated service was touched")
	}
}

func TestAdminDisableThenEnable(t *testing.T) {
	admin, store, _ := newTestAdmin(
		domain.ServicePolicy{Identity: "demo.ping", EnableOnDefault: true},
	)
	ctx := context.Background()

	admin.Disable(ctx, 42, []string{"ping"})
	admin.Enable(ctx, 42, []string{"ping"})

	rec := store.records["demo.ping"]
	if diff := cmp.Diff([]int64{42}, rec.EnableGroups); diff != "" {
		t.Errorf("EnableGroups mismatch (-want +got):\n%s", diff)
	}
	if len(rec.DisableGroups) != 0 {
		t.Errorf("DisableGroups = %v, want empty", rec.DisableGroups)
	}
}

func TestAdminBulkKeyword(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
	}{
		{name: "english", keyword: "all"},
		{name: "capitalized", keyword: "All"},
		{name: "chinese", keyword: "全部"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin, store, _ := newTestAdmin(
				domain.ServicePolicy{Identity: "demo.ping"},
				domain.ServicePolicy{Identity: "weather.forecast"},
				domain.ServicePolicy{Identity: "news.daily", Kind: domain.KindScheduled},
			)

			res := admin.Disable(context.Background(), 42, []string{tt.keyword})

			if len(res.Failed) != 0 {
				t.Errorf("bulk disable reported failures: %v", res.Failed)
			}
			for _, identity := range []string{"demo.ping", "weather.forecast", "news.daily"} {
				rec := store.records[identity]
				if rec == nil || len(rec.DisableGroups) != 1 {
					t.Errorf("bulk disable missed %s: %+v", identity, rec)
				}
			}
		})
	}
}

func TestAdminEmptyBatch(t *testing.T) {
	admin, store, _ := newTestAdmin(domain.ServicePolicy{Identity: "demo.ping"})

	res := admin.Enable(context.Background(), 42, nil)
	if len(res.Succeeded) != 0 || len(res.Failed) != 0 {
		t.Errorf("empty batch result = %+v, want empty", res)
	}
	if len(store.records) != 0 {
		t.Error("empty batch touched the store")
	}
}
