package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/warden/internal/access"
	"github.com/MrSnakeDoc/warden/internal/httpserver/deps"
)

type serviceEntry struct {
	Identity        string `json:"identity"`
	Kind            string `json:"kind"`
	Cooldown        int    `json:"cd,omitempty"`
	Limit           int    `json:"limit,omitempty"`
	EnableOnDefault bool   `json:"enable_on_default"`
	Help            string `json:"help,omitempty"`
	Enabled         *bool  `json:"enabled,omitempty"` // only set when ?group= is given
}

type servicesResponse struct {
	Services []serviceEntry `json:"services"`
	Group    int64          `json:"group,omitempty"`
}

// Services lists the visible registered services. An optional ?group=ID
// query resolves the enabled state of each service for that group.
func Services(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		var groupID int64
		withGroup := false
		if raw := r.URL.Query().Get("group"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "invalid group parameter",
				})
				return
			}
			groupID = id
			withGroup = true
		}

		policies := d.Registry.ListVisible()
		entries := make([]serviceEntry, 0, len(policies))
		for _, pol := range policies {
			entry := serviceEntry{
				Identity:        pol.Identity,
				Kind:            string(pol.Kind),
				Cooldown:        pol.Cooldown,
				Limit:           pol.Limit,
				EnableOnDefault: pol.EnableOnDefault,
				Help:            pol.Help,
			}
			if withGroup {
				rec := d.Records.Load(r.Context(), pol.Identity)
				enabled := access.EnabledInGroup(rec, pol, groupID)
				entry.Enabled = &enabled
			}
			entries = append(entries, entry)
		}

		resp := servicesResponse{Services: entries}
		if withGroup {
			resp.Group = groupID
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
