package handlers

import (
	"encoding/json"

	"vn.io.arda/console-sync/internal/domain"
)

func init() {
	RegisterDirect(CacheCommandsTopic, handleCacheCommand)
}

// handleCacheCommand lets operators invalidate kinds directly, e.g. after a
// bulk import that emitted no per-entity events.
func handleCacheCommand(data []byte) *domain.Invalidation {
	var cmd struct {
		CommandID        string   `json:"commandId"`
		Kinds            []string `json:"kinds"`
		RefreshAggregate bool     `json:"refreshAggregate"`
		Reason           string   `json:"reason"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil
	}

	inv := &domain.Invalidation{
		RefreshAggregate: cmd.RefreshAggregate,
		SourceEventID:    cmd.CommandID,
		Reason:           cmd.Reason,
	}
	for _, k := range cmd.Kinds {
		if kind := domain.Kind(k); kind.Valid() {
			inv.Kinds = append(inv.Kinds, kind)
		}
	}
	if len(inv.Kinds) == 0 && !inv.RefreshAggregate {
		return nil
	}
	return inv
}
