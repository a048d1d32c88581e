package handlers

import (
	"encoding/json"

	"onsalenow.io/analytics/internal/domain"
)

func init() {
	RegisterDirect("analytics-commands", handleDirectCommand)
}

// handleDirectCommand accepts {"commandId", "reason"} and always requests a pass.
func handleDirectCommand(data []byte) *domain.SnapshotChange {
	var cmd struct {
		CommandID string `json:"commandId"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil
	}
	return &domain.SnapshotChange{
		Source:    domain.SourceCommand,
		EventType: "EVALUATE",
		EventID:   cmd.CommandID,
		Reason:    cmd.Reason,
	}
}
