package domain

// ChangeSource names the collection whose snapshot changed.
type ChangeSource string

const (
	SourceProducts ChangeSource = "products"
	SourceSellers  ChangeSource = "sellers"
	SourceCommand  ChangeSource = "command"
)

// SnapshotChange announces that seller or product data changed and the
// sell-through state must be re-evaluated.
type SnapshotChange struct {
	Source    ChangeSource
	EventType string
	EventID   string
	// EntityID is the product or seller id, when known.
	EntityID string
	// Reason is free text from direct commands.
	Reason string
}
