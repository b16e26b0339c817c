package logging

// Standardized attribute keys. Keep these stable; operators filter on them.
const (
	FieldComponent = "component"
	FieldSiteID    = "site_id"
	FieldBadgeID   = "badge_id"
	FieldEventID   = "event_id"
	FieldAction    = "action"
	FieldTrigger   = "trigger"
)
