// Package auditlog records every privileged mutation and can replay the
// inverse of a recorded mutation. Entries are append-only; the only permitted
// update is setting the reverted marker, exactly once.
package auditlog

import (
	"time"

	id "reguard/pkg/domain"
)

// EntryID is a monotonically increasing log identifier. It totally orders the
// trail for a tenant independent of wall-clock timestamp ties.
type EntryID int64

// EventType tags the operation an entry describes.
type EventType string

const (
	EventRuleUpdated          EventType = "applicability_rule_updated"
	EventOverrideAdded        EventType = "applicability_override_added"
	EventOverrideRemoved      EventType = "applicability_override_removed"
	EventOrgAttributesUpdated EventType = "organization_attributes_updated"
	EventRollback             EventType = "rollback"
)

// EventCategory classifies audit events by their primary purpose.
// Compliance events require long retention; operations events feed the
// in-process sink and can be sampled.
type EventCategory string

const (
	CategoryCompliance EventCategory = "compliance"
	CategorySecurity   EventCategory = "security"
	CategoryOperations EventCategory = "operations"
)

var eventCategories = map[EventType]EventCategory{
	EventRuleUpdated:          CategoryCompliance,
	EventOverrideAdded:        CategoryCompliance,
	EventOverrideRemoved:      CategoryCompliance,
	EventOrgAttributesUpdated: CategoryCompliance,
	EventRollback:             CategoryCompliance,
}

// Category returns the EventCategory for this event type.
// Unknown events default to CategoryOperations.
func (e EventType) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// ResourceType tags the kind of resource a mutation touched. Rollback
// dispatches on it through the applier registry.
type ResourceType string

const (
	ResourceApplicabilityRule    ResourceType = "applicability_rule"
	ResourceApplicabilityMapping ResourceType = "applicability_mapping"
	ResourceOrganization         ResourceType = "organization"
)

// FieldChange captures one touched field as serialized scalars. Compound
// values serialize to JSON under a single field name; the literal "none"
// marks an absent value. This keeps the payload self-describing so the
// rollback path can apply it without knowing the originating service.
type FieldChange struct {
	Field string `json:"field"`
	Prior string `json:"prior"`
	New   string `json:"new"`
}

// ChangeByField finds the change recorded for one field name.
func ChangeByField(changes []FieldChange, field string) (FieldChange, bool) {
	for _, c := range changes {
		if c.Field == field {
			return c, true
		}
	}
	return FieldChange{}, false
}

// Metadata is the optional request context recorded with an entry.
type Metadata struct {
	IP        string `json:"ip,omitempty"`
	Client    string `json:"client,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Entry is one immutable audit record.
type Entry struct {
	ID           EntryID
	TenantID     id.TenantID
	ActorID      id.UserID
	EventType    EventType
	ResourceType ResourceType
	ResourceID   string
	Changes      []FieldChange
	Metadata     Metadata
	CreatedAt    time.Time
	RevertedAt   *time.Time
}

// Reverted reports whether a rollback has consumed this entry.
func (e *Entry) Reverted() bool { return e.RevertedAt != nil }

// Record is the caller-supplied part of an entry; actor, tenant, metadata and
// timestamp come from the operation context.
type Record struct {
	EventType    EventType
	ResourceType ResourceType
	ResourceID   string
	Changes      []FieldChange
}
