package domain

import "time"

// Audit action names recorded by the lifecycle services.
const (
	AuditStaffHired          = "staff.hired"
	AuditStaffPromoted       = "staff.promoted"
	AuditStaffDemoted        = "staff.demoted"
	AuditStaffFired          = "staff.fired"
	AuditCapacityBypass      = "staff.capacity_bypass"
	AuditCaseCreated         = "case.created"
	AuditCaseAccepted        = "case.accepted"
	AuditCaseDeclined        = "case.declined"
	AuditCaseClosed          = "case.closed"
	AuditLawyerAssigned      = "case.lawyer_assigned"
	AuditLawyerUnassigned    = "case.lawyer_unassigned"
	AuditLawyerReassigned    = "case.lawyer_reassigned"
	AuditLeadAttorneyChanged = "case.lead_changed"
	AuditCaseNoteAdded       = "case.note_added"
	AuditCaseDocumentAdded   = "case.document_added"
)

// AuditEntry is one append-only trail record. Entries are written inside the
// same transaction as the mutation they describe.
type AuditEntry struct {
	ID        string
	GuildID   string
	Action    string
	ActorID   string
	TargetID  string
	Before    map[string]any
	After     map[string]any
	Metadata  map[string]any
	CreatedAt time.Time
}
