package domain

import "time"

// CaseStatus enumerates lifecycle states for cases.
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "PENDING"
	CaseStatusInProgress CaseStatus = "IN_PROGRESS"
	CaseStatusClosed     CaseStatus = "CLOSED"
)

// CasePriority enumerates urgency.
type CasePriority string

const (
	CasePriorityLow    CasePriority = "LOW"
	CasePriorityMedium CasePriority = "MEDIUM"
	CasePriorityHigh   CasePriority = "HIGH"
	CasePriorityUrgent CasePriority = "URGENT"
)

// CaseResult enumerates closure outcomes.
type CaseResult string

const (
	CaseResultWin        CaseResult = "WIN"
	CaseResultLoss       CaseResult = "LOSS"
	CaseResultSettlement CaseResult = "SETTLEMENT"
	CaseResultDismissed  CaseResult = "DISMISSED"
	CaseResultWithdrawn  CaseResult = "WITHDRAWN"
)

// ValidResult reports whether the value is a known closure outcome.
func ValidResult(r CaseResult) bool {
	switch r {
	case CaseResultWin, CaseResultLoss, CaseResultSettlement, CaseResultDismissed, CaseResultWithdrawn:
		return true
	}
	return false
}

// CaseDocument is an attachment reference on a case.
type CaseDocument struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseNote is a free-form annotation on a case.
type CaseNote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// Case is the aggregate for client matters.
//
// Invariants: LeadAttorneyID, when set, is always a member of
// AssignedLawyerIDs; a closed case always carries Result, ClosedAt and
// ClosedBy; closing happens exactly once. AssignedLawyerIDs preserves
// assignment order, which is what lead succession keys off.
type Case struct {
	ID                string
	GuildID           string
	CaseNumber        string
	ClientID          string
	ClientUsername    string
	Title             string
	Description       string
	Status            CaseStatus
	Priority          CasePriority
	LeadAttorneyID    *string
	AssignedLawyerIDs []string
	ChannelID         *string
	Result            *CaseResult
	ResultNotes       *string
	ClosedAt          *time.Time
	ClosedBy          *string
	Documents         []CaseDocument
	Notes             []CaseNote
	OpenedAt          time.Time
	UpdatedAt         time.Time
}

// IsClosed reports whether the case reached its terminal state.
func (c *Case) IsClosed() bool {
	return c != nil && c.Status == CaseStatusClosed
}

// IsAssigned reports whether the lawyer holds an assignment slot.
func (c *Case) IsAssigned(lawyerID string) bool {
	for _, id := range c.AssignedLawyerIDs {
		if id == lawyerID {
			return true
		}
	}
	return false
}

// CaseCounter is the per-guild, per-year source of case sequence numbers.
type CaseCounter struct {
	GuildID string
	Year    int
	Count   int
}
