package dto

import (
	"time"

	"github.com/spec-kit/firm-service/internal/domain"
)

// CreateCaseRequest payload.
type CreateCaseRequest struct {
	ClientID       string              `json:"client_id"`
	ClientUsername string              `json:"client_username"`
	Title          string              `json:"title"`
	Description    string              `json:"description"`
	Priority       domain.CasePriority `json:"priority,omitempty"`
}

// AssignLawyerRequest payload.
type AssignLawyerRequest struct {
	LawyerID string `json:"lawyer_id"`
}

// ReassignLawyerRequest payload.
type ReassignLawyerRequest struct {
	FromCaseID string `json:"from_case_id"`
	ToCaseID   string `json:"to_case_id"`
	LawyerID   string `json:"lawyer_id"`
}

// CloseCaseRequest payload.
type CloseCaseRequest struct {
	Result      domain.CaseResult `json:"result"`
	ResultNotes string            `json:"result_notes,omitempty"`
}

// DeclineCaseRequest payload.
type DeclineCaseRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Content  string `json:"content"`
	Internal bool   `json:"internal"`
}

// AddDocumentRequest payload.
type AddDocumentRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CaseResponse provides full case info.
type CaseResponse struct {
	ID                string                 `json:"id"`
	CaseNumber        string                 `json:"case_number"`
	ClientID          string                 `json:"client_id"`
	ClientUsername    string                 `json:"client_username"`
	Title             string                 `json:"title"`
	Description       string                 `json:"description"`
	Status            domain.CaseStatus      `json:"status"`
	Priority          domain.CasePriority    `json:"priority"`
	LeadAttorneyID    *string                `json:"lead_attorney_id"`
	AssignedLawyerIDs []string               `json:"assigned_lawyer_ids"`
	ChannelID         *string                `json:"channel_id"`
	Result            *domain.CaseResult     `json:"result,omitempty"`
	ResultNotes       *string                `json:"result_notes,omitempty"`
	ClosedAt          *time.Time             `json:"closed_at,omitempty"`
	ClosedBy          *string                `json:"closed_by,omitempty"`
	Documents         []CaseDocumentResponse `json:"documents"`
	Notes             []CaseNoteResponse     `json:"notes"`
	OpenedAt          time.Time              `json:"opened_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// CaseDocumentResponse metadata.
type CaseDocumentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CaseNoteResponse represents one annotation.
type CaseNoteResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}
