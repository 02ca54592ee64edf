package models

import "time"

// LeadStatus tracks a lead through the qualification funnel.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "NEW"
	LeadStatusProcessing LeadStatus = "PROCESSING"
	LeadStatusHot        LeadStatus = "HOT"
	LeadStatusConverted  LeadStatus = "CONVERTED"
	LeadStatusCold       LeadStatus = "COLD"
)

// LeadPersona is the coarse classification produced by lead analysis.
type LeadPersona string

const (
	PersonaStudent   LeadPersona = "STUDENT"
	PersonaCorporate LeadPersona = "CORPORATE"
)

// Lead represents a prospective customer in the CRM funnel.
type Lead struct {
	ID           string     `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Phone        string     `db:"phone" json:"phone"`
	Status       LeadStatus `db:"status" json:"status"`
	Score        int        `db:"score" json:"score"`
	Persona      string     `db:"persona" json:"persona"`
	SourceDomain string     `db:"source_domain" json:"source_domain"`
	AISummary    string     `db:"ai_summary" json:"ai_summary"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// LeadDetail bundles a lead with its communication history.
type LeadDetail struct {
	Lead
	Communications []Communication `json:"communications"`
}

// LeadFilter captures filtering criteria for listing leads.
type LeadFilter struct {
	Status    *LeadStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// LeadAnalysis holds the validated classification written back onto a lead.
type LeadAnalysis struct {
	Persona string `json:"persona"`
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}

// CommunicationType identifies the outreach channel.
type CommunicationType string

const (
	CommunicationEmail    CommunicationType = "EMAIL"
	CommunicationCall     CommunicationType = "CALL"
	CommunicationWhatsApp CommunicationType = "WHATSAPP"
)

// CommunicationDirection distinguishes outbound sends from inbound replies.
type CommunicationDirection string

const (
	DirectionOutbound CommunicationDirection = "OUTBOUND"
	DirectionInbound  CommunicationDirection = "INBOUND"
)

// Communication is one append-only entry in a lead's contact log.
type Communication struct {
	ID           string                 `db:"id" json:"id"`
	LeadID       string                 `db:"lead_id" json:"lead_id"`
	Type         CommunicationType      `db:"type" json:"type"`
	Direction    CommunicationDirection `db:"direction" json:"direction"`
	Content      string                 `db:"content" json:"content"`
	IsAutonomous bool                   `db:"is_autonomous" json:"is_autonomous"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
}
