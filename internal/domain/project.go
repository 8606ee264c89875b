// Package domain holds the records shared by the store, the generation
// pipeline and the surfaces that drive it.
package domain

import (
	"fmt"
	"time"
)

// Priority of a project.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status of a project.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ParsePriority validates a priority string. Empty means medium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(s) {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), nil
	}
	return "", fmt.Errorf("invalid priority %q (want low|medium|high)", s)
}

// ParseStatus validates a status string. Empty means draft.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusDraft, nil
	case StatusDraft, StatusActive, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status %q (want draft|active|completed)", s)
}

// Project is a lead or campaign owned by exactly one user.
type Project struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id" validate:"required"`
	Name           string    `json:"name" db:"name" validate:"required,max=200"`
	Description    string    `json:"description" db:"description"`
	LeadSource     string    `json:"lead_source" db:"lead_source"`
	Priority       Priority  `json:"priority" db:"priority" validate:"oneof=low medium high"`
	Status         Status    `json:"status" db:"status" validate:"oneof=draft active completed"`
	Progress       int       `json:"progress" db:"progress" validate:"gte=0,lte=100"`
	ContextSummary string    `json:"context_summary" db:"context_summary"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectPatch carries the mutable fields of a project; nil fields are left as-is.
type ProjectPatch struct {
	Name           *string   `json:"name,omitempty"`
	Description    *string   `json:"description,omitempty"`
	LeadSource     *string   `json:"lead_source,omitempty"`
	Priority       *Priority `json:"priority,omitempty"`
	Status         *Status   `json:"status,omitempty"`
	Progress       *int      `json:"progress,omitempty"`
	ContextSummary *string   `json:"context_summary,omitempty"`
}

// Apply copies the set fields of the patch onto p.
func (pp ProjectPatch) Apply(p *Project) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.LeadSource != nil {
		p.LeadSource = *pp.LeadSource
	}
	if pp.Priority != nil {
		p.Priority = *pp.Priority
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.Progress != nil {
		p.Progress = *pp.Progress
	}
	if pp.ContextSummary != nil {
		p.ContextSummary = *pp.ContextSummary
	}
}
