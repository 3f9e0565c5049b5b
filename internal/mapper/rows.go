// Package mapper turns rows read from the store into domain entities.
//
// Row types mirror the table columns with every nullable column as a
// pointer. Child collections are aggregated by the query into JSON arrays;
// the Decode functions parse them and report malformed input as an error,
// while the Map functions are total: any row, however incomplete, maps to a
// fully populated entity with defaults filled in.
package mapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type OrganizationRow struct {
	ID           string
	Name         *string
	ProjectStage *string
	HealthStatus *string
	StartDate    *time.Time
	TargetGoLive *time.Time
	ActualGoLive *time.Time
	Branding     []byte
	ContactEmail *string
	CreatedAt    *time.Time
}

type ProfileRow struct {
	ID             string
	FullName       *string
	Role           *string
	OrganizationID *string
	CreatedAt      *time.Time
}

type ModuleRow struct {
	ID             string
	OrganizationID *string
	Name           *string
	Description    *string
	Status         *string
	Icon           *string
	Owner          *string
	Responsibles   *string
	Progress       *int32
	Features       []FeatureRow
}

type FeatureRow struct {
	Name   *string `json:"name"`
	Status *string `json:"status"`
}

type TimelineEventRow struct {
	ID              string
	OrganizationID  *string
	Phase           *string
	DateRange       *string
	Status          *string
	Description     *string
	ModulesIncluded []string
	Tasks           []TaskRow
}

type TaskRow struct {
	ID     *string `json:"id"`
	Title  *string `json:"title"`
	Status *string `json:"status"`
	Week   *string `json:"week"`
}

type TicketRow struct {
	ID             string
	OrganizationID *string
	Title          *string
	Description    *string
	ModuleID       *string
	ModuleName     *string
	Priority       *string
	Status         *string
	Requester      *string
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
	Updates        []TicketUpdateRow
}

// TicketUpdateRow is one aggregated log entry. Seq is the store's append
// counter; it orders entries whose dates are equal.
type TicketUpdateRow struct {
	ID      *string    `json:"id"`
	Seq     *int64     `json:"seq"`
	Author  *string    `json:"author"`
	Date    *time.Time `json:"date"`
	Message *string    `json:"message"`
	Type    *string    `json:"type"`
}

type ActionItemRow struct {
	ID             string
	OrganizationID *string
	Task           *string
	AssignedTo     *string
	DueDate        *string
	IsCritical     *bool
	Status         *string
}

type FaqRow struct {
	ID             string
	OrganizationID *string
	Question       *string
	Answer         *string
	Category       *string
}

type TutorialRow struct {
	ID             string
	OrganizationID *string
	Title          *string
	Duration       *string
	Type           *string
	ThumbnailColor *string
}

type CustomDevelopmentRow struct {
	ID             string
	OrganizationID *string
	Title          *string
	Description    *string
	RequestedBy    *string
	Status         *string
	DeliveryDate   *string
}

type DirectoryUserRow struct {
	ID             string
	OrganizationID *string
	Name           *string
	Email          *string
	Role           *string
	Department     *string
	JobTitle       *string
	Phone          *string
	Avatar         *string
}

type NotificationRow struct {
	ID        string
	UserID    *string
	Title     *string
	Message   *string
	Type      *string
	IsRead    *bool
	Link      *string
	CreatedAt *time.Time
}

// DecodeFeatures parses a json_agg of feature rows.
func DecodeFeatures(raw []byte) ([]FeatureRow, error) {
	return decodeChildren[FeatureRow]("features", raw)
}

// DecodeTasks parses a json_agg of timeline task rows.
func DecodeTasks(raw []byte) ([]TaskRow, error) {
	return decodeChildren[TaskRow]("tasks", raw)
}

// DecodeTicketUpdates parses a json_agg of ticket update rows.
func DecodeTicketUpdates(raw []byte) ([]TicketUpdateRow, error) {
	return decodeChildren[TicketUpdateRow]("ticket updates", raw)
}

// decodeChildren treats absent, empty and JSON null input as an empty
// collection. The result is never nil.
func decodeChildren[T any](what string, raw []byte) ([]T, error) {
	out := make([]T, 0)
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return make([]T, 0), fmt.Errorf("decode %s: %w", what, err)
	}
	if out == nil {
		out = make([]T, 0)
	}
	return out, nil
}
