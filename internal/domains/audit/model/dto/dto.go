package dto

import (
	"tempah/internal/domains/audit/model"
	"tempah/shared"
	"tempah/shared/constant"
	"tempah/shared/timezone"
)

type SearchAuditsRequest struct {
	BookingID string `json:"booking_id" validate:"omitempty"`
	Actor     string `json:"actor"      validate:"omitempty"`
	Action    string `json:"action"     validate:"omitempty,oneof=CREATE CONFIRM START COMPLETE CANCEL"`
	Role      string `json:"role"       validate:"omitempty,oneof=CUSTOMER PROVIDER ADMIN SYSTEM"`
	From      string `json:"from"       validate:"omitempty"`
	To        string `json:"to"         validate:"omitempty"`
	Search    string `json:"search"     validate:"omitempty"`
}

type AuditResponse struct {
	ID                string `json:"id"`
	BookingID         string `json:"booking_id"`
	Action            string `json:"action"`
	PerformedByUserID string `json:"performed_by_user_id"`
	PerformedByRole   string `json:"performed_by_role"`
	OldValue          string `json:"old_value,omitempty"`
	NewValue          string `json:"new_value,omitempty"`
	Comments          string `json:"comments,omitempty"`
	PerformedAt       string `json:"performed_at"`
}

func (r *AuditResponse) FromModel(model model.Audit) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.Action = model.Action
	r.PerformedByUserID = model.PerformedByUserID
	r.PerformedByRole = model.PerformedByRole
	r.OldValue = model.OldValue
	r.NewValue = model.NewValue
	r.Comments = model.Comments
	r.PerformedAt = timezone.Format(model.PerformedAt, constant.DateFormat)
}

type GetAuditsResponse struct {
	Audits    []AuditResponse `json:"audits"`
	TotalPage int             `json:"total_page"`
	TotalData int             `json:"total_data"`
}

func (r *GetAuditsResponse) FromModels(models []model.Audit, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Audits = make([]AuditResponse, len(models))
	for i, mod := range models {
		r.Audits[i].FromModel(mod)
	}
}
