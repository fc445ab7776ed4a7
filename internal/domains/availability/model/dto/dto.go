package dto

import (
	"time"

	"github.com/google/uuid"

	"tempah/internal/domains/availability/model"
	"tempah/shared"
	gDto "tempah/shared/dto"
	gModel "tempah/shared/model"
	"tempah/shared/timezone"
)

type CreateSlotRequest struct {
	ProviderID       string `json:"provider_id"        validate:"required"`
	ServiceListingID string `json:"service_listing_id" validate:"required"`
	SlotDate         string `json:"slot_date"          validate:"required"`
	StartTime        string `json:"start_time"         validate:"required"`
	EndTime          string `json:"end_time"           validate:"required"`
}

func (c *CreateSlotRequest) ToModel(user string) (model.Slot, error) {
	slotDate, err := timezone.Parse("2006-01-02", c.SlotDate)
	if err != nil {
		return model.Slot{}, err
	}

	start, err := combine(slotDate, c.StartTime)
	if err != nil {
		return model.Slot{}, err
	}

	end, err := combine(slotDate, c.EndTime)
	if err != nil {
		return model.Slot{}, err
	}

	return model.Slot{
		ID:               uuid.NewString(),
		ProviderID:       c.ProviderID,
		ServiceListingID: c.ServiceListingID,
		SlotDate:         slotDate,
		StartTime:        start,
		EndTime:          end,
		IsAvailable:      true,
		IsBooked:         false,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}, nil
}

func combine(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

type ListOpenSlotsRequest struct {
	ProviderID string `json:"provider_id" validate:"required"`
	FromDate   string `json:"from_date"   validate:"omitempty"`
	ToDate     string `json:"to_date"     validate:"omitempty"`
}

type SlotResponse struct {
	ID               string `json:"id"`
	ProviderID       string `json:"provider_id"`
	ServiceListingID string `json:"service_listing_id"`
	SlotDate         string `json:"slot_date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	IsAvailable      bool   `json:"is_available"`
	IsBooked         bool   `json:"is_booked"`
	BookingRef       string `json:"booking_ref,omitempty"`
	gDto.Metadata
}

func (r *SlotResponse) FromModel(model model.Slot) {
	r.ID = model.ID
	r.ProviderID = model.ProviderID
	r.ServiceListingID = model.ServiceListingID
	r.SlotDate = model.SlotDate.Format("2006-01-02")
	r.StartTime = model.StartTime.Format("15:04")
	r.EndTime = model.EndTime.Format("15:04")
	r.IsAvailable = model.IsAvailable
	r.IsBooked = model.IsBooked

	if model.BookingRef != nil {
		r.BookingRef = *model.BookingRef
	}

	r.Metadata.FromModel(model.Metadata)
}

type GetSlotsResponse struct {
	Slots     []SlotResponse `json:"slots"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetSlotsResponse) FromModels(models []model.Slot, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Slots = make([]SlotResponse, len(models))
	for i, mod := range models {
		r.Slots[i].FromModel(mod)
	}
}
