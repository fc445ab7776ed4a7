package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tempah/infras/otel/mocks"
	auditMocks "tempah/internal/domains/audit/mocks"
	"tempah/internal/domains/audit/model"
	"tempah/internal/domains/audit/model/dto"
	"tempah/internal/domains/audit/service"
	gDto "tempah/shared/dto"
	"tempah/shared/timezone"
)

func newAuditService(t *testing.T) (service.Audit, *auditMocks.MockAudit) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockRepo := auditMocks.NewMockAudit(ctrl)

	return service.New(mockRepo, mocks.NewOtel()), mockRepo
}

func trailRows() []model.Audit {
	base := timezone.Now().Add(-2 * time.Hour)

	return []model.Audit{
		{ID: "audit-1", BookingID: "booking-1", Action: "CREATE", PerformedByRole: "CUSTOMER", PerformedAt: base},
		{ID: "audit-2", BookingID: "booking-1", Action: "CONFIRM", PerformedByRole: "PROVIDER", PerformedAt: base.Add(time.Hour)},
	}
}

func TestAuditService_Trail(t *testing.T) {
	t.Run("returns the booking trail in chronological order", func(t *testing.T) {
		svc, mockRepo := newAuditService(t)

		mockRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Audit, error) {
				assert.Equal(t, model.FieldPerformedAt, params.SortBy)
				assert.Equal(t, gDto.SortDirAsc, params.SortDir)
				return trailRows(), nil
			})

		res, err := svc.Trail(context.Background(), "booking-1")

		require.NoError(t, err)
		require.Len(t, res.Audits, 2)
		assert.Equal(t, "CREATE", res.Audits[0].Action)
		assert.Equal(t, "CONFIRM", res.Audits[1].Action)
	})

	t.Run("propagates repository failure", func(t *testing.T) {
		svc, mockRepo := newAuditService(t)

		mockRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("database error"))

		_, err := svc.Trail(context.Background(), "booking-1")

		assert.Error(t, err)
	})
}

func TestAuditService_Search(t *testing.T) {
	t.Run("defaults to newest first", func(t *testing.T) {
		svc, mockRepo := newAuditService(t)

		mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
		mockRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Audit, error) {
				assert.Equal(t, model.FieldPerformedAt, params.SortBy)
				assert.Equal(t, gDto.SortDirDesc, params.SortDir)
				return trailRows(), nil
			})

		res, err := svc.Search(context.Background(), dto.SearchAuditsRequest{Action: "CREATE"}, gDto.QueryParams{})

		require.NoError(t, err)
		assert.Equal(t, 2, res.TotalData)
	})

	t.Run("propagates count failure", func(t *testing.T) {
		svc, mockRepo := newAuditService(t)

		mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, errors.New("database error"))

		_, err := svc.Search(context.Background(), dto.SearchAuditsRequest{}, gDto.QueryParams{})

		assert.Error(t, err)
	})
}
