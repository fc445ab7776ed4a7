package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tempah/config"
	"tempah/infras/otel/mocks"
	pgMocks "tempah/infras/postgres/mocks"
	availMocks "tempah/internal/domains/availability/mocks"
	"tempah/internal/domains/availability/model"
	"tempah/internal/domains/availability/model/dto"
	"tempah/internal/domains/availability/service"
	cacheMocks "tempah/shared/cache/mocks"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/failure"
	"tempah/shared/timezone"
)

func newAvailabilityService(t *testing.T) (service.Availability, *availMocks.MockAvailability, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := availMocks.NewMockAvailability(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.SlotWindowDays = 10

	svc := service.New(mockRepo, pgMocks.NewTransactor(), cfg, mockCache, mocks.NewOtel())

	return svc, mockRepo, mockCache
}

func TestAvailabilityService_Create(t *testing.T) {
	tomorrow := timezone.Now().AddDate(0, 0, 1).Format("2006-01-02")

	validReq := dto.CreateSlotRequest{
		ProviderID:       "provider-1",
		ServiceListingID: "listing-1",
		SlotDate:         tomorrow,
		StartTime:        "09:00",
		EndTime:          "11:00",
	}

	tests := []struct {
		name      string
		req       dto.CreateSlotRequest
		setupMock func(repo *availMocks.MockAvailability)
		wantKind  failure.Kind
		wantErr   bool
	}{
		{
			name: "creates a bookable slot under the provider lock",
			req:  validReq,
			setupMock: func(repo *availMocks.MockAvailability) {
				gomock.InOrder(
					repo.EXPECT().
						LockProviderTx(gomock.Any(), gomock.Any(), "provider-1").
						Return(nil),
					repo.EXPECT().
						OverlappingOpenExistsTx(gomock.Any(), gomock.Any(), "provider-1", gomock.Any(), gomock.Any()).
						Return(false, nil),
					repo.EXPECT().
						InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
						Return(nil),
				)
			},
		},
		{
			name: "rejects an unparseable date",
			req: dto.CreateSlotRequest{
				ProviderID:       "provider-1",
				ServiceListingID: "listing-1",
				SlotDate:         "not-a-date",
				StartTime:        "09:00",
				EndTime:          "11:00",
			},
			setupMock: func(*availMocks.MockAvailability) {},
			wantErr:   true,
		},
		{
			name: "rejects an inverted time window",
			req: dto.CreateSlotRequest{
				ProviderID:       "provider-1",
				ServiceListingID: "listing-1",
				SlotDate:         tomorrow,
				StartTime:        "11:00",
				EndTime:          "09:00",
			},
			setupMock: func(*availMocks.MockAvailability) {},
			wantErr:   true,
		},
		{
			name: "rejects overlap with an existing open slot",
			req:  validReq,
			setupMock: func(repo *availMocks.MockAvailability) {
				repo.EXPECT().
					LockProviderTx(gomock.Any(), gomock.Any(), "provider-1").
					Return(nil)
				repo.EXPECT().
					OverlappingOpenExistsTx(gomock.Any(), gomock.Any(), "provider-1", gomock.Any(), gomock.Any()).
					Return(true, nil)
			},
			wantKind: failure.KindBookingConflict,
			wantErr:  true,
		},
		{
			name: "propagates lock failure",
			req:  validReq,
			setupMock: func(repo *availMocks.MockAvailability) {
				repo.EXPECT().
					LockProviderTx(gomock.Any(), gomock.Any(), "provider-1").
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
		{
			name: "propagates insert failure",
			req:  validReq,
			setupMock: func(repo *availMocks.MockAvailability) {
				repo.EXPECT().
					LockProviderTx(gomock.Any(), gomock.Any(), "provider-1").
					Return(nil)
				repo.EXPECT().
					OverlappingOpenExistsTx(gomock.Any(), gomock.Any(), "provider-1", gomock.Any(), gomock.Any()).
					Return(false, nil)
				repo.EXPECT().
					InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _ := newAvailabilityService(t)
			tt.setupMock(mockRepo)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user-id")
			err := svc.Create(ctx, tt.req)
			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				require.Error(t, err)

				if tt.wantKind != "" {
					assert.True(t, failure.IsKind(err, tt.wantKind))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAvailabilityService_ListOpen(t *testing.T) {
	req := dto.ListOpenSlotsRequest{ProviderID: "provider-1"}

	t.Run("returns open slots oldest first", func(t *testing.T) {
		svc, mockRepo, mockCache := newAvailabilityService(t)

		start := timezone.Now().Add(24 * time.Hour)
		slots := []model.Slot{
			{ID: "slot-1", ProviderID: "provider-1", StartTime: start, EndTime: start.Add(time.Hour), IsAvailable: true},
			{ID: "slot-2", ProviderID: "provider-1", StartTime: start.Add(2 * time.Hour), EndTime: start.Add(3 * time.Hour), IsAvailable: true},
		}

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
		mockRepo.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Slot, error) {
				assert.Equal(t, model.FieldStartTime, params.SortBy)
				assert.Equal(t, gDto.SortDirAsc, params.SortDir)
				return slots, nil
			})

		res, err := svc.ListOpen(context.Background(), req, gDto.QueryParams{})
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Len(t, res.Slots, 2)
		assert.Equal(t, "slot-1", res.Slots[0].ID)
	})

	t.Run("serves from cache on hit", func(t *testing.T) {
		svc, _, mockCache := newAvailabilityService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		_, err := svc.ListOpen(context.Background(), req, gDto.QueryParams{})

		assert.NoError(t, err)
	})
}

func TestAvailabilityService_Get(t *testing.T) {
	t.Run("returns the slot", func(t *testing.T) {
		svc, mockRepo, mockCache := newAvailabilityService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Slot{ID: "slot-1"}, nil)

		res, err := svc.Get(context.Background(), "slot-1")
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, "slot-1", res.ID)
	})

	t.Run("missing slot yields not found", func(t *testing.T) {
		svc, mockRepo, mockCache := newAvailabilityService(t)

		mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Slot{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		require.Error(t, err)
		assert.True(t, failure.IsKind(err, failure.KindNotFound))
	})
}
