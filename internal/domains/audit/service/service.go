package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tempah/infras/otel"
	"tempah/internal/domains/audit/model"
	"tempah/internal/domains/audit/model/dto"
	"tempah/internal/domains/audit/repository"
	"tempah/shared/constant"
	gDto "tempah/shared/dto"
	"tempah/shared/timezone"
)

// Audit is the reporting read surface over the trail. Writes happen inside
// the booking lifecycle transaction, not here.
type Audit interface {
	Trail(ctx context.Context, bookingID string) (dto.GetAuditsResponse, error)
	Search(ctx context.Context, req dto.SearchAuditsRequest, params gDto.QueryParams) (dto.GetAuditsResponse, error)
}

type serviceImpl struct {
	repo repository.Audit
	otel otel.Otel
}

func New(repo repository.Audit, otel otel.Otel) Audit {
	return &serviceImpl{
		repo: repo,
		otel: otel,
	}
}

// Trail returns every audit row of one booking in chronological order.
func (s *serviceImpl) Trail(ctx context.Context, bookingID string) (res dto.GetAuditsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.Trail")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldBookingID, Value: bookingID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}

	params := gDto.QueryParams{
		SortBy:  model.FieldPerformedAt,
		SortDir: gDto.SortDirAsc,
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get audit trail")

		return res, fmt.Errorf("failed to get audit trail: %w", err)
	}

	res.FromModels(models, len(models), 0)

	return res, nil
}

// Search filters the trail by actor, action, role, time range, and free text
// over comments and value snapshots.
func (s *serviceImpl) Search(ctx context.Context, req dto.SearchAuditsRequest, params gDto.QueryParams) (res dto.GetAuditsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.Search")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := s.searchFilter(req)

	if params.SortBy == "" {
		params.SortBy = model.FieldPerformedAt
		params.SortDir = gDto.SortDirDesc
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count audit rows")

		return res, fmt.Errorf("failed to count audit rows: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to search audit rows")

		return res, fmt.Errorf("failed to search audit rows: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	return res, nil
}

func (s *serviceImpl) searchFilter(req dto.SearchAuditsRequest) gDto.FilterGroup {
	filters := []any{}

	if req.BookingID != "" {
		filters = append(filters, gDto.Filter{Field: model.FieldBookingID, Value: req.BookingID, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	if req.Actor != "" {
		filters = append(filters, gDto.Filter{Field: model.FieldPerformedByUserID, Value: req.Actor, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	if req.Action != "" {
		filters = append(filters, gDto.Filter{Field: model.FieldAction, Value: req.Action, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	if req.Role != "" {
		filters = append(filters, gDto.Filter{Field: model.FieldPerformedByRole, Value: req.Role, Operator: gDto.FilterOperatorEq, Table: model.TableName})
	}

	if from, err := timezone.Parse(constant.DateFormat, req.From); err == nil && req.From != "" {
		filters = append(filters, gDto.Filter{ArgName: "performed_from", Field: model.FieldPerformedAt, Value: from, Operator: gDto.FilterOperatorGreaterEq, Table: model.TableName})
	}

	if to, err := timezone.Parse(constant.DateFormat, req.To); err == nil && req.To != "" {
		filters = append(filters, gDto.Filter{ArgName: "performed_to", Field: model.FieldPerformedAt, Value: to, Operator: gDto.FilterOperatorLessEq, Table: model.TableName})
	}

	if req.Search != "" {
		filters = append(filters, gDto.FilterGroup{
			Operator: gDto.FilterGroupOperatorOr,
			Filters: []any{
				gDto.Filter{ArgName: "search_comments", Field: model.FieldComments, Value: req.Search, Operator: gDto.FilterOperatorLike, Table: model.TableName},
				gDto.Filter{ArgName: "search_old", Field: model.FieldOldValue, Value: req.Search, Operator: gDto.FilterOperatorLike, Table: model.TableName},
				gDto.Filter{ArgName: "search_new", Field: model.FieldNewValue, Value: req.Search, Operator: gDto.FilterOperatorLike, Table: model.TableName},
			},
		})
	}

	return gDto.FilterGroup{
		Filters:  filters,
		Operator: gDto.FilterGroupOperatorAnd,
	}
}
