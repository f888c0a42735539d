package operation

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/domain"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
)

// GetOperationSummary operación con su libro y el saldo histórico de cada asiento.
func (s *Service) GetOperationSummary(ctx context.Context, actor Actor, operationID int64) (*dto.OperationResponse, error) {
	op, err := s.repos.Operations.GetByID(ctx, operationID)
	if err != nil {
		return nil, err
	}
	if op == nil || op.TenantID != actor.TenantID {
		return nil, domain.ErrOperationNotFound
	}
	return buildResponse(ctx, s.repos, op)
}

// ListByClient operaciones de un cliente, más recientes primero.
func (s *Service) ListByClient(ctx context.Context, actor Actor, clientID string, page dto.PageRequest) (*dto.OperationListResponse, error) {
	page.DefaultPage()
	if err := dto.Validate(page); err != nil {
		return nil, err
	}
	if err := checkClient(ctx, s.repos, actor.TenantID, clientID); err != nil {
		return nil, err
	}
	ops, err := s.repos.Operations.ListByClient(ctx, clientID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.OperationListResponse{
		Items: make([]dto.OperationResponse, 0, len(ops)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, op := range ops {
		if op.TenantID != actor.TenantID {
			continue
		}
		r, err := buildResponse(ctx, s.repos, op)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, *r)
	}
	return out, nil
}

// Quote cotiza un carrito sin reservar stock ni consumir promociones.
func (s *Service) Quote(ctx context.Context, actor Actor, req dto.QuoteRequest) (*dto.QuoteResponse, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	q, err := s.price(ctx, s.repos, actor, entity.OperationType(req.OperationType), req.Items, s.clock())
	if err != nil {
		return nil, err
	}
	out := &dto.QuoteResponse{
		Lines:             make([]dto.LineResponse, 0, len(q.Lines)),
		ListTotal:         q.ListTotal,
		Discount:          q.Discount,
		Total:             q.Total,
		RequiresAdminAuth: q.RequiresAdminAuth,
	}
	for _, l := range q.Lines {
		out.Lines = append(out.Lines, dto.LineResponse{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			ListPrice:      l.ListPrice,
			UnitPrice:      l.UnitPrice,
			DiscountAmount: l.DiscountAmount,
			DiscountReason: l.DiscountReason,
			LineTotal:      l.LineTotal,
			BundleID:       l.BundleID,
		})
	}
	return out, nil
}
