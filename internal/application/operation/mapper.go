package operation

import (
	"context"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/ports"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/ledger"
)

// buildResponse arma la vista de la operación con detalle, libro e historial de saldos.
func buildResponse(ctx context.Context, repos ports.Repositories, op *entity.Operation) (*dto.OperationResponse, error) {
	entries, err := repos.Payments.GetPaymentsByOperationID(ctx, op.ID)
	if err != nil {
		return nil, err
	}
	sum := ledger.Summarize(op.TotalAmount, entries)
	out := &dto.OperationResponse{
		ID:            op.ID,
		ReferenceCode: op.ReferenceCode,
		Type:          string(op.Type),
		Status:        string(op.Status),
		PaymentStatus: string(op.PaymentStatus),
		ClientID:      op.ClientID,
		BranchID:      op.BranchID,
		Date:          op.Date,
		TotalAmount:   op.TotalAmount,
		NetPaid:       sum.NetPaid,
		Balance:       sum.Balance,
		CreditAmount:  sum.CreditAmount,
		IsCredit:      sum.IsCredit,
		Lines:         []dto.LineResponse{},
	}
	for _, h := range ledger.History(op.TotalAmount, entries) {
		p := h.Payment
		out.Payments = append(out.Payments, dto.PaymentResponse{
			ID:                p.ID,
			Sequence:          p.Sequence,
			Amount:            p.Amount,
			Direction:         string(p.Direction),
			Category:          string(p.Category),
			Status:            string(p.Status),
			Method:            p.Method,
			Reference:         p.Reference,
			Date:              p.Date,
			HistoricalNet:     h.Summary.NetPaid,
			HistoricalBalance: h.Summary.Balance,
		})
	}

	switch op.Type {
	case entity.OperationTypeSale:
		sale, err := repos.Sales.GetByOperationID(ctx, op.ID)
		if err != nil {
			return nil, err
		}
		if sale != nil {
			out.DetailStatus = string(sale.Status)
			for _, it := range sale.Items {
				out.Lines = append(out.Lines, lineResponse(it.LineItem, ""))
			}
		}
	case entity.OperationTypeRental:
		rental, err := repos.Rentals.GetByOperationID(ctx, op.ID)
		if err != nil {
			return nil, err
		}
		if rental != nil {
			out.DetailStatus = string(rental.Status)
			expected := rental.ExpectedReturnDate
			out.ExpectedReturnDate = &expected
			out.PenaltyAmount = rental.PenaltyAmount
			out.LateFee = rental.LateFee
			for _, it := range rental.Items {
				out.Lines = append(out.Lines, lineResponse(it.LineItem, it.Status))
			}
			if rental.GuaranteeID != "" {
				g, err := repos.Guarantees.GetByID(ctx, rental.GuaranteeID)
				if err != nil {
					return nil, err
				}
				if g != nil {
					out.GuaranteeStatus = g.Status
				}
			}
		}
	case entity.OperationTypeReservation:
		res, err := repos.Reservations.GetByOperationID(ctx, op.ID)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out.DetailStatus = string(res.Status)
			for _, it := range res.Items {
				out.Lines = append(out.Lines, lineResponse(it.LineItem, ""))
			}
		}
	}
	return out, nil
}

func lineResponse(l entity.LineItem, status string) dto.LineResponse {
	r := dto.LineResponse{
		ID:             l.ID,
		ProductID:      l.ProductID,
		ProductName:    l.ProductName,
		Quantity:       l.Quantity,
		ListPrice:      l.ListPrice,
		UnitPrice:      l.PriceAtMoment,
		DiscountAmount: l.DiscountAmount,
		DiscountReason: l.DiscountReason,
		LineTotal:      l.LineTotal,
		BundleID:       l.BundleID,
		Status:         status,
	}
	for _, a := range l.Allocations {
		r.StockIDs = append(r.StockIDs, a.StockID)
	}
	return r
}
