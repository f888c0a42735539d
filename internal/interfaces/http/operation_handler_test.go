package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Alquiler-api/internal/application/dto"
	"github.com/jhoicas/Alquiler-api/internal/application/operation"
	"github.com/jhoicas/Alquiler-api/internal/domain/entity"
	"github.com/jhoicas/Alquiler-api/internal/domain/pricing"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/lock"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/memory"
	"github.com/jhoicas/Alquiler-api/internal/infrastructure/obs"
	apphttp "github.com/jhoicas/Alquiler-api/internal/interfaces/http"
)

var ahora = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// buildAPI router completo sobre el almacén en memoria: "traje" por lotes (3 u.).
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.New()
	store.AddProduct(entity.Product{ID: "traje", TenantID: testTenantID, Name: "Traje",
		SalePrice: decimal.NewFromInt(300), RentalPrice: decimal.NewFromInt(100), CanSell: true, CanRent: true})
	store.AddClient(entity.Client{ID: "c1", TenantID: testTenantID, Name: "Ana"})
	require.NoError(t, store.Repositories().Inventory.CreateLot(context.Background(), &entity.StockLot{
		ID: "lote-traje", TenantID: testTenantID, ProductID: "traje", BranchID: testBranchID,
		Status: entity.ItemStatusAvailable, Quantity: 3, CreatedAt: ahora.AddDate(0, -1, 0),
	}))

	reg := prometheus.NewRegistry()
	cfg := operation.Config{
		Pricing: pricing.Rules{
			MaxDiscountPercentageAllowed:    decimal.RequireFromString("0.30"),
			RequireAdminAuthForDiscountOver: decimal.RequireFromString("0.15"),
		},
		SaleReturnWindowDays: 30,
		Location:             time.UTC,
	}
	svc := operation.NewService(store, store.Repositories(), lock.NewLocalLocker(),
		obs.NewDomainMetrics("test", reg), cfg, zerolog.Nop()).
		WithClock(func() time.Time { return ahora })

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Operations:  svc,
		JWTSecret:   testJWTSecret,
		HTTPMetrics: obs.NewHTTPMetrics("test", reg),
		Gatherer:    reg,
		SwaggerFile: "../../../docs/swagger.json",
		Log:         zerolog.Nop(),
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func saleBody(qty int, paid string) dto.CreateSaleRequest {
	req := dto.CreateSaleRequest{
		ClientID: "c1",
		Items:    []dto.LineRequest{{ProductID: "traje", Quantity: qty}},
	}
	if paid != "" {
		req.Payments = []dto.PaymentRequest{{Amount: decimal.RequireFromString(paid), Method: entity.PaymentMethodCash}}
	}
	return req
}

func TestAPI_CrearVentaYConsultarResumen(t *testing.T) {
	app := buildAPI(t)

	resp, body := call(t, app, http.MethodPost, "/api/sales", "vendedor", saleBody(1, "300"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created dto.OperationResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "VEN-20260601-0001", created.ReferenceCode)
	assert.Equal(t, string(entity.PaymentStatusPaid), created.PaymentStatus)

	resp, body = call(t, app, http.MethodGet, "/api/operations/"+strconv.FormatInt(created.ID, 10), "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary dto.OperationResponse
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, created.ReferenceCode, summary.ReferenceCode)
	require.Len(t, summary.Payments, 1)
}

func TestAPI_StockInsuficienteDevuelve409ConDetalle(t *testing.T) {
	app := buildAPI(t)

	resp, body := call(t, app, http.MethodPost, "/api/sales", "vendedor", saleBody(5, ""))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	assert.EqualValues(t, 5, e.Details["required"])
	assert.EqualValues(t, 3, e.Details["available"])
}

func TestAPI_ValidacionDevuelve400(t *testing.T) {
	app := buildAPI(t)
	resp, body := call(t, app, http.MethodPost, "/api/sales", "vendedor", dto.CreateSaleRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestAPI_OperacionInexistente404(t *testing.T) {
	app := buildAPI(t)
	resp, _ := call(t, app, http.MethodGet, "/api/operations/999", "vendedor", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/operations/abc", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_DobleAnulacionDevuelveCodigoDeNegocio(t *testing.T) {
	app := buildAPI(t)
	_, body := call(t, app, http.MethodPost, "/api/sales", "vendedor", saleBody(1, "300"))
	var created dto.OperationResponse
	require.NoError(t, json.Unmarshal(body, &created))
	path := "/api/operations/" + strconv.FormatInt(created.ID, 10) + "/cancel"

	resp, _ := call(t, app, http.MethodPost, path, "vendedor", dto.CancelOperationRequest{Reason: "error de caja"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = call(t, app, http.MethodPost, path, "vendedor", dto.CancelOperationRequest{Reason: "otra vez"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "ALREADY_CANCELED", e.Code)
}

func TestAPI_LotesSoloAdmin(t *testing.T) {
	app := buildAPI(t)
	resp, _ := call(t, app, http.MethodPost, "/api/batch/overdue", "vendedor", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/batch/overdue", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res dto.BatchResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, 0, res.Processed)
}

func TestAPI_SinTokenDevuelve401(t *testing.T) {
	app := buildAPI(t)
	resp, _ := call(t, app, http.MethodPost, "/api/sales", "", saleBody(1, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_HealthYMetricas(t *testing.T) {
	app := buildAPI(t)
	call(t, app, http.MethodPost, "/api/sales", "vendedor", saleBody(1, "300"))

	resp, _ := call(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, app, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `test_operations_created_total{type="sale"} 1`)
	assert.Contains(t, string(body), "test_http_requests_total")
}

func TestAPI_ContabilizarPagoPendiente(t *testing.T) {
	app := buildAPI(t)
	req := saleBody(1, "")
	req.Payments = []dto.PaymentRequest{{Amount: decimal.NewFromInt(300), Method: entity.PaymentMethodTransfer, Pending: true}}
	resp, body := call(t, app, http.MethodPost, "/api/sales", "vendedor", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var created dto.OperationResponse
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, string(entity.PaymentStatusPending), created.PaymentStatus)

	base := "/api/operations/" + strconv.FormatInt(created.ID, 10)
	_, body = call(t, app, http.MethodGet, base, "vendedor", nil)
	var summary dto.OperationResponse
	require.NoError(t, json.Unmarshal(body, &summary))
	require.Len(t, summary.Payments, 1)
	path := base + "/payments/" + summary.Payments[0].ID + "/post"

	resp, body = call(t, app, http.MethodPost, path, "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var posted dto.OperationResponse
	require.NoError(t, json.Unmarshal(body, &posted))
	assert.Equal(t, string(entity.PaymentStatusPaid), posted.PaymentStatus)

	resp, body = call(t, app, http.MethodPost, path, "vendedor", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "PAYMENT_NOT_PENDING", e.Code)

	resp, _ = call(t, app, http.MethodPost, base+"/payments/no-existe/post", "vendedor", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_DocsSwagger(t *testing.T) {
	app := buildAPI(t)
	resp, _ := call(t, app, http.MethodGet, "/docs", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := call(t, app, http.MethodGet, "/docs/swagger.json", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/api/operations/{id}/payments/{payment_id}/post")
}
