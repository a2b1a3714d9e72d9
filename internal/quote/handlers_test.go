package quote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-chaldduck/internal/policy"
	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

func TestCreateReturnsBreakdown(t *testing.T) {
	snaps := &fakeSnapshots{snap: policy.Snapshot{
		Shipping: []policy.ShippingRule{{ID: 1, Type: "DEFAULT_FEE", Fee: 3000, Active: true}},
	}}
	h := &Handler{Svc: newService(snaps, &fakeCatalog{})}

	body := `{
		"paymentMethod": "CARD",
		"zipCode": "06035",
		"items": [{"productId": 1, "productName": "찰떡 세트", "unitPrice": 10000, "quantity": 2}]
	}`
	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Data pricing.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, int64(20000), payload.Data.SubtotalAmount)
	require.Equal(t, int64(3000), payload.Data.DeliveryFee)
	require.Equal(t, int64(23000), payload.Data.FinalAmount)
	require.Len(t, payload.Data.Items, 1)
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	h := &Handler{Svc: newService(&fakeSnapshots{}, &fakeCatalog{})}

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader("{not json")))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/quotes", strings.NewReader(`{"paymentMethod":"CASH","items":[{"productId":1,"unitPrice":100,"quantity":1}]}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
