package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bockybocky/charles-bond-sniper/internal/config"
	apierrors "github.com/bockybocky/charles-bond-sniper/internal/errors"
	"github.com/bockybocky/charles-bond-sniper/internal/services"
)

const holdingsFixture = "Fund holdings export\n" +
	"as of,2025-08-29\n" +
	"Name,CUSIP,Market Value,Par Value,Maturity,Coupon (%)\n" +
	"Acme Corp,958102AT2,\"$92,000\",\"$100,000\",2026-06-01,1.5\n" +
	"Beta Inc,12008RAC4,\"$150,000\",\"$100,000\",2027-03-15,0.0\n"

func newTestHandler(t *testing.T) *ScanHandler {
	t.Helper()
	logger := slog.Default()
	svc := services.NewScanService(config.Default(), logger)
	return NewScanHandler(svc, logger, apierrors.NewErrorHandler(logger), 1<<20)
}

// multipartRequest builds a POST with the given files and form fields.
func multipartRequest(t *testing.T, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name+".csv")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/scan", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

type scanResponse struct {
	Status string `json:"status"`
	Data   struct {
		Distressed []map[string]interface{} `json:"distressed"`
		HighValue  []map[string]interface{} `json:"high_value"`
		Filtered   []map[string]interface{} `json:"filtered"`
	} `json:"data"`
	Diagnostics struct {
		DecodeOK      bool     `json:"decode_ok"`
		HeaderFound   bool     `json:"header_found"`
		MissingFields []string `json:"missing_fields"`
		RowCounts     struct {
			Raw        int `json:"raw"`
			Valid      int `json:"valid"`
			Filtered   int `json:"filtered"`
			Distressed int `json:"distressed"`
			HighValue  int `json:"high_value"`
		} `json:"row_counts"`
	} `json:"diagnostics"`
}

func TestScanHandler_Success(t *testing.T) {
	h := newTestHandler(t)
	req := multipartRequest(t, map[string][]byte{fieldHoldings: []byte(holdingsFixture)}, nil)
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Data.Distressed, 1)
	assert.Equal(t, "Acme Corp", resp.Data.Distressed[0]["name"])
	require.Len(t, resp.Data.HighValue, 1)
	assert.Equal(t, "Beta Inc", resp.Data.HighValue[0]["name"])
	assert.True(t, resp.Diagnostics.DecodeOK)
	assert.True(t, resp.Diagnostics.HeaderFound)
	assert.Equal(t, 2, resp.Diagnostics.RowCounts.Filtered)
}

func TestScanHandler_ThresholdOverride(t *testing.T) {
	h := newTestHandler(t)
	req := multipartRequest(t,
		map[string][]byte{fieldHoldings: []byte(holdingsFixture)},
		map[string]string{"danger_threshold": "80"})
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// Acme's 92.0 no longer qualifies under the tightened threshold.
	assert.Empty(t, resp.Data.Distressed)
}

func TestScanHandler_SecondaryFileFusion(t *testing.T) {
	h := newTestHandler(t)
	req := multipartRequest(t, map[string][]byte{
		fieldHoldings:   []byte(holdingsFixture),
		fieldIssueDates: []byte("958102AT2,2023-11-15\n"),
	}, nil)
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Distressed, 1)
	assert.Equal(t, float64(2023), resp.Data.Distressed[0]["issue_year"])
}

func TestScanHandler_MissingHoldingsFile(t *testing.T) {
	h := newTestHandler(t)
	req := multipartRequest(t, nil, map[string]string{"danger_threshold": "90"})
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_FILE", resp.Error.ErrorCode)
}

func TestScanHandler_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"non numeric danger", map[string]string{"danger_threshold": "abc"}},
		{"non numeric rocket", map[string]string{"rocket_threshold": "abc"}},
		{"bad boolean", map[string]string{"coupon_sensitive": "perhaps"}},
		{"bad window date", map[string]string{"window_start": "June 2026"}},
		{"rocket not above danger", map[string]string{"danger_threshold": "100", "rocket_threshold": "90"}},
		{"inverted window", map[string]string{"window_start": "2027-01-01", "window_end": "2026-01-01"}},
		{"danger out of range", map[string]string{"danger_threshold": "-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			req := multipartRequest(t,
				map[string][]byte{fieldHoldings: []byte(holdingsFixture)}, tt.fields)
			rec := httptest.NewRecorder()

			h.Scan(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestScanHandler_WrongFile(t *testing.T) {
	h := newTestHandler(t)
	req := multipartRequest(t,
		map[string][]byte{fieldHoldings: []byte("totally,unrelated\n1,2\n")}, nil)
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "HEADER_NOT_FOUND", resp.Error.ErrorCode)
}

func TestScanHandler_MissingColumns(t *testing.T) {
	h := newTestHandler(t)
	req := multipartRequest(t,
		map[string][]byte{fieldHoldings: []byte("Name,Market Value\nAcme,$10\n")}, nil)
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp apierrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", resp.Error.ErrorCode)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(slog.Default())
	rec := httptest.NewRecorder()

	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
