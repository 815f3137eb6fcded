package handlers_test

import (
	"BiomassLedger/internal/handlers"
	"bytes"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCatalog клиент и материал через API
func (s *testServer) seedCatalog(t *testing.T, cookies []*http.Cookie) {
	t.Helper()
	rr := s.doJSON(t, http.MethodPost, "/api/catalog/customers", `{"name":"Hof Berger","contact":"kunde@x.de"}`, cookies)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = s.doJSON(t, http.MethodPost, "/api/catalog/materials",
		`{"name":"Hackschnitzel","default_basis":"pro kg","prices":{"mass-small":"0.05","mass-large":40,"volume":"30"}}`, cookies)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func issueForm(t *testing.T, fields map[string]string, withSignatures bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withSignatures {
		for name, shade := range map[string]uint8{"signature_customer": 10, "signature_supplier": 90} {
			fw, err := mw.CreateFormFile(name, name+".png")
			require.NoError(t, err)
			_, err = fw.Write(signaturePNG(t, shade))
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var validIssue = map[string]string{
	"customer":   "Hof Berger",
	"material":   "Hackschnitzel",
	"basis":      "mass-small",
	"gross":      "1200",
	"tare":       "200",
	"disclaimer": "on",
}

func TestCatalog_CRUD(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.supplierCookie(t, "s@x.de")
	s.seedCatalog(t, cookies)

	rr := s.doJSON(t, http.MethodGet, "/api/catalog/materials", "", cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	materials := decode[[]handlers.MaterialDTO](t, rr)
	require.Len(t, materials, 1)
	assert.Equal(t, "mass-small", materials[0].DefaultBasis)
	assert.Equal(t, "40", materials[0].Prices["mass-large"])

	rr = s.doJSON(t, http.MethodPost, "/api/catalog/materials", `{"name":"Rinde","prices":{"pro fass":"1"}}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = s.doJSON(t, http.MethodPost, "/api/catalog/materials", `{"name":"Rinde","prices":{"volume":"-1"}}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	rr = s.doJSON(t, http.MethodPost, "/api/catalog/customers", `{"contact":"x"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// глобальный раздел администратора не смешивается с разделом поставщика
	rr = s.doJSON(t, http.MethodGet, "/api/catalog/customers", "", s.adminCookie(t))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]handlers.CustomerDTO](t, rr))

	rr = s.doJSON(t, http.MethodDelete, "/api/catalog/customers/Hof%20Berger", "", cookies)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = s.doJSON(t, http.MethodGet, "/api/catalog/customers", "", cookies)
	assert.Empty(t, decode[[]handlers.CustomerDTO](t, rr))

	rr = s.doJSON(t, http.MethodDelete, "/api/catalog/materials/Hackschnitzel", "", cookies)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestDelivery_Quote(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.supplierCookie(t, "s@x.de")
	s.seedCatalog(t, cookies)

	rr := s.doJSON(t, http.MethodPost, "/api/quote", `{"material":"Hackschnitzel","gross":"1200","tare":"200"}`, cookies)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	q := decode[handlers.QuoteDTO](t, rr)
	assert.Equal(t, "1000.000", q.NetQuantity)
	assert.Equal(t, "kg", q.Unit)
	assert.Equal(t, "50.00", q.Total)

	rr = s.doJSON(t, http.MethodPost, "/api/quote", `{"material":"Hackschnitzel","basis":"mass-large","gross":"1200","tare":"200"}`, cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	q = decode[handlers.QuoteDTO](t, rr)
	assert.Equal(t, "1.000", q.NetQuantity)
	assert.Equal(t, "40.00", q.Total)

	rr = s.doJSON(t, http.MethodPost, "/api/quote", `{"material":"Hackschnitzel","basis":"volume","volume":"-1"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = s.doJSON(t, http.MethodPost, "/api/quote", `{"material":"Gold"}`, cookies)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDelivery_IssueAndRetrieve(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.supplierCookie(t, "s@x.de")
	_, other := s.supplierCookie(t, "o@x.de")
	s.seedCatalog(t, cookies)

	body, ct := issueForm(t, validIssue, true)
	rr := s.do(t, http.MethodPost, "/api/deliveries", body, ct, cookies)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	rec := decode[handlers.RecordDTO](t, rr)
	assert.Equal(t, "50.00", rec.Total)
	assert.Equal(t, "s@x.de", rec.CreatorEmail)
	assert.True(t, rec.HasDocument)

	rr = s.doJSON(t, http.MethodGet, "/api/deliveries", "", cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]handlers.RecordDTO](t, rr), 1)

	rr = s.doJSON(t, http.MethodGet, "/api/deliveries/"+rec.ID+"/document", "", cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/pdf", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "lieferschein_"+rec.ID[:8]+".pdf")
	assert.True(t, bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF-")))

	// чужая запись не видна
	rr = s.doJSON(t, http.MethodGet, "/api/deliveries/"+rec.ID, "", other)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = s.doJSON(t, http.MethodGet, "/api/deliveries?all=true", "", other)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// администратор видит всё
	rr = s.doJSON(t, http.MethodGet, "/api/deliveries?all=true", "", s.adminCookie(t))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]handlers.RecordDTO](t, rr), 1)
}

func TestDelivery_IssueValidation(t *testing.T) {
	s := newTestServer(t)
	_, cookies := s.supplierCookie(t, "s@x.de")
	s.seedCatalog(t, cookies)

	noDisclaimer := map[string]string{}
	for k, v := range validIssue {
		noDisclaimer[k] = v
	}
	delete(noDisclaimer, "disclaimer")

	body, ct := issueForm(t, noDisclaimer, true)
	rr := s.do(t, http.MethodPost, "/api/deliveries", body, ct, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body, ct = issueForm(t, validIssue, false)
	rr = s.do(t, http.MethodPost, "/api/deliveries", body, ct, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "signature_customer")

	bad := map[string]string{}
	for k, v := range validIssue {
		bad[k] = v
	}
	bad["gross"] = "viel"
	body, ct = issueForm(t, bad, true)
	rr = s.do(t, http.MethodPost, "/api/deliveries", body, ct, cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// ничего не записано
	rr = s.doJSON(t, http.MethodGet, "/api/deliveries", "", cookies)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]handlers.RecordDTO](t, rr))

	rr = s.do(t, http.MethodPost, "/api/deliveries", bytes.NewBufferString("x"), "text/plain", cookies)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	_, _ = s.supplierCookie(t, "s@x.de")

	rr := s.doJSON(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "biomass_registrations_amount")
}
