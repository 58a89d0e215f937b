package service_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/sqlsnark-verify/service"
)

func TestHandleVerifyRejectsMalformedBody(t *testing.T) {
	c := qt.New(t)
	srv := service.New()

	req := httptest.NewRequest(http.MethodPost, service.VerifyEndpoint, strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(rec.Body.String(), qt.Contains, "PARSE_ERROR")
}

func TestHandleVerifyRejectsBadHex(t *testing.T) {
	c := qt.New(t)
	srv := service.New()

	body := `{"query":"q","schema":"s","sigma":"sig","plan_hex":"zz","num_vars":1,"sumcheck_degree":1}`
	req := httptest.NewRequest(http.MethodPost, service.VerifyEndpoint, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	c.Assert(rec.Code, qt.Equals, http.StatusBadRequest)
	c.Assert(rec.Body.String(), qt.Contains, "PARSE_ERROR")
}

func TestHandleVerifyReturnsInvalidOnTruncatedSumcheck(t *testing.T) {
	c := qt.New(t)
	srv := service.New()

	// 0 first-round MLEs, 0 sumcheck coefficients, but num_vars=2 needs 4.
	proofHex := "00000000000000000000000000000000"
	body := `{"query":"q","schema":"s","sigma":"sig","proof_hex":"` + proofHex + `","num_vars":2,"sumcheck_degree":1}`
	req := httptest.NewRequest(http.MethodPost, service.VerifyEndpoint, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	c.Assert(rec.Code, qt.Equals, http.StatusUnprocessableEntity)
	c.Assert(rec.Body.String(), qt.Contains, "INVALID")
}

func TestVerifyEndpointOnlyAcceptsPost(t *testing.T) {
	c := qt.New(t)
	srv := service.New()

	req := httptest.NewRequest(http.MethodGet, service.VerifyEndpoint, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	c.Assert(rec.Code, qt.Equals, http.StatusMethodNotAllowed)
}
