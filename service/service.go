// Package service exposes verify.Verify as a small HTTP endpoint. It adds
// no logic of its own beyond decoding JSON and dispatching to
// verify.Verify.
package service

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/hyperkzg"
	"github.com/vocdoni/sqlsnark-verify/log"
	"github.com/vocdoni/sqlsnark-verify/verify"
)

// VerifyEndpoint is the path of the single exported route.
const VerifyEndpoint = "/verify"

// Server wraps a chi router serving VerifyEndpoint.
type Server struct {
	router *chi.Mux
}

// New builds a Server with the standard CORS/recoverer/timeout middleware
// stack.
func New() *Server {
	s := &Server{router: chi.NewRouter()}
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	s.router.Use(requestIDMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Post(VerifyEndpoint, s.handleVerify)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestIDMiddleware stamps every request with a correlation ID, logged
// alongside the verification outcome so a long-running service's logs can
// be tied back to a specific caller request.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", uuid.New().String())
		next.ServeHTTP(w, r)
	})
}

// tableMetaJSON is the wire representation of verify.TableMeta: binary
// fields (commitments, evaluations) are hex-encoded since JSON has no
// native byte-string type.
type tableMetaJSON struct {
	RowCount uint64                  `json:"row_count"`
	Columns  []columnCommitmentJSON `json:"columns"`
}

type columnCommitmentJSON struct {
	Name          string `json:"name"`
	CommitmentHex string `json:"commitment_hex"`
	Variant       uint32 `json:"variant"`
	EvaluationHex string `json:"evaluation_hex"`
}

// verifyRequest is the JSON body accepted by POST /verify.
type verifyRequest struct {
	Query  string `json:"query"`
	Schema string `json:"schema"`
	Sigma  string `json:"sigma"`

	Tables []tableMetaJSON `json:"tables"`

	PlanHex          string `json:"plan_hex"`
	ProofHex         string `json:"proof_hex"`
	ResultHex        string `json:"result_hex"`
	VerifierSetupHex string `json:"verifier_setup_hex"`

	NumVars        int `json:"num_vars"`
	SumcheckDegree int `json:"sumcheck_degree"`
	FilterTableIdx int `json:"filter_table_idx"`
}

// verifyResponse is the JSON body returned by POST /verify.
type verifyResponse struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-Id")

	var body verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Outcome: verify.ParseError.String(), Error: "malformed JSON body"})
		return
	}

	req, err := toVerifyRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Outcome: verify.ParseError.String(), Error: err.Error()})
		return
	}

	outcome := verify.Verify(*log.Logger(), req)
	log.Infow("verification request handled", "request_id", reqID, "outcome", outcome.String())

	writeJSON(w, httpStatusFor(outcome), verifyResponse{Outcome: outcome.String()})
}

func httpStatusFor(o verify.Outcome) int {
	switch o {
	case verify.OK:
		return http.StatusOK
	case verify.Invalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, body verifyResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warnw("failed to write http response", "error", err)
	}
}

func toVerifyRequest(body verifyRequest) (verify.Request, error) {
	plan, err := hex.DecodeString(body.PlanHex)
	if err != nil {
		return verify.Request{}, err
	}
	proof, err := hex.DecodeString(body.ProofHex)
	if err != nil {
		return verify.Request{}, err
	}
	result, err := hex.DecodeString(body.ResultHex)
	if err != nil {
		return verify.Request{}, err
	}
	setup, err := hex.DecodeString(body.VerifierSetupHex)
	if err != nil {
		return verify.Request{}, err
	}

	tables := make([]verify.TableMeta, len(body.Tables))
	for i, t := range body.Tables {
		cols := make([]verify.ColumnCommitment, len(t.Columns))
		for j, c := range t.Columns {
			commBytes, err := hex.DecodeString(c.CommitmentHex)
			if err != nil {
				return verify.Request{}, err
			}
			var comm hyperkzg.Commitment
			if _, err := comm.SetBytes(commBytes); err != nil {
				return verify.Request{}, err
			}
			evalBytes, err := hex.DecodeString(c.EvaluationHex)
			if err != nil {
				return verify.Request{}, err
			}
			cols[j] = verify.ColumnCommitment{
				Name:       c.Name,
				Commitment: comm,
				Variant:    c.Variant,
				Evaluation: field.FromBytes(evalBytes),
			}
		}
		tables[i] = verify.TableMeta{RowCount: t.RowCount, Columns: cols}
	}

	return verify.Request{
		Query:          body.Query,
		Schema:         body.Schema,
		Sigma:          body.Sigma,
		Tables:         tables,
		PlanBytes:      plan,
		ProofBytes:     proof,
		ResultBytes:    result,
		VerifierSetup:  setup,
		NumVars:        body.NumVars,
		SumcheckDegree: body.SumcheckDegree,
		FilterTableIdx: body.FilterTableIdx,
	}, nil
}
