// Package verify sequences the end-to-end verification pipeline: transcript
// seeding, sumcheck, the plan interpreter, the result verifier, and the
// HyperKZG opening, collapsing every failure mode into the three-valued
// outcome the orchestrator returns.
package verify

import (
	"encoding/binary"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/vocdoni/sqlsnark-verify/builder"
	"github.com/vocdoni/sqlsnark-verify/field"
	"github.com/vocdoni/sqlsnark-verify/hyperkzg"
	"github.com/vocdoni/sqlsnark-verify/lagrange"
	"github.com/vocdoni/sqlsnark-verify/planproof"
	"github.com/vocdoni/sqlsnark-verify/resultproof"
	"github.com/vocdoni/sqlsnark-verify/sumcheck"
	"github.com/vocdoni/sqlsnark-verify/transcript"
)

// Outcome is the orchestrator's three-valued return code.
type Outcome int

const (
	OK Outcome = iota
	Invalid
	ParseError
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "OK"
	case Invalid:
		return "INVALID"
	case ParseError:
		return "PARSE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ErrTruncatedProof covers any structural failure decoding the proof
// bytes.
var ErrTruncatedProof = errors.New("verify: truncated proof bytes")

// TableMeta describes one source table referenced by the plan: its row
// count (for the truncated Lagrange table mask) and its column
// commitments, addressed by column name. Columns is ordered and that order
// is significant: it is absorbed into the transcript seed and must match
// the prover's serialization exactly.
type TableMeta struct {
	RowCount uint64
	Columns  []ColumnCommitment
}

// ColumnCommitment pairs a committed column with its declared type and the
// plan-derived evaluation the prover claims it opens to, for HyperKZG
// batching.
type ColumnCommitment struct {
	Name       string
	Commitment hyperkzg.Commitment
	Variant    uint32
	Evaluation field.Element
}

// Request bundles every input to a single verification call: the textual
// query/schema/sigma, the table commitments, and the serialized plan,
// proof, result, and verifier setup.
type Request struct {
	Query  string
	Schema string
	Sigma  string

	Tables []TableMeta

	PlanBytes      []byte
	PlanIsEnvelope bool // true if PlanBytes is a planproof.Envelope (CBOR) rather than the raw plan stream
	ProofBytes     []byte
	ResultBytes    []byte
	VerifierSetup  []byte
	NumVars        int
	SumcheckDegree int
	FilterTableIdx int
}

// Logger is the ambient logger every phase transition reports through.
// Defaults to a disabled logger when left zero-valued.
type Logger = zerolog.Logger

// Verify runs the full verification pipeline and returns a terminal
// Outcome. Structural decode failures collapse to ParseError; every
// cryptographic or consistency failure collapses to Invalid.
func Verify(log Logger, req Request) Outcome {
	outcome, err := verify(log, req)
	if err == nil {
		return OK
	}
	if errors.Is(err, ErrTruncatedProof) ||
		errors.Is(err, planproof.ErrTruncatedPlan) ||
		errors.Is(err, resultproof.ErrTruncatedResult) {
		log.Warn().Err(err).Msg("input parse failure")
		return ParseError
	}
	log.Warn().Err(err).Msg("verification rejected")
	return outcome
}

func verify(log Logger, req Request) (Outcome, error) {
	// Step 1 + 2: seed transcript from keccak256(query || schema || commitments || sigma).
	seedInput := append([]byte(req.Query), []byte(req.Schema)...)
	seedInput = append(seedInput, serializeCommitments(req.Tables)...)
	seedInput = append(seedInput, []byte(req.Sigma)...)
	s := transcript.New([32]byte(ethcrypto.Keccak256Hash(seedInput)))

	log.Debug().Msg("transcript seeded")

	r := &byteReader{buf: req.ProofBytes}

	// First-round MLE region.
	firstRoundMLEs, err := r.readFieldVector()
	if err != nil {
		return Invalid, fmt.Errorf("%w: first-round MLEs: %v", ErrTruncatedProof, err)
	}
	s = transcript.AppendElements(s, firstRoundMLEs)

	// Step 3: draw alpha/beta and n constraint multipliers.
	alphaBeta, s2 := transcript.DrawChallenges(s, 2)
	s = s2
	constraintMultipliers, s3 := transcript.DrawChallenges(s, 3)
	s = s3

	// Sumcheck proof region.
	sumcheckCoeffs, err := r.readFieldVector()
	if err != nil {
		return Invalid, fmt.Errorf("%w: sumcheck proof: %v", ErrTruncatedProof, err)
	}
	sumcheckProof, err := sumcheck.ParseProof(sumcheckCoeffs, req.NumVars, req.SumcheckDegree)
	if err != nil {
		return Invalid, err
	}

	// Final-round MLE region.
	finalRoundMLEs, err := r.readFieldVector()
	if err != nil {
		return Invalid, fmt.Errorf("%w: final-round MLEs: %v", ErrTruncatedProof, err)
	}

	// PCS subproof region.
	ell := req.NumVars
	pcsProof, err := readPCSProof(r, ell)
	if err != nil {
		return Invalid, err
	}

	claimedSum := field.Zero()
	if len(firstRoundMLEs) > 0 {
		claimedSum = firstRoundMLEs[0]
	}

	// Step 4: run sumcheck.
	subclaim, s4, err := sumcheck.Verify(s, sumcheckProof, req.NumVars, req.SumcheckDegree, claimedSum)
	if err != nil {
		return Invalid, err
	}
	s = s4
	log.Debug().Int("num_vars", req.NumVars).Msg("sumcheck accepted")

	// Parse the plan prefix and the claimed result; both are structural
	// inputs whose row counts feed the chi precomputation below.
	planBytes := req.PlanBytes
	if req.PlanIsEnvelope {
		unwrapped, err := planproof.DecodeEnvelope(planBytes)
		if err != nil {
			return Invalid, fmt.Errorf("%w: plan envelope: %v", ErrTruncatedProof, err)
		}
		planBytes = unwrapped
	}
	header, planRoot, err := planproof.ParseHeader(planBytes)
	if err != nil {
		return Invalid, err
	}
	if len(header.TableNames) != len(req.Tables) {
		return Invalid, fmt.Errorf("verify: plan names %d tables, commitments cover %d", len(header.TableNames), len(req.Tables))
	}
	cols, err := resultproof.Decode(req.ResultBytes)
	if err != nil {
		return Invalid, err
	}

	// Step 5: precompute table_chi_evaluations and chi_evaluations. The
	// output-side chi is the row mask of the claimed result table.
	tableChiEvals := make([]field.Element, len(req.Tables))
	for i, tbl := range req.Tables {
		tableChiEvals[i] = lagrange.TruncatedSum(tbl.RowCount, subclaim.EvaluationPoint, req.NumVars)
	}
	outLen := uint64(0)
	if len(cols) > 0 {
		outLen = uint64(len(cols[0].Values))
	}
	chiEvals := []field.Element{lagrange.TruncatedSum(outLen, subclaim.EvaluationPoint, req.NumVars)}

	b := builder.New(req.SumcheckDegree, alphaBeta, firstRoundMLEs, finalRoundMLEs, chiEvals, nil, tableChiEvals, constraintMultipliers, field.One())

	// Step 6: run the plan interpreter.
	d := planproof.NewDecoder(planRoot)
	var filterResult planproof.FilterExecResult
	if _, err := planproof.Eval(d, b, req.FilterTableIdx, &filterResult); err != nil {
		return Invalid, err
	}
	if !b.AggregateEvaluation.Equal(subclaim.ExpectedEvaluation) {
		return Invalid, errors.New("verify: aggregate evaluation mismatch")
	}
	if !b.AllDrained() {
		return Invalid, errors.New("verify: builder queues not fully drained")
	}

	// Step 7: run the result verifier, against the plan's derived
	// output-column evaluations.
	if err := resultproof.Verify(cols, header.OutputNames, filterResult.ColumnEvaluations); err != nil {
		return Invalid, err
	}
	if err := resultproof.CheckColumnEvaluations(cols, subclaim.EvaluationPoint, filterResult.ColumnEvaluations); err != nil {
		return Invalid, err
	}

	// Step 8: run the HyperKZG opening, batched over referenced column commitments.
	commitments, evaluations := collectColumnCommitments(req.Tables)
	if len(commitments) > 0 {
		setup, err := hyperkzg.ParseSetup(req.VerifierSetup)
		if err != nil {
			return Invalid, fmt.Errorf("%w: verifier setup: %v", ErrTruncatedProof, err)
		}
		if err := hyperkzg.BatchVerify(s, setup, pcsProof, commitments, evaluations, subclaim.EvaluationPoint); err != nil {
			return Invalid, err
		}
	}

	log.Info().Msg("verification accepted")
	return OK, nil
}

func collectColumnCommitments(tables []TableMeta) ([]hyperkzg.Commitment, []field.Element) {
	var commitments []hyperkzg.Commitment
	var evaluations []field.Element
	for _, tbl := range tables {
		for _, col := range tbl.Columns {
			commitments = append(commitments, col.Commitment)
			evaluations = append(evaluations, col.Evaluation)
		}
	}
	return commitments, evaluations
}

func serializeCommitments(tables []TableMeta) []byte {
	var buf []byte
	for _, tbl := range tables {
		for _, col := range tbl.Columns {
			buf = append(buf, []byte(col.Name)...)
			buf = append(buf, col.Commitment.Marshal()...)
		}
	}
	return buf
}

type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return fmt.Errorf("need %d bytes, have %d remaining", n, len(r.buf)-r.pos)
	}
	return nil
}

func (r *byteReader) readU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *byteReader) readFieldVector() ([]field.Element, error) {
	count, err := r.readU64()
	if err != nil {
		return nil, err
	}
	out := make([]field.Element, count)
	for i := range out {
		if err := r.need(32); err != nil {
			return nil, err
		}
		out[i] = field.FromBytes(r.buf[r.pos : r.pos+32])
		r.pos += 32
	}
	return out, nil
}

func readPCSProof(r *byteReader, ell int) (hyperkzg.Proof, error) {
	if ell < 1 {
		return hyperkzg.Proof{}, fmt.Errorf("%w: ell must be >= 1", ErrTruncatedProof)
	}
	com := make([]hyperkzg.Commitment, ell-1)
	for i := range com {
		x, err := r.readFieldVectorN(1)
		if err != nil {
			return hyperkzg.Proof{}, fmt.Errorf("%w: pcs com.x: %v", ErrTruncatedProof, err)
		}
		y, err := r.readFieldVectorN(1)
		if err != nil {
			return hyperkzg.Proof{}, fmt.Errorf("%w: pcs com.y: %v", ErrTruncatedProof, err)
		}
		com[i].X.SetBigInt(x[0].BigInt())
		com[i].Y.SetBigInt(y[0].BigInt())
	}

	v := make([]hyperkzg.Triple, ell)
	for i := range v {
		row, err := r.readFieldVectorN(3)
		if err != nil {
			return hyperkzg.Proof{}, fmt.Errorf("%w: pcs v: %v", ErrTruncatedProof, err)
		}
		v[i] = hyperkzg.Triple{row[0], row[1], row[2]}
	}

	var w [3]hyperkzg.Commitment
	for i := range w {
		x, err := r.readFieldVectorN(1)
		if err != nil {
			return hyperkzg.Proof{}, fmt.Errorf("%w: pcs w.x: %v", ErrTruncatedProof, err)
		}
		y, err := r.readFieldVectorN(1)
		if err != nil {
			return hyperkzg.Proof{}, fmt.Errorf("%w: pcs w.y: %v", ErrTruncatedProof, err)
		}
		w[i].X.SetBigInt(x[0].BigInt())
		w[i].Y.SetBigInt(y[0].BigInt())
	}

	return hyperkzg.Proof{Com: com, V: v, W: w}, nil
}

func (r *byteReader) readFieldVectorN(n int) ([]field.Element, error) {
	out := make([]field.Element, n)
	for i := range out {
		if err := r.need(32); err != nil {
			return nil, err
		}
		out[i] = field.FromBytes(r.buf[r.pos : r.pos+32])
		r.pos += 32
	}
	return out, nil
}
