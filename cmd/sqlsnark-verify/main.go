// Command sqlsnark-verify is a thin CLI wrapper around verify.Verify: it
// reads the serialized inputs from files and flags, runs the verifier, and
// exits with a status matching the three-valued outcome.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/vocdoni/sqlsnark-verify/config"
	"github.com/vocdoni/sqlsnark-verify/hyperkzg"
	"github.com/vocdoni/sqlsnark-verify/log"
	"github.com/vocdoni/sqlsnark-verify/verify"
)

func main() {
	fs := flag.NewFlagSet("sqlsnark-verify", flag.ExitOnError)
	config.RegisterFlags(fs)

	queryPath := fs.String("query", "", "path to the query text file")
	schemaPath := fs.String("schema", "", "path to the schema text file")
	sigmaPath := fs.String("sigma", "", "path to the sigma text file")
	planPath := fs.String("plan", "", "path to the serialized plan bytes")
	proofPath := fs.String("proof", "", "path to the serialized proof bytes")
	resultPath := fs.String("result", "", "path to the serialized result bytes")
	numVars := fs.Int("num-vars", 0, "number of sumcheck variables")
	degree := fs.Int("degree", 0, "sumcheck round polynomial degree")
	filterTable := fs.Int("filter-table", 0, "table index the root FilterExec operates over")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "sqlsnark-verify:", err)
		os.Exit(int(verify.ParseError))
	}

	cfg, err := config.Bind(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sqlsnark-verify:", err)
		os.Exit(int(verify.ParseError))
	}
	log.Init(cfg.Log.Level, cfg.Log.Output)

	req, err := buildRequest(cfg, *queryPath, *schemaPath, *sigmaPath, *planPath, *proofPath, *resultPath, *numVars, *degree, *filterTable)
	if err != nil {
		log.Errorw(err, "failed to build verification request")
		os.Exit(int(verify.ParseError))
	}

	outcome := verify.Verify(*log.Logger(), req)
	fmt.Println(outcome.String())
	os.Exit(int(outcome))
}

func buildRequest(cfg *config.Config, queryPath, schemaPath, sigmaPath, planPath, proofPath, resultPath string, numVars, degree, filterTable int) (verify.Request, error) {
	query, err := os.ReadFile(queryPath)
	if err != nil {
		return verify.Request{}, fmt.Errorf("read query: %w", err)
	}
	schema, err := os.ReadFile(schemaPath)
	if err != nil {
		return verify.Request{}, fmt.Errorf("read schema: %w", err)
	}
	sigma, err := os.ReadFile(sigmaPath)
	if err != nil {
		return verify.Request{}, fmt.Errorf("read sigma: %w", err)
	}
	plan, err := os.ReadFile(planPath)
	if err != nil {
		return verify.Request{}, fmt.Errorf("read plan: %w", err)
	}
	proof, err := os.ReadFile(proofPath)
	if err != nil {
		return verify.Request{}, fmt.Errorf("read proof: %w", err)
	}
	result, err := os.ReadFile(resultPath)
	if err != nil {
		return verify.Request{}, fmt.Errorf("read result: %w", err)
	}
	setup, err := config.ReadSetup(cfg.Setup.Path)
	if err != nil {
		return verify.Request{}, err
	}
	if _, err := hyperkzg.ParseSetup(setup); err != nil {
		return verify.Request{}, fmt.Errorf("parse verifier setup: %w", err)
	}

	return verify.Request{
		Query:          string(query),
		Schema:         string(schema),
		Sigma:          string(sigma),
		PlanBytes:      plan,
		ProofBytes:     proof,
		ResultBytes:    result,
		VerifierSetup:  setup,
		NumVars:        numVars,
		SumcheckDegree: degree,
		FilterTableIdx: filterTable,
	}, nil
}
