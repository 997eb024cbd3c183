package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/copyleftdev/FJORD/internal/benchmark"
	"github.com/copyleftdev/FJORD/internal/solver"
	"github.com/copyleftdev/FJORD/internal/solver/registry"
)

var (
	solveStrategy  string
	solveObjective string
	solveMaximize  bool
	solveBudget    int
	solveSeed      int64
	solveParams    []string
	solveStart     []string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run a single solve against a named objective",
	Long: `Runs one optimization in-process and prints the result as JSON.

Box-constrained strategies take --param name=lower:upper; nelder-mead takes
--start name=value instead.`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&solveStrategy, "strategy", "particle swarm", "Search strategy")
	solveCmd.Flags().StringVar(&solveObjective, "objective", "sphere", "Objective function name")
	solveCmd.Flags().BoolVar(&solveMaximize, "maximize", false, "Maximize instead of minimize")
	solveCmd.Flags().IntVar(&solveBudget, "budget", 100, "Evaluation budget")
	solveCmd.Flags().Int64Var(&solveSeed, "seed", 0, "Random seed (0 = time-based)")
	solveCmd.Flags().StringArrayVar(&solveParams, "param", nil, "Box constraint as name=lower:upper (repeatable)")
	solveCmd.Flags().StringArrayVar(&solveStart, "start", nil, "Start value as name=value (repeatable)")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	bounds, err := parseBounds(solveParams)
	if err != nil {
		return err
	}
	start, err := parseStart(solveStart)
	if err != nil {
		return err
	}

	objective, err := benchmark.Lookup(solveObjective)
	if err != nil {
		return err
	}
	strat, err := registry.Build(registry.Spec{
		Strategy: solveStrategy,
		Bounds:   bounds,
		Start:    start,
		NumEvals: solveBudget,
		Seed:     solveSeed,
	})
	if err != nil {
		return err
	}

	logger.Info("starting solve",
		zap.String("strategy", solveStrategy),
		zap.String("objective", solveObjective),
		zap.Int("budget", solveBudget),
	)

	began := time.Now()
	best, report, err := strat.Optimize(context.Background(), objective, solveMaximize, solver.Sequential())
	if err != nil {
		return err
	}
	elapsed := time.Since(began)

	value, err := objective(best)
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"strategy":  solveStrategy,
		"objective": solveObjective,
		"best":      best,
		"value":     value,
		"elapsed":   elapsed.String(),
	}
	if report != nil {
		out["evaluations_logged"] = len(report.Log)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseBounds(specs []string) (solver.Bounds, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	bounds := make(solver.Bounds, len(specs))
	for _, spec := range specs {
		name, rest, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, want name=lower:upper", spec)
		}
		loStr, hiStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, want name=lower:upper", spec)
		}
		lo, err := strconv.ParseFloat(loStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound in %q: %w", spec, err)
		}
		hi, err := strconv.ParseFloat(hiStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound in %q: %w", spec, err)
		}
		bounds[name] = [2]float64{lo, hi}
	}
	return bounds, nil
}

func parseStart(specs []string) (solver.Assignment, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	start := make(solver.Assignment, len(specs))
	for _, spec := range specs {
		name, valStr, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --start %q, want name=value", spec)
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value in %q: %w", spec, err)
		}
		start[name] = val
	}
	return start, nil
}
