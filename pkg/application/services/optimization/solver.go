package optimization

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// LinearProgram is a problem in standard form: minimize Objective·x subject to
// Constraints·x = RHS and x >= 0
type LinearProgram struct {
	Objective   []float64
	Constraints *mat.Dense
	RHS         []float64
}

// Solution is an optimal point of a LinearProgram
type Solution struct {
	Objective float64
	X         []float64
}

// Solver solves standard-form linear programs
type Solver interface {
	Solve(ctx context.Context, program *LinearProgram) (Solution, error)
}

// DefaultTolerance is the reduced-cost tolerance passed to the simplex method
const DefaultTolerance = 1e-10

// SimplexSolver solves programs with gonum's simplex implementation
type SimplexSolver struct {
	Tolerance float64
}

// NewSimplexSolver creates a simplex solver with the default tolerance
func NewSimplexSolver() *SimplexSolver {
	return &SimplexSolver{Tolerance: DefaultTolerance}
}

// Verify interface compliance
var _ Solver = (*SimplexSolver)(nil)

type solveResult struct {
	solution Solution
	err      error
}

// Solve runs the simplex method. The method itself is not interruptible; when ctx
// ends first the result is abandoned and ctx.Err() is returned.
func (s *SimplexSolver) Solve(ctx context.Context, program *LinearProgram) (Solution, error) {
	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}
	if program == nil || program.Constraints == nil {
		return Solution{}, errors.New("empty linear program")
	}

	done := make(chan solveResult, 1)
	go func() {
		done <- s.solve(program)
	}()

	select {
	case <-ctx.Done():
		return Solution{}, ctx.Err()
	case res := <-done:
		return res.solution, res.err
	}
}

func (s *SimplexSolver) solve(program *LinearProgram) (res solveResult) {
	// lp.Simplex panics on malformed dimensions
	defer func() {
		if r := recover(); r != nil {
			res = solveResult{err: fmt.Errorf("simplex: %v", r)}
		}
	}()

	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	optF, optX, err := lp.Simplex(program.Objective, program.Constraints, program.RHS, tol, nil)
	if err != nil {
		return solveResult{err: fmt.Errorf("simplex: %w", err)}
	}
	return solveResult{solution: Solution{Objective: optF, X: optX}}
}
