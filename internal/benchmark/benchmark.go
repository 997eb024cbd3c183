// Package benchmark provides the named objective functions the service and
// CLI can optimize. All functions are pure and total over any finite input.
package benchmark

import (
	"math"
	"sort"
	"strings"

	"github.com/copyleftdev/FJORD/internal/solver"
)

var functions = map[string]solver.Objective{
	"sphere":     Sphere,
	"rosenbrock": Rosenbrock,
	"rastrigin":  Rastrigin,
	"eggholder":  Eggholder,
}

// Names returns the available objective names in sorted order.
func Names() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup resolves an objective by name.
func Lookup(name string) (solver.Objective, error) {
	f, ok := functions[name]
	if !ok {
		return nil, solver.Newf("unknown objective %q, have: %s", name, strings.Join(Names(), ", ")).
			WithComponent("benchmark").WithOp("lookup")
	}
	return f, nil
}

func vector(a solver.Assignment) []float64 {
	names := a.Names()
	x := make([]float64, len(names))
	for i, name := range names {
		x[i] = a[name]
	}
	return x
}

// Sphere is sum(x_i^2), minimum 0 at the origin.
func Sphere(a solver.Assignment) (float64, error) {
	sum := 0.0
	for _, v := range a {
		sum += v * v
	}
	return sum, nil
}

// Rosenbrock is the classic banana valley, minimum 0 at (1, ..., 1).
// Parameters pair up in sorted name order.
func Rosenbrock(a solver.Assignment) (float64, error) {
	x := vector(a)
	if len(x) < 2 {
		return 0, solver.New("rosenbrock needs at least two parameters").WithComponent("benchmark")
	}
	sum := 0.0
	for i := 0; i < len(x)-1; i++ {
		sum += 100*math.Pow(x[i+1]-x[i]*x[i], 2) + math.Pow(1-x[i], 2)
	}
	return sum, nil
}

// Rastrigin is highly multimodal, minimum 0 at the origin.
func Rastrigin(a solver.Assignment) (float64, error) {
	sum := 10.0 * float64(len(a))
	for _, v := range a {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum, nil
}

// Eggholder is a two-parameter multimodal surface with its minimum of about
// -959.64 at (512, 404.23). Parameters map to (x, y) in sorted name order.
func Eggholder(a solver.Assignment) (float64, error) {
	v := vector(a)
	if len(v) != 2 {
		return 0, solver.New("eggholder needs exactly two parameters").WithComponent("benchmark")
	}
	x, y := v[0], v[1]
	return -(y+47)*math.Sin(math.Sqrt(math.Abs(x/2+y+47))) -
		x*math.Sin(math.Sqrt(math.Abs(x-(y+47)))), nil
}
