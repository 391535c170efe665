package sensitivity

import (
	"fmt"
	"math"
	"sort"

	"fundamentalengine/pkg/core/valuation"
)

// Point is one (variable value, resulting fair value) sample from a
// one-way sweep.
type Point struct {
	Value     float64
	FairValue float64
}

// OneWay implements §4.I's one_way: vary a single variable across
// n_points points spanning [lo, hi] inclusive, rerunning value at each.
func OneWay(base valuation.Params, variable string, lo, hi float64, n int, value ValueFunc) ([]Point, error) {
	v, ok := Lookup(variable)
	if !ok {
		return nil, fmt.Errorf("sensitivity: unknown variable %q", variable)
	}
	if n < 2 {
		return nil, fmt.Errorf("sensitivity: n_points must be >= 2, got %d", n)
	}

	points := make([]Point, n)
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		x := lo + step*float64(i)
		fv, err := value(with(base, v, x))
		if err != nil {
			return nil, fmt.Errorf("sensitivity: one_way at %s=%f: %w", variable, x, err)
		}
		points[i] = Point{Value: x, FairValue: fv}
	}
	return points, nil
}

// GridPoint is one cell of a two-way sweep's Cartesian product.
type GridPoint struct {
	X, Y, FairValue float64
}

// TwoWay implements §4.I's two_way: the Cartesian product of nx points
// over vx and ny points over vy.
func TwoWay(base valuation.Params, vx, vy string, loX, hiX float64, nx int, loY, hiY float64, ny int, value ValueFunc) ([]GridPoint, error) {
	x, ok := Lookup(vx)
	if !ok {
		return nil, fmt.Errorf("sensitivity: unknown variable %q", vx)
	}
	y, ok := Lookup(vy)
	if !ok {
		return nil, fmt.Errorf("sensitivity: unknown variable %q", vy)
	}
	if nx < 2 || ny < 2 {
		return nil, fmt.Errorf("sensitivity: nx and ny must each be >= 2, got nx=%d ny=%d", nx, ny)
	}

	stepX := (hiX - loX) / float64(nx-1)
	stepY := (hiY - loY) / float64(ny-1)

	grid := make([]GridPoint, 0, nx*ny)
	for i := 0; i < nx; i++ {
		vxVal := loX + stepX*float64(i)
		withX := with(base, x, vxVal)
		for j := 0; j < ny; j++ {
			vyVal := loY + stepY*float64(j)
			fv, err := value(with(withX, y, vyVal))
			if err != nil {
				return nil, fmt.Errorf("sensitivity: two_way at %s=%f,%s=%f: %w", vx, vxVal, vy, vyVal, err)
			}
			grid = append(grid, GridPoint{X: vxVal, Y: vyVal, FairValue: fv})
		}
	}
	return grid, nil
}

// TornadoEntry is one variable's low/high fair value and the |impact| a
// tornado diagram ranks by.
type TornadoEntry struct {
	Variable   string
	Low, High  float64
	Impact     float64
}

// Tornado implements §4.I's tornado: for each variable, perturb base±pct
// and rank by |high - low| descending.
func Tornado(base valuation.Params, variables []string, pct float64, value ValueFunc) ([]TornadoEntry, error) {
	entries := make([]TornadoEntry, 0, len(variables))
	for _, name := range variables {
		v, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("sensitivity: unknown variable %q", name)
		}
		baseVal := v.Get(base)
		lowVal := baseVal * (1 - pct)
		highVal := baseVal * (1 + pct)

		low, err := value(with(base, v, lowVal))
		if err != nil {
			return nil, fmt.Errorf("sensitivity: tornado low for %s: %w", name, err)
		}
		high, err := value(with(base, v, highVal))
		if err != nil {
			return nil, fmt.Errorf("sensitivity: tornado high for %s: %w", name, err)
		}

		entries = append(entries, TornadoEntry{
			Variable: name,
			Low:      low,
			High:     high,
			Impact:   math.Abs(high - low),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Impact > entries[j].Impact })
	return entries, nil
}
