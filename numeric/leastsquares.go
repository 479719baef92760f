package numeric

import "math"

// pivotEpsilon is the magnitude below which a pivot is treated as zero.
const pivotEpsilon = 1e-12

// LeastSquares fits a polynomial of the given degree to (xs, ys) by solving
// the normal equations of the Vandermonde system with Gauss-Jordan
// elimination and partial pivoting. Columns whose pivot is near zero get a
// zero coefficient. It reports false when the result is not finite.
func LeastSquares(xs, ys []float64, degree int) ([]float64, bool) {
	if degree < 0 || len(xs) != len(ys) || len(xs) == 0 {
		return nil, false
	}
	m := degree + 1

	// Power sums sum(x^k) for k in [0, 2*degree].
	powerSums := make([]float64, 2*degree+1)
	rhs := make([]float64, m)
	for i, x := range xs {
		p := 1.0
		for k := 0; k <= 2*degree; k++ {
			powerSums[k] += p
			if k < m {
				rhs[k] += p * ys[i]
			}
			p *= x
		}
	}

	aug := make([][]float64, m)
	for r := 0; r < m; r++ {
		aug[r] = make([]float64, m+1)
		for c := 0; c < m; c++ {
			aug[r][c] = powerSums[r+c]
		}
		aug[r][m] = rhs[r]
	}

	for col := 0; col < m; col++ {
		pivot := col
		for r := col + 1; r < m; r++ {
			if math.Abs(aug[r][col]) > math.Abs(aug[pivot][col]) {
				pivot = r
			}
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		if math.Abs(aug[col][col]) < pivotEpsilon {
			continue
		}
		for r := 0; r < m; r++ {
			if r == col || aug[r][col] == 0 {
				continue
			}
			f := aug[r][col] / aug[col][col]
			for c := col; c <= m; c++ {
				aug[r][c] -= f * aug[col][c]
			}
		}
	}

	coeffs := make([]float64, m)
	for i := 0; i < m; i++ {
		if math.Abs(aug[i][i]) < pivotEpsilon {
			continue
		}
		coeffs[i] = aug[i][m] / aug[i][i]
		if math.IsNaN(coeffs[i]) || math.IsInf(coeffs[i], 0) {
			return nil, false
		}
	}
	return coeffs, true
}

// evalPolynomial evaluates coeffs at x with Horner's rule.
func evalPolynomial(coeffs []float64, x float64) float64 {
	var v float64
	for k := len(coeffs) - 1; k >= 0; k-- {
		v = v*x + coeffs[k]
	}
	return v
}
