package qmps

import (
	"math"
	"math/cmplx"
	"sort"
)

const (
	svdMaxSweeps = 64
	svdTol       = 1e-14
)

/*
svdJacobi factors the m x n row-major matrix a as a = u * diag(s) * vH,
where u is m x n with orthonormal columns, s holds the singular values in
descending order and v is n x n unitary (vH meaning the conjugate transpose
of v is the right factor). a is left untouched.

One-sided Jacobi: repeatedly apply two-column unitary rotations on the
right until all column pairs are orthogonal. The same rotations accumulate
into v. The split matrices this module produces never exceed 2d x 2d for
bond dimension d, so the quadratic pair sweep is cheap.
*/
func svdJacobi(a []complex128, m, n int) (u []complex128, s []float64, v []complex128) {
	// Work on columns: w[j][i] = a[i][j].
	w := make([][]complex128, n)
	vc := make([][]complex128, n)
	for j := 0; j < n; j++ {
		w[j] = make([]complex128, m)
		for i := 0; i < m; i++ {
			w[j][i] = a[i*n+j]
		}
		vc[j] = make([]complex128, n)
		vc[j][j] = 1
	}

	for sweep := 0; sweep < svdMaxSweeps; sweep++ {
		rotated := false
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				var alpha, beta float64
				var gamma complex128
				for i := 0; i < m; i++ {
					wp, wq := w[p][i], w[q][i]
					alpha += real(wp)*real(wp) + imag(wp)*imag(wp)
					beta += real(wq)*real(wq) + imag(wq)*imag(wq)
					gamma += cmplx.Conj(wp) * wq
				}
				absG := cmplx.Abs(gamma)
				if absG <= svdTol*math.Sqrt(alpha*beta) || alpha == 0 || beta == 0 {
					continue
				}
				rotated = true

				// Strip the phase of gamma so the 2x2 Gram block is real,
				// then apply the classic real Jacobi rotation.
				phase := gamma / complex(absG, 0)
				tau := (beta - alpha) / (2 * absG)
				t := 1 / (math.Abs(tau) + math.Sqrt(1+tau*tau))
				if tau < 0 {
					t = -t
				}
				cs := 1 / math.Sqrt(1+t*t)
				sn := cs * t

				conjPhase := cmplx.Conj(phase)
				for i := 0; i < m; i++ {
					wp := w[p][i]
					wq := conjPhase * w[q][i]
					w[p][i] = complex(cs, 0)*wp - complex(sn, 0)*wq
					w[q][i] = complex(sn, 0)*wp + complex(cs, 0)*wq
				}
				for i := 0; i < n; i++ {
					vp := vc[p][i]
					vq := conjPhase * vc[q][i]
					vc[p][i] = complex(cs, 0)*vp - complex(sn, 0)*vq
					vc[q][i] = complex(sn, 0)*vp + complex(cs, 0)*vq
				}
			}
		}
		if !rotated {
			break
		}
	}

	norms := make([]float64, n)
	order := make([]int, n)
	for j := 0; j < n; j++ {
		var sum float64
		for i := 0; i < m; i++ {
			c := w[j][i]
			sum += real(c)*real(c) + imag(c)*imag(c)
		}
		norms[j] = math.Sqrt(sum)
		order[j] = j
	}
	sort.SliceStable(order, func(x, y int) bool {
		return norms[order[x]] > norms[order[y]]
	})

	u = make([]complex128, m*n)
	s = make([]float64, n)
	v = make([]complex128, n*n)
	for k, j := range order {
		s[k] = norms[j]
		if s[k] > 0 {
			inv := complex(1/s[k], 0)
			for i := 0; i < m; i++ {
				u[i*n+k] = w[j][i] * inv
			}
		}
		for i := 0; i < n; i++ {
			v[i*n+k] = vc[j][i]
		}
	}
	return u, s, v
}
