package qmps

/*
mpsState is a matrix-product representation of an n-qubit state at a fixed
bond dimension. Site i is a (chi[i], 2, chi[i+1]) tensor stored row-major
inside a fixed-capacity 2*d*d block, so growing and shrinking bonds during
a circuit never reallocates. chi[0] and chi[n] are always 1.

Site axis layout follows the usual (left, physical, right) convention:
element (l, p, r) of site i lives at blocks[i][(l*2+p)*chi[i+1]+r].
*/
type mpsState struct {
	n       int
	bondDim int
	chi     []int
	blocks  [][]complex128
}

func newMPSState(n, bondDim int) *mpsState {
	st := &mpsState{
		n:       n,
		bondDim: bondDim,
		chi:     make([]int, n+1),
		blocks:  make([][]complex128, n),
	}
	for i := range st.blocks {
		st.blocks[i] = make([]complex128, 2*bondDim*bondDim)
	}
	st.setZero()
	return st
}

// setZero resets the state to |00...0>. Only the in-use prefix of each
// block is written; stale data beyond the bond dimensions is never read.
func (st *mpsState) setZero() {
	for i := 0; i <= st.n; i++ {
		st.chi[i] = 1
	}
	for i := 0; i < st.n; i++ {
		st.blocks[i][0] = 1
		st.blocks[i][1] = 0
	}
}

func (st *mpsState) siteLen(i int) int {
	return st.chi[i] * 2 * st.chi[i+1]
}

func (st *mpsState) copyFrom(src *mpsState) {
	copy(st.chi, src.chi)
	for i := 0; i < st.n; i++ {
		copy(st.blocks[i][:src.siteLen(i)], src.blocks[i][:src.siteLen(i)])
	}
}

// applyOne contracts a 2x2 unitary into site q. Bond dimensions are
// unchanged, so this is always exact.
func (st *mpsState) applyOne(q int, m []complex128) {
	chiL, chiR := st.chi[q], st.chi[q+1]
	blk := st.blocks[q]
	for l := 0; l < chiL; l++ {
		for r := 0; r < chiR; r++ {
			i0 := (l*2+0)*chiR + r
			i1 := (l*2+1)*chiR + r
			a0, a1 := blk[i0], blk[i1]
			blk[i0] = m[0]*a0 + m[1]*a1
			blk[i1] = m[2]*a0 + m[3]*a1
		}
	}
}

/*
applyTwo contracts a 4x4 unitary into adjacent sites q and q+1. The two
sites are merged into a theta tensor, the unitary is applied, and the
result is split back by SVD. When the split needs more than bondDim
singular values, the smallest are dropped; truncated reports whether that
happened. The matrix treats site q as the most significant bit.
*/
func (st *mpsState) applyTwo(q int, m []complex128) (truncated bool) {
	chiL, chiM, chiR := st.chi[q], st.chi[q+1], st.chi[q+2]
	a, b := st.blocks[q], st.blocks[q+1]

	// theta[l, p0, p1, r] = sum_k a[l, p0, k] * b[k, p1, r]
	theta := make([]complex128, chiL*4*chiR)
	for l := 0; l < chiL; l++ {
		for p0 := 0; p0 < 2; p0++ {
			for k := 0; k < chiM; k++ {
				av := a[(l*2+p0)*chiM+k]
				if av == 0 {
					continue
				}
				for p1 := 0; p1 < 2; p1++ {
					for r := 0; r < chiR; r++ {
						theta[((l*2+p0)*2+p1)*chiR+r] += av * b[(k*2+p1)*chiR+r]
					}
				}
			}
		}
	}

	// theta2[l, p, r] = sum_p' m[p][p'] * theta[l, p', r] with p the
	// combined physical index p0*2+p1.
	theta2 := make([]complex128, chiL*4*chiR)
	for l := 0; l < chiL; l++ {
		for p := 0; p < 4; p++ {
			for pp := 0; pp < 4; pp++ {
				mv := m[p*4+pp]
				if mv == 0 {
					continue
				}
				for r := 0; r < chiR; r++ {
					theta2[(l*4+p)*chiR+r] += mv * theta[(l*4+pp)*chiR+r]
				}
			}
		}
	}

	// Split theta2 as a (chiL*2) x (2*chiR) matrix: rows l*2+p0, columns
	// p1*chiR+r. That ordering is already how theta2 is laid out.
	rows, cols := chiL*2, 2*chiR
	u, s, v := svdJacobi(theta2, rows, cols)

	rank := 0
	cutoff := 0.0
	if len(s) > 0 {
		cutoff = s[0] * 1e-13
	}
	for _, sv := range s {
		if sv > cutoff {
			rank++
		}
	}
	if rank < 1 {
		rank = 1
	}
	keep := rank
	if keep > st.bondDim {
		keep = st.bondDim
		truncated = true
	}

	// Site q takes the leading columns of u; site q+1 absorbs the
	// singular values into the rows of vH.
	st.chi[q+1] = keep
	for l := 0; l < chiL; l++ {
		for p0 := 0; p0 < 2; p0++ {
			for k := 0; k < keep; k++ {
				a[(l*2+p0)*keep+k] = u[(l*2+p0)*cols+k]
			}
		}
	}
	for k := 0; k < keep; k++ {
		sv := complex(s[k], 0)
		for p1 := 0; p1 < 2; p1++ {
			for r := 0; r < chiR; r++ {
				vH := conj(v[(p1*chiR+r)*cols+k])
				b[(k*2+p1)*chiR+r] = sv * vH
			}
		}
	}
	return truncated
}

// innerProduct contracts <bra|ket> over the shared chain using a transfer
// matrix swept left to right.
func innerProduct(bra, ket *mpsState) complex128 {
	env := []complex128{1}
	chiA, chiB := 1, 1

	for i := 0; i < bra.n; i++ {
		ra, rb := bra.chi[i+1], ket.chi[i+1]
		a, b := bra.blocks[i], ket.blocks[i]

		// tmp[la, p, rb] = sum_lb env[la, lb] * ket[lb, p, rb]
		tmp := make([]complex128, chiA*2*rb)
		for la := 0; la < chiA; la++ {
			for lb := 0; lb < chiB; lb++ {
				ev := env[la*chiB+lb]
				if ev == 0 {
					continue
				}
				for p := 0; p < 2; p++ {
					for r := 0; r < rb; r++ {
						tmp[(la*2+p)*rb+r] += ev * b[(lb*2+p)*rb+r]
					}
				}
			}
		}

		// env'[ra, rb] = sum_{la, p} conj(bra[la, p, ra]) * tmp[la, p, rb]
		next := make([]complex128, ra*rb)
		for la := 0; la < chiA; la++ {
			for p := 0; p < 2; p++ {
				for r := 0; r < ra; r++ {
					av := conj(a[(la*2+p)*ra+r])
					if av == 0 {
						continue
					}
					for rB := 0; rB < rb; rB++ {
						next[r*rb+rB] += av * tmp[(la*2+p)*rb+rB]
					}
				}
			}
		}

		env = next
		chiA, chiB = ra, rb
	}
	return env[0]
}

func conj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
