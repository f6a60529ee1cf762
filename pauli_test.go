package qmps

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPauli(t *testing.T) {
	Convey("Given the Pauli operators", t, func() {
		Convey("They should print their conventional names", func() {
			So(PauliI.String(), ShouldEqual, "I")
			So(PauliX.String(), ShouldEqual, "X")
			So(PauliY.String(), ShouldEqual, "Y")
			So(PauliZ.String(), ShouldEqual, "Z")
		})

		Convey("Y should carry the imaginary off-diagonal", func() {
			m := PauliY.matrix()
			So(m[1], ShouldEqual, complex(0, -1))
			So(m[2], ShouldEqual, complex(0, 1))
		})
	})

	Convey("Given a Pauli sum", t, func() {
		sum := PauliSum{
			{Coefficient: 0.5, Ops: map[int]Pauli{0: PauliZ, 4: PauliX}},
			{Coefficient: -1, Ops: map[int]Pauli{2: PauliY}},
		}

		Convey("The sum should fit a state covering its highest index", func() {
			_, out := sum.qubitOutside(5)
			So(out, ShouldBeFalse)
		})

		Convey("A state one qubit too narrow should be flagged", func() {
			q, out := sum.qubitOutside(4)
			So(out, ShouldBeTrue)
			So(q, ShouldEqual, 4)
		})

		Convey("A negative index should be flagged", func() {
			neg := PauliSum{{Coefficient: 1, Ops: map[int]Pauli{-1: PauliZ}}}
			q, out := neg.qubitOutside(3)
			So(out, ShouldBeTrue)
			So(q, ShouldEqual, -1)
		})

		Convey("Identities should not count as touched", func() {
			idOnly := PauliSum{{Coefficient: 1, Ops: map[int]Pauli{9: PauliI}}}
			_, out := idOnly.qubitOutside(1)
			So(out, ShouldBeFalse)
		})
	})
}
