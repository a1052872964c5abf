package detect

import (
	"errors"
	"testing"

	"github.com/okian/welltest/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWindows(t *testing.T) {
	Convey("Given a 300-sample record", t, func() {
		p := DefaultParams()

		Convey("When a recovery window would end past the last sample", func() {
			_, err := recoveryWindow(100, 300, p)

			Convey("Then it is out of range and rejected as such", func() {
				So(errors.Is(err, model.ErrOutOfRange), ShouldBeTrue)
				_, reason := accept(model.Series{}, window{}, err, p)
				So(reason, ShouldEqual, ReasonOutOfRange)
			})
		})

		Convey("When a window ends exactly at the series length", func() {
			_, err := bounded(10, 300, 300)
			So(errors.Is(err, model.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When a drawdown window fits", func() {
			w, err := drawdownWindow(100, 300, p)

			Convey("Then it starts peak_offset before the trigger and stretches by 10%", func() {
				So(err, ShouldBeNil)
				So(w.start, ShouldEqual, 70)
				So(w.end, ShouldEqual, 70+33)
			})
		})
	})
}
