package timestamp

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Parse", t, func() {
		Convey("Should handle all three clock layouts", func() {
			So(Parse("1:02:03"), ShouldEqual, 3723)
			So(Parse("02:03"), ShouldEqual, 123)
			So(Parse("45"), ShouldEqual, 45)
		})

		Convey("Malformed parts resolve to zero", func() {
			So(Parse(""), ShouldEqual, 0)
			So(Parse("abc"), ShouldEqual, 0)
			So(Parse("1:xx:30"), ShouldEqual, 3630)
			So(Parse("xx:30"), ShouldEqual, 30)
		})
	})
}

func TestFormat(t *testing.T) {
	Convey("Format", t, func() {
		Convey("Should omit the hour field when zero", func() {
			So(Format(0), ShouldEqual, "00:00")
			So(Format(83), ShouldEqual, "01:23")
			So(Format(3599), ShouldEqual, "59:59")
		})

		Convey("Should render hours when present", func() {
			So(Format(3600), ShouldEqual, "01:00:00")
			So(Format(3723), ShouldEqual, "01:02:03")
		})

		Convey("Should clamp negatives and floor fractions", func() {
			So(Format(-5), ShouldEqual, "00:00")
			So(Format(61.9), ShouldEqual, "01:01")
		})
	})
}

func TestRoundTrip(t *testing.T) {
	Convey("Parse(Format(s)) equals floor(s) for non-negative s", t, func() {
		for _, s := range []float64{0, 1, 59.9, 60, 61.5, 3599, 3600, 3661.25, 86399} {
			Convey(fmt.Sprintf("s=%v", s), func() {
				So(Parse(Format(s)), ShouldEqual, int(s))
			})
		}
	})
}
