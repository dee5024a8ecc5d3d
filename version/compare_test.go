package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Given two semantic versions", t, func() {
		Convey("Greater comes out greater", func() {
			So(compare("1.2.3", "1.2.2"), ShouldEqual, 1)
			So(compare("2.0.0", "1.9.9"), ShouldEqual, 1)
			So(compare("v1.3.0", "1.2.9"), ShouldEqual, 1)
		})

		Convey("Lesser comes out lesser", func() {
			So(compare("0.1.0", "0.2.0"), ShouldEqual, -1)
		})

		Convey("Equal comes out equal", func() {
			So(compare("1.0.0", "v1.0.0"), ShouldEqual, 0)
		})

		Convey("Garbage is rejected", func() {
			_, err := Compare("not-a-version", "1.0.0")
			So(err, ShouldNotBeNil)
		})
	})
}

func compare(a, b string) int {
	c, err := Compare(a, b)
	So(err, ShouldBeNil)
	return c
}
