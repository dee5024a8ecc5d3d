package client

import (
	"strings"
	"testing"

	"github.com/ivq-cli/ivq/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestID(t *testing.T) {
	Convey("Given a fresh store", t, func() {
		Convey("When requesting the client identity", func() {
			id, err := ID()

			Convey("Then a prefixed identifier is generated", func() {
				So(err, ShouldBeNil)
				So(strings.HasPrefix(id, "client-"), ShouldBeTrue)
				So(len(id), ShouldEqual, len("client-")+32)
			})

			Convey("And subsequent requests reuse it", func() {
				again, err := ID()
				So(err, ShouldBeNil)
				So(again, ShouldEqual, id)
			})
		})
	})
}
