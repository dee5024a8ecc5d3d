package media

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		Convey("Should accept http and https URLs", func() {
			for _, link := range []string{"http://example.com/v.mp4", "https://example.com/v.mp4"} {
				out, err := sanitizeMediaTarget(link)
				So(err, ShouldBeNil)
				So(out, ShouldEqual, link)
			}
		})

		Convey("Should reject flag-like input", func() {
			_, err := sanitizeMediaTarget("--input-ipc-server=/tmp/x")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject unsupported schemes", func() {
			_, err := sanitizeMediaTarget("ftp://example.com/v.mp4")
			So(err, ShouldNotBeNil)
		})

		Convey("Should reject control characters", func() {
			_, err := sanitizeMediaTarget("http://example.com/\n--evil")
			So(err, ShouldNotBeNil)
		})

		Convey("Should clean local paths", func() {
			out, err := sanitizeMediaTarget("./videos//lecture.mp4")
			So(err, ShouldBeNil)
			So(out, ShouldEqual, "videos/lecture.mp4")
		})
	})
}

func TestSanitizeTitle(t *testing.T) {
	Convey("sanitizeTitle", t, func() {
		So(sanitizeTitle("a\nb\tc\x00"), ShouldEqual, "a b c")
	})
}

func TestMemory(t *testing.T) {
	Convey("Memory element", t, func() {
		el := NewMemory("file://lecture.mp4", 120)

		Convey("Should report its source and duration", func() {
			So(el.Src(), ShouldEqual, "file://lecture.mp4")
			d, err := el.Duration()
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 120)
		})

		Convey("Advance should move the clock and notify the observer", func() {
			var got float64
			So(el.Observe(func(property string, data interface{}) {
				if property == "time-pos" {
					got = data.(float64)
				}
			}), ShouldBeNil)

			el.Advance(42)
			So(got, ShouldEqual, 42)

			pos, _ := el.CurrentTime()
			So(pos, ShouldEqual, 42)
		})

		Convey("Close should mark the element dead", func() {
			So(el.Alive(), ShouldBeTrue)
			So(el.Close(), ShouldBeNil)
			So(el.Alive(), ShouldBeFalse)
		})
	})
}
