package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "question", "questions"), ShouldEqual, "1 question")
		So(Quantify(3, "question", "questions"), ShouldEqual, "3 questions")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestMinMax(t *testing.T) {
	Convey("Min and Max", t, func() {
		So(Max(1, 5, 3), ShouldEqual, 5)
		So(Min(1, 5, 3), ShouldEqual, 1)
		So(Max[int](), ShouldEqual, 0)
		So(Min(2.5, 0.25), ShouldEqual, 0.25)
	})
}
