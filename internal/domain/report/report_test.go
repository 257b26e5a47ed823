package report_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/resumescore/internal/domain/model"
	report "github.com/okian/resumescore/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLabelAndTone(t *testing.T) {
	Convey("Given score thresholds", t, func() {
		cases := []struct {
			score int
			label string
			tone  string
		}{
			{100, "Excellent", "success"},
			{80, "Excellent", "success"},
			{79, "Good", "warning"},
			{60, "Good", "warning"},
			{59, "Needs Improvement", "destructive"},
			{0, "Needs Improvement", "destructive"},
		}

		Convey("Then each score should map to its label and tone", func() {
			for _, c := range cases {
				So(report.Label(c.score), ShouldEqual, c.label)
				So(report.Tone(c.score), ShouldEqual, c.tone)
			}
		})
	})
}

func TestSample(t *testing.T) {
	Convey("Given the sample report", t, func() {
		r := report.Sample()

		Convey("Then it should carry the fixed overall score", func() {
			So(r.Overall, ShouldEqual, 78)
			So(r.Label, ShouldEqual, "Good")
			So(r.Tone, ShouldEqual, "warning")
		})

		Convey("And it should list the four categories in order", func() {
			So(len(r.Categories), ShouldEqual, 4)
			So(r.Categories[0].Name, ShouldEqual, "Format & Structure")
			So(r.Categories[0].Score, ShouldEqual, 85)
			So(r.Categories[1].Score, ShouldEqual, 72)
			So(r.Categories[2].Name, ShouldEqual, "Keywords & ATS")
			So(r.Categories[2].Status, ShouldEqual, report.StatusWarning)
			So(r.Categories[3].Score, ShouldEqual, 88)
		})

		Convey("And it should include both tip groups", func() {
			So(len(r.Tips), ShouldEqual, 2)
			So(r.Tips[0].Title, ShouldEqual, "Content Enhancement")
			So(r.Tips[1].Title, ShouldEqual, "Format Optimization")
		})

		Convey("And callers should get independent copies", func() {
			r.Categories[0].Score = 1
			So(report.Sample().Categories[0].Score, ShouldEqual, 85)
		})
	})
}

func TestBuild(t *testing.T) {
	Convey("Given out of range scores", t, func() {
		r := report.Build(140, []model.Category{{Name: "x", Score: -5}})

		Convey("Then they should be clamped", func() {
			So(r.Overall, ShouldEqual, 100)
			So(r.Categories[0].Score, ShouldEqual, 0)
			So(r.Label, ShouldEqual, "Excellent")
		})
	})
}

func TestSampleAnalyzer(t *testing.T) {
	Convey("Given a sample analyzer", t, func() {
		file := model.CandidateFile{Name: "cv.pdf", Size: 10, MIMEType: "application/pdf"}

		Convey("When analyzing without latency", func() {
			a := report.NewSampleAnalyzer()
			r, err := a.Analyze(context.Background(), file)

			Convey("Then it should return the sample report", func() {
				So(err, ShouldBeNil)
				So(r.Overall, ShouldEqual, 78)
			})
		})

		Convey("When analyzing with latency", func() {
			a := report.NewSampleAnalyzer(report.WithLatencyRange(10*time.Millisecond, 20*time.Millisecond))
			start := time.Now()
			_, err := a.Analyze(context.Background(), file)

			Convey("Then it should wait at least the minimum latency", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 10*time.Millisecond)
			})
		})

		Convey("When the context is cancelled", func() {
			a := report.NewSampleAnalyzer(report.WithLatencyRange(time.Second, 2*time.Second))
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := a.Analyze(ctx, file)

			Convey("Then it should return the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When an invalid latency range is given", func() {
			a := report.NewSampleAnalyzer(report.WithLatencyRange(time.Second, time.Millisecond))
			start := time.Now()
			_, err := a.Analyze(context.Background(), file)

			Convey("Then the option should be ignored", func() {
				So(err, ShouldBeNil)
				So(time.Since(start), ShouldBeLessThan, 500*time.Millisecond)
			})
		})
	})
}
