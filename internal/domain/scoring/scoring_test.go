package scoring_test

import (
	"strings"
	"testing"

	"github.com/okian/candle/internal/domain/scoring"
	"github.com/okian/candle/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScoreFromBankroll(t *testing.T) {
	Convey("Given bankrolls", t, func() {
		So(scoring.ScoreFromBankroll(850), ShouldEqual, 850)
		So(scoring.ScoreFromBankroll(0), ShouldEqual, 0)
		So(scoring.ScoreFromBankroll(-150), ShouldEqual, 0)
	})
}

func TestBucketForScore(t *testing.T) {
	Convey("Given scores across the range", t, func() {
		cases := []struct {
			score, bucket int
		}{
			{0, 0}, {-10, 0}, {99, 0}, {100, 1}, {550, 5}, {899, 8}, {900, 9}, {1000, 9}, {5000, 9},
		}
		for _, c := range cases {
			So(scoring.BucketForScore(c.score), ShouldEqual, c.bucket)
		}
	})
}

func TestFinalScore(t *testing.T) {
	Convey("Given sessions in each state", t, func() {
		e := session.NewEngine()

		Convey("Then an open session has no score", func() {
			_, ok := scoring.FinalScore(e.New("p"))
			So(ok, ShouldBeFalse)
		})

		Convey("Then a win scores the bankroll at the winning guess", func() {
			s, _ := e.BuyHint(e.New("p"), "description")
			s, _ = e.SubmitGuess(s, "x", "MSFT")
			s, _ = e.SubmitGuess(s, "msft", "MSFT")
			score, ok := scoring.FinalScore(s)
			So(ok, ShouldBeTrue)
			So(score, ShouldEqual, 750)
			So(score, ShouldEqual, s.Bankroll)
		})

		Convey("Then a loss scores zero", func() {
			s := e.New("p")
			for !s.Lost {
				s, _ = e.SubmitGuess(s, "x", "MSFT")
			}
			score, ok := scoring.FinalScore(s)
			So(ok, ShouldBeTrue)
			So(score, ShouldEqual, 0)
		})
	})
}

func TestShareText(t *testing.T) {
	Convey("Given a won game", t, func() {
		text := scoring.ShareText(657, 750, 2, 3, true, 1000)
		lines := strings.Split(text, "\n")

		Convey("Then the card should show score, bar and counts", func() {
			So(lines, ShouldHaveLength, 4)
			So(lines[0], ShouldEqual, "canDLE #657 — 750/1000")
			So(strings.Count(lines[1], "▓"), ShouldEqual, 8)
			So(strings.Count(lines[1], "░"), ShouldEqual, 2)
			So(lines[2], ShouldEqual, "Hints: 2 | Guesses: 3")
		})
	})

	Convey("Given a lost game", t, func() {
		text := scoring.ShareText(1, 0, 5, 7, false, 1000)
		So(text, ShouldStartWith, "canDLE #1 — X/1000")
		So(strings.Count(text, "░"), ShouldEqual, 10)
	})
}
