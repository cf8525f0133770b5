package match_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/skillscope/internal/domain/match"
	"github.com/okian/skillscope/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// stubEmbedder returns canned vectors keyed by exact text, and a default
// orthogonal vector for anything else.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := s.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func vocab() []model.Skill {
	return []model.Skill{
		{ID: "s-python", Name: "Python", Description: "general purpose programming language", BenchmarkScore: 70},
		{ID: "s-sql", Name: "SQL", Description: "relational query language", BenchmarkScore: 60},
		{ID: "s-ml", Name: "Machine Learning", Description: "statistical models neural networks", BenchmarkScore: 75},
	}
}

func TestMatcherExact(t *testing.T) {
	Convey("Given a matcher without an embedder", t, func() {
		m, err := match.New(vocab())
		So(err, ShouldBeNil)

		Convey("When the skill name occurs verbatim in project text", func() {
			matches, err := m.Match(context.Background(), "Built a Python web scraper for research data", model.SourceProject)
			So(err, ShouldBeNil)

			Convey("Then confidence is exactly the source multiplier", func() {
				So(len(matches), ShouldEqual, 1)
				So(matches[0].SkillID, ShouldEqual, "s-python")
				So(matches[0].MatchType, ShouldEqual, model.MatchExact)
				So(matches[0].Confidence, ShouldAlmostEqual, 0.90, 1e-9)
			})

			Convey("And the snippet contains the literal mention", func() {
				So(matches[0].Snippet, ShouldContainSubstring, "Python")
			})
		})

		Convey("When the source is a certification", func() {
			matches, err := m.Match(context.Background(), "Python for data analysis", model.SourceCertification)
			So(err, ShouldBeNil)

			Convey("Then the multiplier is 1.0", func() {
				So(matches[0].Confidence, ShouldAlmostEqual, 1.0, 1e-9)
			})
		})

		Convey("When the text is empty", func() {
			matches, err := m.Match(context.Background(), "   ", model.SourceProject)
			So(err, ShouldBeNil)
			So(matches, ShouldBeEmpty)
		})
	})
}

func TestMatcherFuzzy(t *testing.T) {
	Convey("Given a matcher without an embedder", t, func() {
		m, err := match.New(vocab())
		So(err, ShouldBeNil)

		Convey("When the skill name appears embedded without word boundaries", func() {
			matches, err := m.Match(context.Background(), "repo mypythonproject holds the pipeline", model.SourceProject)
			So(err, ShouldBeNil)

			Convey("Then the fuzzy strategy fires with its discount", func() {
				So(len(matches), ShouldEqual, 1)
				So(matches[0].MatchType, ShouldEqual, model.MatchFuzzy)
				// perfect substring: partial ratio 1.0 * 0.95 discount * 0.90 source
				So(matches[0].Confidence, ShouldAlmostEqual, 0.855, 1e-9)
			})
		})

		Convey("When nothing resembles a skill", func() {
			matches, err := m.Match(context.Background(), "organized the annual charity bake sale", model.SourceProject)
			So(err, ShouldBeNil)
			So(matches, ShouldBeEmpty)
		})
	})
}

func TestMatcherSemantic(t *testing.T) {
	Convey("Given a matcher with a stub embedder", t, func() {
		emb := &stubEmbedder{vectors: map[string][]float32{
			"Machine Learning statistical models neural networks": {1, 0, 0},
			"trained deep neural models for prediction":           {0.9, 0.43588989, 0},
		}}
		m, err := match.New(vocab(), match.WithEmbedder(emb))
		So(err, ShouldBeNil)

		Convey("When text is only semantically related to a skill", func() {
			matches, err := m.Match(context.Background(), "Trained deep neural models for prediction", model.SourceProject)
			So(err, ShouldBeNil)

			Convey("Then the semantic strategy fires with its discount", func() {
				So(len(matches), ShouldEqual, 1)
				So(matches[0].SkillID, ShouldEqual, "s-ml")
				So(matches[0].MatchType, ShouldEqual, model.MatchSemantic)
				// cosine 0.9 * 0.85 discount * 0.90 source
				So(matches[0].Confidence, ShouldAlmostEqual, 0.6885, 1e-6)
			})
		})

		Convey("When matching twice", func() {
			_, _ = m.Match(context.Background(), "trained deep neural models for prediction", model.SourceProject)
			calls := emb.calls
			_, _ = m.Match(context.Background(), "trained deep neural models for prediction", model.SourceProject)

			Convey("Then vocabulary embeddings are computed only once", func() {
				// one extra call for the new input units, none for the vocabulary
				So(emb.calls, ShouldEqual, calls+1)
			})
		})
	})
}

func TestMatcherDegraded(t *testing.T) {
	Convey("Given a matcher whose embedder fails", t, func() {
		emb := &stubEmbedder{err: errors.New("model load failed")}
		m, err := match.New(vocab(), match.WithEmbedder(emb))
		So(err, ShouldBeNil)

		Convey("When matching text that would only hit semantically", func() {
			matches, err := m.Match(context.Background(), "trained deep neural models for prediction", model.SourceProject)

			Convey("Then extraction succeeds with semantic contributing nothing", func() {
				So(err, ShouldBeNil)
				So(matches, ShouldBeEmpty)
			})
		})

		Convey("When matching text with an exact hit", func() {
			matches, err := m.Match(context.Background(), "wrote SQL reports", model.SourceProject)

			Convey("Then the exact strategy still works", func() {
				So(err, ShouldBeNil)
				So(len(matches), ShouldEqual, 1)
				So(matches[0].MatchType, ShouldEqual, model.MatchExact)
			})
		})
	})
}

func TestMatcherBullets(t *testing.T) {
	Convey("Given a matcher without an embedder", t, func() {
		m, err := match.New(vocab())
		So(err, ShouldBeNil)
		text := "• optimized SQL queries for reporting\n• migrated SQL schemas to the new cluster"

		Convey("When bullet-aware matching is requested", func() {
			matches, err := m.Match(context.Background(), text, model.SourceProject, match.WithBulletSplit())
			So(err, ShouldBeNil)

			Convey("Then each bullet contributes one piece of evidence", func() {
				So(len(matches), ShouldEqual, 2)
				So(matches[0].SkillID, ShouldEqual, "s-sql")
				So(matches[1].SkillID, ShouldEqual, "s-sql")
			})
		})

		Convey("When matching the document as a whole", func() {
			matches, err := m.Match(context.Background(), text, model.SourceProject)
			So(err, ShouldBeNil)

			Convey("Then the skill appears once", func() {
				So(len(matches), ShouldEqual, 1)
			})
		})
	})
}

func TestSnippet(t *testing.T) {
	Convey("Given a long text", t, func() {
		text := "In my final year I designed and implemented a Python based recommendation engine that served thousands of daily users across campus"

		Convey("When the needle occurs literally", func() {
			snip := match.Snippet(text, "python", 40)

			Convey("Then the window centers on the occurrence", func() {
				So(snip, ShouldContainSubstring, "Python")
				So(len(snip), ShouldBeLessThan, len(text))
			})
		})

		Convey("When the needle never occurs", func() {
			snip := match.Snippet(text, "kubernetes", 40)

			Convey("Then the leading characters are returned", func() {
				So(snip, ShouldStartWith, "In my final year")
				So(snip, ShouldEndWith, "...")
			})
		})
	})
}

func TestMatcherVocabulary(t *testing.T) {
	Convey("Given an empty vocabulary", t, func() {
		m, err := match.New(nil)

		Convey("Then construction fails", func() {
			So(m, ShouldBeNil)
			So(errors.Is(err, match.ErrEmptyVocabulary), ShouldBeTrue)
		})
	})
}
