package profile

import (
	"errors"
	"math"
	"testing"

	"github.com/gator-life/gator/internal/models"
)

const testModelID = "model-test"

func fv(values ...float64) models.FeatureVector {
	return models.FeatureVector{Values: values, ModelID: testModelID}
}

func doc(urlHash string, vec models.FeatureVector) *models.Document {
	return &models.Document{URL: "https://example.com/" + urlHash, URLHash: urlHash, FeatureVector: vec}
}

func TestRecordFeedbackAccumulates(t *testing.T) {
	s := models.NewProfileState(testModelID, 2)

	s1, err := RecordFeedback(s, fv(1, 0), Positive)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := RecordFeedback(s1, fv(0.5, 0.5), Positive)
	if err != nil {
		t.Fatal(err)
	}
	s3, err := RecordFeedback(s2, fv(0, 1), Negative)
	if err != nil {
		t.Fatal(err)
	}

	if s3.PositiveCount != 2 || s3.NegativeCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", s3.PositiveCount, s3.NegativeCount)
	}
	if s3.Positive[0] != 1.5 || s3.Positive[1] != 0.5 {
		t.Errorf("positive accumulator = %v, want [1.5 0.5]", s3.Positive)
	}
	if s3.Negative[0] != 0 || s3.Negative[1] != 1 {
		t.Errorf("negative accumulator = %v, want [0 1]", s3.Negative)
	}
}

func TestRecordFeedbackDoesNotMutateInput(t *testing.T) {
	s := models.NewProfileState(testModelID, 2)
	if _, err := RecordFeedback(s, fv(1, 1), Positive); err != nil {
		t.Fatal(err)
	}
	if s.PositiveCount != 0 || s.Positive[0] != 0 {
		t.Error("input state was mutated")
	}
}

func TestRecordFeedbackModelMismatch(t *testing.T) {
	s := models.NewProfileState(testModelID, 2)
	wrong := models.FeatureVector{Values: []float64{1, 0}, ModelID: "other-model"}
	_, err := RecordFeedback(s, wrong, Positive)
	if !errors.Is(err, ErrModelMismatch) {
		t.Errorf("err = %v, want ErrModelMismatch", err)
	}
}

func TestCurrentInterestNoFeedbackIsZero(t *testing.T) {
	s := models.NewProfileState(testModelID, 3)
	interest := CurrentInterest(s)
	if interest.ModelID != testModelID {
		t.Errorf("ModelID = %q", interest.ModelID)
	}
	for i, v := range interest.Values {
		if v != 0 {
			t.Errorf("component %d = %v, want 0", i, v)
		}
	}
}

func TestCurrentInterestPositiveOnly(t *testing.T) {
	s := models.NewProfileState(testModelID, 2)
	s1, _ := RecordFeedback(s, fv(2, 0), Positive)
	s2, _ := RecordFeedback(s1, fv(4, 0), Positive)

	interest := CurrentInterest(s2)
	// Positive mean (3, 0), normalized to (1, 0).
	if math.Abs(interest.Values[0]-1) > 1e-12 || math.Abs(interest.Values[1]) > 1e-12 {
		t.Errorf("interest = %v, want (1, 0)", interest.Values)
	}
}

func TestCurrentInterestSubtractsNegativeMean(t *testing.T) {
	s := models.NewProfileState(testModelID, 2)
	s1, _ := RecordFeedback(s, fv(1, 1), Positive)
	s2, _ := RecordFeedback(s1, fv(0, 2), Negative)

	interest := CurrentInterest(s2)
	// posMean (1,1) - negMean (0,2) = (1,-1), normalized.
	want := 1 / math.Sqrt(2)
	if math.Abs(interest.Values[0]-want) > 1e-12 || math.Abs(interest.Values[1]+want) > 1e-12 {
		t.Errorf("interest = %v, want (%v, %v)", interest.Values, want, -want)
	}
}

func TestGradeMonotonicLearning(t *testing.T) {
	axisDoc := doc("axis", fv(1, 0.05))
	s := models.NewProfileState(testModelID, 2)

	unfed, err := Grade(s, axisDoc)
	if err != nil {
		t.Fatal(err)
	}

	// Each positive feedback pulls the interest closer to the document's
	// axis, so the grade strictly increases.
	feedbacks := []models.FeatureVector{fv(1, 1), fv(1, 0), fv(1, 0)}
	cur := s
	prev := unfed
	for i, f := range feedbacks {
		next, err := RecordFeedback(cur, f, Positive)
		if err != nil {
			t.Fatal(err)
		}
		cur = next
		g, err := Grade(cur, axisDoc)
		if err != nil {
			t.Fatal(err)
		}
		if g <= prev {
			t.Fatalf("round %d: grade %v not above previous %v", i, g, prev)
		}
		prev = g
	}

	// Negative feedback on the axis strictly decreases it again.
	withNeg, err := RecordFeedback(cur, fv(1, 0), Negative)
	if err != nil {
		t.Fatal(err)
	}
	g, err := Grade(withNeg, axisDoc)
	if err != nil {
		t.Fatal(err)
	}
	if g >= prev {
		t.Errorf("grade after negative feedback = %v, want below %v", g, prev)
	}
}

func TestGradeBounds(t *testing.T) {
	s := models.NewProfileState(testModelID, 2)
	s1, _ := RecordFeedback(s, fv(1, 0), Positive)

	g, err := Grade(s1, doc("same", fv(1, 0)))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g-1) > 1e-12 {
		t.Errorf("grade for identical direction = %v, want 1", g)
	}

	g, err = Grade(s1, doc("opposite", fv(-1, 0)))
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(g+1) > 1e-12 {
		t.Errorf("grade for opposite direction = %v, want -1", g)
	}
}

func TestGradeModelMismatch(t *testing.T) {
	s := models.NewProfileState(testModelID, 2)
	s1, _ := RecordFeedback(s, fv(1, 0), Positive)

	other := doc("other", models.FeatureVector{Values: []float64{1, 0}, ModelID: "other-model"})
	_, err := Grade(s1, other)
	if !errors.Is(err, ErrModelMismatch) {
		t.Errorf("err = %v, want ErrModelMismatch", err)
	}
}
