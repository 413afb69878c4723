package grading

import (
	"encoding/json"
	"math"
	"testing"

	"gradewatch/internal/models"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func sampleQuizzes() []models.AssessmentColumn {
	return []models.AssessmentColumn{
		{ID: "q-1", Label: "Q1", MaxPoints: 20},
		{ID: "q-2", Label: "Q2", MaxPoints: 20},
		{ID: "q-3", Label: "Q3", MaxPoints: 20},
		{ID: "q-4", Label: "Q4", MaxPoints: 25},
	}
}

func sampleActivities() []models.AssessmentColumn {
	return []models.AssessmentColumn{
		{ID: "act-1", Label: "ACT1", MaxPoints: 60},
		{ID: "act-2", Label: "ACT2", MaxPoints: 60},
	}
}

func midtermSheet() models.ScoreSheet {
	return models.ScoreSheet{
		models.ColumnKey(models.Midterm, models.KindQuiz, "q-1"):     18,
		models.ColumnKey(models.Midterm, models.KindQuiz, "q-2"):     17,
		models.ColumnKey(models.Midterm, models.KindQuiz, "q-3"):     15,
		models.ColumnKey(models.Midterm, models.KindQuiz, "q-4"):     20,
		models.ColumnKey(models.Midterm, models.KindActivity, "act-1"): 50,
		models.ColumnKey(models.Midterm, models.KindActivity, "act-2"): 55,
		models.RecitationKey(models.Midterm):                          80,
		models.ExamKey(models.Midterm):                                48,
	}
}

func TestQuizComponent(t *testing.T) {
	b := Breakdown(midtermSheet(), models.Midterm, sampleQuizzes(), nil, models.TermConfig{})

	want := 70.0 / 85.0 * 15
	if !almostEqual(b.Quiz, want) {
		t.Fatalf("quiz component = %v, want %v", b.Quiz, want)
	}
	if Round2(b.Quiz) != 12.35 {
		t.Errorf("rounded quiz component = %v, want 12.35", Round2(b.Quiz))
	}
}

func TestMidtermTermGrade(t *testing.T) {
	cfg := models.TermConfig{RecitationMax: 100, ExamMax: 60}

	got := CalculateTermGrade(midtermSheet(), models.Midterm, sampleQuizzes(), sampleActivities(), cfg)

	// 12.3529... + 30.625 + 8 + 32
	want := 82.97794117647058
	if !almostEqual(got, want) {
		t.Fatalf("midterm grade = %v, want %v", got, want)
	}
}

func TestFinalsUsesLabKeysAndWeights(t *testing.T) {
	cfg := models.TermConfig{RecitationMax: 50, ExamMax: 100}
	acts := sampleActivities()

	sheet := models.ScoreSheet{
		// midterm activity scores must not leak into finals
		models.ColumnKey(models.Midterm, models.KindActivity, "act-1"): 60,
		models.ColumnKey(models.Finals, models.KindActivity, "act-1"):  30,
		models.ColumnKey(models.Finals, models.KindActivity, "act-2"):  30,
		models.RecitationKey(models.Finals):                            25,
		models.ExamKey(models.Finals):                                  75,
	}

	b := Breakdown(sheet, models.Finals, nil, acts, cfg)

	if !almostEqual(b.Activity, 12.5) {
		t.Errorf("lab component = %v, want 12.5", b.Activity)
	}
	if !almostEqual(b.Recitation, 10) {
		t.Errorf("recitation component = %v, want 10", b.Recitation)
	}
	if !almostEqual(b.Exam, 30) {
		t.Errorf("exam component = %v, want 30", b.Exam)
	}
	if b.Quiz != 0 {
		t.Errorf("quiz component without columns = %v, want 0", b.Quiz)
	}
	if !almostEqual(b.Total, 52.5) {
		t.Errorf("total = %v, want 52.5", b.Total)
	}
}

func TestTermGradeIsClamped(t *testing.T) {
	cfg := models.TermConfig{RecitationMax: 10, ExamMax: 10}
	quizzes := []models.AssessmentColumn{{ID: "q-1", MaxPoints: 10}}
	acts := []models.AssessmentColumn{{ID: "act-1", MaxPoints: 10}}

	sheet := models.ScoreSheet{
		models.ColumnKey(models.Midterm, models.KindQuiz, "q-1"):       500,
		models.ColumnKey(models.Midterm, models.KindActivity, "act-1"): 500,
		models.RecitationKey(models.Midterm):                          500,
		models.ExamKey(models.Midterm):                                500,
	}

	if got := CalculateTermGrade(sheet, models.Midterm, quizzes, acts, cfg); got != 100 {
		t.Errorf("over-max grade = %v, want 100", got)
	}

	negative := models.ScoreSheet{models.ExamKey(models.Midterm): -40}
	if got := CalculateTermGrade(negative, models.Midterm, quizzes, acts, cfg); got != 0 {
		t.Errorf("negative entries grade = %v, want 0", got)
	}
}

func TestZeroMaxContributesZero(t *testing.T) {
	quizzes := []models.AssessmentColumn{{ID: "q-1", MaxPoints: 0}, {ID: "q-2", MaxPoints: 0}}
	sheet := models.ScoreSheet{
		models.ColumnKey(models.Midterm, models.KindQuiz, "q-1"): 10,
		models.ExamKey(models.Midterm):                          30,
	}

	b := Breakdown(sheet, models.Midterm, quizzes, nil, models.TermConfig{})

	for name, v := range map[string]float64{"quiz": b.Quiz, "exam": b.Exam, "total": b.Total} {
		if math.IsNaN(v) || v != 0 {
			t.Errorf("%s component = %v, want exactly 0", name, v)
		}
	}
}

func TestTermGradeIsDeterministic(t *testing.T) {
	cfg := models.TermConfig{RecitationMax: 100, ExamMax: 60}
	sheet := midtermSheet()

	first := CalculateTermGrade(sheet, models.Midterm, sampleQuizzes(), sampleActivities(), cfg)
	for i := 0; i < 10; i++ {
		if got := CalculateTermGrade(sheet, models.Midterm, sampleQuizzes(), sampleActivities(), cfg); got != first {
			t.Fatalf("call %d = %v, want %v", i, got, first)
		}
	}
}

func TestUnknownTermPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown term")
		}
	}()
	CalculateTermGrade(nil, models.Term("summer"), nil, nil, models.TermConfig{})
}

func TestEquivalent(t *testing.T) {
	tests := []struct {
		grade      float64
		equivalent float64
		remark     string
	}{
		{grade: 100, equivalent: 1.00, remark: RemarkPassed},
		{grade: 98, equivalent: 1.00, remark: RemarkPassed},
		{grade: 97.99, equivalent: 1.25, remark: RemarkPassed},
		{grade: 96, equivalent: 1.25, remark: RemarkPassed},
		{grade: 93, equivalent: 1.50, remark: RemarkPassed},
		{grade: 92.99, equivalent: 2.00, remark: RemarkPassed},
		{grade: 78.4, equivalent: 2.00, remark: RemarkPassed},
		{grade: 75, equivalent: 2.00, remark: RemarkPassed},
		{grade: 74.99, equivalent: 5.00, remark: RemarkFailed},
		{grade: 0, equivalent: 5.00, remark: RemarkFailed},
	}

	for _, tt := range tests {
		t.Run(FormatEquivalent(tt.grade), func(t *testing.T) {
			equivalent, remark := Equivalent(tt.grade)
			if equivalent != tt.equivalent || remark != tt.remark {
				t.Errorf("Equivalent(%v) = (%v, %s), want (%v, %s)", tt.grade, equivalent, remark, tt.equivalent, tt.remark)
			}
		})
	}
}

func TestComposeFinalGrade(t *testing.T) {
	final := ComposeFinalGrade(80, 90)
	if !almostEqual(final.Value, 86) {
		t.Fatalf("final value = %v, want 86", final.Value)
	}
	if final.Equivalent != 2.00 || final.Remark != RemarkPassed {
		t.Errorf("final = %+v, want 2.00 PASSED", final)
	}

	// 74.996 rounds to 75.00 for display but still fails
	borderline := ComposeFinalGrade(74.996, 74.996)
	if borderline.Rounded != 75 {
		t.Errorf("rounded = %v, want 75", borderline.Rounded)
	}
	if borderline.Remark != RemarkFailed {
		t.Errorf("remark = %s, want %s", borderline.Remark, RemarkFailed)
	}
}

func TestCoerceScore(t *testing.T) {
	tests := []struct {
		name   string
		raw    any
		want   float64
		wantOK bool
	}{
		{name: "nil is unset", raw: nil, want: 0, wantOK: false},
		{name: "blank string is unset", raw: "  ", want: 0, wantOK: false},
		{name: "numeric string", raw: "17.5", want: 17.5, wantOK: true},
		{name: "garbage string", raw: "abc", want: 0, wantOK: true},
		{name: "negative number", raw: -3.0, want: 0, wantOK: true},
		{name: "NaN", raw: math.NaN(), want: 0, wantOK: true},
		{name: "json number", raw: json.Number("12"), want: 12, wantOK: true},
		{name: "int", raw: 9, want: 9, wantOK: true},
		{name: "unsupported type", raw: []int{1}, want: 0, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceScore(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("CoerceScore(%v) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
