package transform

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcare/internal/assessment/codec"
	"flowcare/internal/assessment/models"
)

var allowRaw = cmp.AllowUnexported(models.Recommendation{})

func str(s string) *string { return &s }

func TestToAPINilRecord(t *testing.T) {
	assert.Nil(t, ToAPI(codec.New(nil), nil))
}

func TestToAPIEndToEnd(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	rec := &models.StorageRecord{
		ID:                "a-1",
		UserID:            "u-1",
		CreatedAt:         created,
		PhysicalSymptoms:  str(`["bloating","fatigue"]`),
		EmotionalSymptoms: str(`["anxiety"]`),
		OtherSymptoms:     str(`"back pain"`),
		Recommendations:   str(`["Exercise","Sleep"]`),
		Pattern:           nil,
		Age:               str("13-17"),
		CycleLength:       str("irregular"),
		FlowHeaviness:     str("heavy"),
		PainLevel:         str("severe"),
	}

	got := ToAPI(codec.New(nil), rec)

	want := &models.Assessment{
		ID:                "a-1",
		UserID:            "u-1",
		CreatedAt:         created,
		Age:               str("13-17"),
		Pattern:           str("developing"),
		CycleLength:       str("irregular"),
		FlowHeaviness:     str("heavy"),
		PainLevel:         str("severe"),
		PhysicalSymptoms:  []string{"bloating", "fatigue"},
		EmotionalSymptoms: []string{"anxiety"},
		OtherSymptoms:     []string{"back pain"},
		Recommendations: []models.Recommendation{
			{Title: "Exercise", Description: ""},
			{Title: "Sleep", Description: ""},
		},
	}
	if diff := cmp.Diff(want, got, allowRaw); diff != "" {
		t.Fatalf("ToAPI mismatch (-want +got):\n%s", diff)
	}
}

func TestToAPIListsAreNeverNil(t *testing.T) {
	got := ToAPI(codec.New(nil), &models.StorageRecord{
		ID:               "a-2",
		PhysicalSymptoms: str("{broken"),
		Recommendations:  str(`"not a list"`),
	})
	require.NotNil(t, got)
	assert.NotNil(t, got.PhysicalSymptoms)
	assert.Empty(t, got.PhysicalSymptoms)
	assert.NotNil(t, got.EmotionalSymptoms)
	assert.NotNil(t, got.OtherSymptoms)
	assert.NotNil(t, got.Recommendations)
	assert.Empty(t, got.Recommendations)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"physical_symptoms":[]`)
	assert.Contains(t, string(body), `"recommendations":[]`)
}

func TestToAPIPreservesFalsyScalars(t *testing.T) {
	got := ToAPI(codec.New(nil), &models.StorageRecord{
		ID:        "a-3",
		PainLevel: str("0"),
		Age:       str(""),
		Pattern:   str(""),
	})
	require.NotNil(t, got.PainLevel)
	assert.Equal(t, "0", *got.PainLevel)
	require.NotNil(t, got.Age)
	assert.Equal(t, "", *got.Age)
	require.NotNil(t, got.Pattern, "explicit empty pattern is trusted, not recomputed")
	assert.Equal(t, "", *got.Pattern)
	assert.Nil(t, got.CycleLength)
}

func TestToAPITrustsSuppliedPattern(t *testing.T) {
	got := ToAPI(codec.New(nil), &models.StorageRecord{
		Age:     str("13-17"),
		Pattern: str("heavy"),
	})
	assert.Equal(t, "heavy", *got.Pattern)
}

func TestToAPIOmitsUpdatedAt(t *testing.T) {
	updated := time.Now()
	got := ToAPI(codec.New(nil), &models.StorageRecord{ID: "a-4", UpdatedAt: &updated})
	body, err := json.Marshal(got)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.NotContains(t, fields, "updated_at")
	assert.NotContains(t, fields, "updatedAt")
	assert.NotContains(t, fields, "assessment_data")
}

func TestNormalizeRecommendations(t *testing.T) {
	t.Run("records are returned unchanged", func(t *testing.T) {
		in := []models.Recommendation{{Title: "Exercise", Description: "..."}}
		if diff := cmp.Diff(in, NormalizeRecommendations(in), allowRaw); diff != "" {
			t.Fatalf("unexpected change (-want +got):\n%s", diff)
		}
	})

	t.Run("string-led arrays are coerced", func(t *testing.T) {
		var in []models.Recommendation
		require.NoError(t, json.Unmarshal([]byte(`["Exercise","Sleep"]`), &in))
		want := []models.Recommendation{{Title: "Exercise"}, {Title: "Sleep"}}
		if diff := cmp.Diff(want, NormalizeRecommendations(in), allowRaw); diff != "" {
			t.Fatalf("coercion mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("record-led mixed arrays keep their string entries raw", func(t *testing.T) {
		var in []models.Recommendation
		require.NoError(t, json.Unmarshal([]byte(`[{"title":"Exercise","description":"d"},"Sleep"]`), &in))
		got := NormalizeRecommendations(in)
		require.Len(t, got, 2)
		assert.False(t, got[0].IsRaw())
		assert.True(t, got[1].IsRaw())

		body, err := json.Marshal(got)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"title":"Exercise","description":"d"},"Sleep"]`, string(body))
	})

	t.Run("string-led mixed arrays keep their record entries as stored", func(t *testing.T) {
		var in []models.Recommendation
		require.NoError(t, json.Unmarshal([]byte(`["Sleep",{"title":"Exercise","description":"d"}]`), &in))
		got := NormalizeRecommendations(in)
		require.Len(t, got, 2)
		assert.Equal(t, "Sleep", got[0].Title)
		assert.False(t, got[0].IsRaw())
		assert.Equal(t, "Exercise", got[1].Title)
		assert.Equal(t, "d", got[1].Description)
	})

	t.Run("empty stays empty", func(t *testing.T) {
		assert.Empty(t, NormalizeRecommendations([]models.Recommendation{}))
	})
}

func TestToStorage(t *testing.T) {
	recs := models.RecommendationList{{Title: "Rest", Description: "take it easy"}}
	p := models.Payload{
		Age:               models.BandOf("18-25"),
		CycleLength:       models.BandOf("26-30"),
		PeriodDuration:    models.BandOf("4-5"),
		FlowHeaviness:     models.BandOf("moderate"),
		PainLevel:         models.BandOf("0"),
		Pattern:           models.BandOf(""),
		PhysicalSymptoms:  models.Sequence("cramps", "bloating"),
		EmotionalSymptoms: models.Sequence(),
		OtherSymptoms:     models.FreeText("back pain"),
		Recommendations:   &recs,
	}

	rec := ToStorage(p)

	assert.Empty(t, rec.ID)
	assert.True(t, rec.CreatedAt.IsZero())
	assert.Equal(t, "18-25", *rec.Age)
	require.NotNil(t, rec.PainLevel)
	assert.Equal(t, "0", *rec.PainLevel)
	require.NotNil(t, rec.Pattern)
	assert.Equal(t, "", *rec.Pattern)
	assert.Equal(t, `["cramps","bloating"]`, *rec.PhysicalSymptoms)
	assert.Equal(t, `[]`, *rec.EmotionalSymptoms)
	assert.Equal(t, `["back pain"]`, *rec.OtherSymptoms)
	assert.JSONEq(t, `[{"title":"Rest","description":"take it easy"}]`, *rec.Recommendations)
	assert.Nil(t, rec.AssessmentData)
}

func TestToStorageAbsentFields(t *testing.T) {
	rec := ToStorage(models.Payload{})
	assert.Nil(t, rec.Age)
	assert.Nil(t, rec.Pattern)
	assert.Nil(t, rec.PhysicalSymptoms)
	assert.Nil(t, rec.EmotionalSymptoms)
	assert.Nil(t, rec.OtherSymptoms)
	assert.Nil(t, rec.Recommendations)
}

func TestStorageRoundTrip(t *testing.T) {
	p := models.Payload{
		Age:               models.BandOf("36-45"),
		CycleLength:       models.BandOf("26-30"),
		PhysicalSymptoms:  models.Sequence("acne"),
		EmotionalSymptoms: models.FreeText("irritable"),
		OtherSymptoms:     models.Sequence("insomnia", "nausea"),
	}
	rec := ToStorage(p)
	got := ToAPI(codec.New(nil), &rec)

	assert.Equal(t, []string{"acne"}, got.PhysicalSymptoms)
	assert.Equal(t, []string{"irritable"}, got.EmotionalSymptoms)
	assert.Equal(t, []string{"insomnia", "nausea"}, got.OtherSymptoms)
	assert.Equal(t, "regular", *got.Pattern)
}
