package mri

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModality_IsValid(t *testing.T) {
	for _, m := range Modalities() {
		assert.True(t, m.IsValid(), "modality %q should be valid", m)
	}
	assert.False(t, Modality("flair").IsValid())
	assert.False(t, Modality("").IsValid())
	assert.False(t, Modality("T1C").IsValid(), "keys are lowercase only")
}

func TestModalityRefs_Missing(t *testing.T) {
	refs := ModalityRefs{
		T1c: "patients/P-1/t1c-a.nii.gz",
		T2w: "patients/P-1/t2w-a.nii.gz",
	}

	missing := refs.Missing()
	assert.Equal(t, []Modality{T1n, T2f, Seg}, missing)
}

func TestModalityRefs_MissingNoneWhenComplete(t *testing.T) {
	refs := ModalityRefs{}
	for _, m := range Modalities() {
		refs[m] = "patients/P-1/" + string(m) + "-a.nii.gz"
	}
	assert.Empty(t, refs.Missing())
}

func TestModalityRefs_Normalized(t *testing.T) {
	refs := ModalityRefs{T1c: "some/key"}
	norm := refs.Normalized()

	assert.Len(t, norm, len(Modalities()))
	assert.Equal(t, "some/key", norm[T1c])
	for _, m := range []Modality{T1n, T2f, T2w, Seg} {
		v, ok := norm[m]
		assert.True(t, ok, "modality %q must be representable", m)
		assert.Empty(t, v)
	}
	// The source map is not mutated.
	assert.Len(t, refs, 1)
}

func TestClinicalData_RoundTripPreservesExtraFields(t *testing.T) {
	in := []byte(`{"age":54,"sex":"M","diagnosis":"Glioblastoma","karnofsky_score":80,"notes":"post-op"}`)

	var c ClinicalData
	require.NoError(t, json.Unmarshal(in, &c))

	assert.Equal(t, 54, c.Age)
	assert.Equal(t, SexMale, c.Sex)
	assert.Equal(t, "Glioblastoma", c.Diagnosis)
	assert.Equal(t, float64(80), c.Extra["karnofsky_score"])
	assert.Equal(t, "post-op", c.Extra["notes"])

	out, err := json.Marshal(c)
	require.NoError(t, err)

	var back map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, float64(54), back["age"])
	assert.Equal(t, "post-op", back["notes"])
	assert.Equal(t, float64(80), back["karnofsky_score"])
}

func TestClinicalData_StringAgeCoerced(t *testing.T) {
	var c ClinicalData
	require.NoError(t, json.Unmarshal([]byte(`{"age":"58","sex":"M","diagnosis":"Glioblastoma"}`), &c))
	assert.Equal(t, 58, c.Age)
	assert.Nil(t, c.Extra)

	var d ClinicalData
	require.NoError(t, json.Unmarshal([]byte(`{"age":"unknown","diagnosis":"x"}`), &d))
	assert.Zero(t, d.Age)
}

func TestClinicalData_NoExtraFields(t *testing.T) {
	var c ClinicalData
	require.NoError(t, json.Unmarshal([]byte(`{"age":45,"sex":"F","diagnosis":"Low-Grade Glioma"}`), &c))
	assert.Nil(t, c.Extra)
}

func TestSex_IsValid(t *testing.T) {
	assert.True(t, SexMale.IsValid())
	assert.True(t, SexFemale.IsValid())
	assert.True(t, SexOther.IsValid())
	assert.False(t, Sex("m").IsValid())
	assert.False(t, Sex("").IsValid())
}
