package multiview

import (
	"encoding/json"
	"testing"

	"ai-docview-be/pkg/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Empty(t *testing.T) {
	c := New(nil, nil, nil, "")

	assert.Equal(t, 0, c.Meta().ViewCount)
	assert.Empty(t, c.List())
	assert.False(t, c.Has(view.KindQA))

	_, ok := c.ConfidenceOf("")
	assert.False(t, ok)
}

func TestContainer_Accessors(t *testing.T) {
	views := map[view.Kind]view.ResultData{
		view.KindSystem:   {"summary": "s"},
		view.KindQA:       {"pairs": []interface{}{}},
		view.KindLearning: {"steps": []interface{}{}},
	}
	c := New(views, []view.Kind{view.KindSystem, view.KindQA}, map[view.Kind]float64{view.KindSystem: 82, view.KindQA: 40}, view.KindSystem)

	assert.Equal(t, 3, c.Meta().ViewCount)
	assert.Equal(t, view.KindSystem, c.PrimaryView())
	assert.Equal(t, []view.Kind{view.KindSystem, view.KindQA, view.KindLearning}, c.List())

	data, ok := c.Get(view.KindSystem)
	require.True(t, ok)
	assert.Equal(t, "s", data["summary"])

	score, ok := c.ConfidenceOf("")
	assert.True(t, ok)
	assert.Equal(t, 82.0, score)

	score, ok = c.ConfidenceOf(view.KindQA)
	assert.True(t, ok)
	assert.Equal(t, 40.0, score)
}

func TestContainer_IsDetachedFromInputs(t *testing.T) {
	enabled := []view.Kind{view.KindQA}
	views := map[view.Kind]view.ResultData{view.KindQA: {}}
	c := New(views, enabled, nil, view.KindQA)

	enabled[0] = view.KindSystem
	delete(views, view.KindQA)
	c.EnabledViews()[0] = view.KindLearning

	assert.Equal(t, []view.Kind{view.KindQA}, c.EnabledViews())
	assert.True(t, c.Has(view.KindQA))
}

func TestContainer_MarshalJSON(t *testing.T) {
	c := New(map[view.Kind]view.ResultData{view.KindQA: {"pair_count": 2}}, []view.Kind{view.KindQA}, map[view.Kind]float64{view.KindQA: 55}, view.KindQA)

	raw, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded struct {
		Views map[string]map[string]interface{} `json:"views"`
		Meta  struct {
			PrimaryView   string             `json:"primary_view"`
			ViewCount     int                `json:"view_count"`
			ConfidenceMap map[string]float64 `json:"confidence_map"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "qa", decoded.Meta.PrimaryView)
	assert.Equal(t, 1, decoded.Meta.ViewCount)
	assert.Equal(t, 55.0, decoded.Meta.ConfidenceMap["qa"])
	assert.Equal(t, 2.0, decoded.Views["qa"]["pair_count"])
}
