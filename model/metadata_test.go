package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataMarshal(t *testing.T) {
	t.Run("Marshal extraction snapshot", func(t *testing.T) {
		m := Metadata{
			"first_name": "Spencer",
			"last_name":  "Smith",
			"zip":        "62702",
		}

		bytes, err := m.Marshal()
		require.NoError(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(bytes, &result))
		assert.Equal(t, "Spencer", result["first_name"])
		assert.Equal(t, "62702", result["zip"])
	})

	t.Run("Marshal empty metadata", func(t *testing.T) {
		bytes, err := Metadata{}.Marshal()
		require.NoError(t, err)
		assert.Equal(t, []byte("{}"), bytes)
	})

	t.Run("Marshal nil metadata", func(t *testing.T) {
		var m Metadata
		bytes, err := m.Marshal()
		require.NoError(t, err)
		assert.Equal(t, []byte("null"), bytes)
	})
}

func TestMetadataUnmarshal(t *testing.T) {
	t.Run("Unmarshal JSON bytes", func(t *testing.T) {
		var m Metadata
		err := m.Unmarshal([]byte(`{"organization_name":"Lakeside Clinic","beds":42,"accepting":true}`))

		require.NoError(t, err)
		assert.Equal(t, "Lakeside Clinic", m["organization_name"])
		assert.Equal(t, float64(42), m["beds"], "Expected JSON numbers as float64")
		assert.Equal(t, true, m["accepting"])
	})

	t.Run("Unmarshal nested extraction output", func(t *testing.T) {
		var m Metadata
		err := m.Unmarshal([]byte(`{"address":{"street_address":"5 Lake Dr","city":"Madison"}}`))

		require.NoError(t, err)
		nested, ok := m["address"].(map[string]interface{})
		require.True(t, ok, "Expected the nested object preserved")
		assert.Equal(t, "5 Lake Dr", nested["street_address"])
	})

	t.Run("Unmarshal nil yields an empty map", func(t *testing.T) {
		var m Metadata
		require.NoError(t, m.Unmarshal(nil))
		assert.NotNil(t, m)
		assert.Len(t, m, 0)
	})

	t.Run("Unmarshal Metadata directly", func(t *testing.T) {
		var m Metadata
		require.NoError(t, m.Unmarshal(Metadata{"key": "value"}))
		assert.Equal(t, "value", m["key"])
	})

	t.Run("Unmarshal invalid JSON", func(t *testing.T) {
		var m Metadata
		assert.Error(t, m.Unmarshal([]byte(`{invalid json}`)))
	})

	t.Run("Unmarshal unsupported type", func(t *testing.T) {
		var m Metadata
		err := m.Unmarshal(12345)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "type assertion")
	})
}

func TestMetadataValueScan(t *testing.T) {
	t.Run("Value then Scan round trip", func(t *testing.T) {
		original := Metadata{"first_name": "Spencer", "dob": "1985-03-12"}

		value, err := original.Value()
		require.NoError(t, err)

		var restored Metadata
		require.NoError(t, restored.Scan(value))
		assert.Equal(t, "Spencer", restored["first_name"])
		assert.Equal(t, "1985-03-12", restored["dob"])
	})

	t.Run("Scan from nil column", func(t *testing.T) {
		var m Metadata
		require.NoError(t, m.Scan(nil))
		assert.NotNil(t, m)
		assert.Len(t, m, 0)
	})
}
