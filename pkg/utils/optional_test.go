// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optionalPayload struct {
	Frequency Optional[string] `json:"frequency"`
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantSet   bool
		wantValue *string
	}{
		{name: "absent key", input: `{}`, wantSet: false},
		{name: "explicit null", input: `{"frequency":null}`, wantSet: true},
		{name: "value", input: `{"frequency":"weekly"}`, wantSet: true, wantValue: Ptr("weekly")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p optionalPayload
			require.NoError(t, json.Unmarshal([]byte(tt.input), &p))
			assert.Equal(t, tt.wantSet, p.Frequency.Set)
			assert.Equal(t, tt.wantValue, p.Frequency.Value)
		})
	}
}

func TestOptional_UnmarshalJSON_TypeMismatch(t *testing.T) {
	var p optionalPayload
	err := json.Unmarshal([]byte(`{"frequency":12}`), &p)
	assert.Error(t, err)
}

func TestOptional_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(optionalPayload{Frequency: Some("daily")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":"daily"}`, string(b))

	b, err = json.Marshal(optionalPayload{Frequency: Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"frequency":null}`, string(b))
}
