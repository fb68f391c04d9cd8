package dockertests

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, value interface{}) []byte {
	data, err := json.Marshal(value)
	require.NoError(t, err)
	return data
}
