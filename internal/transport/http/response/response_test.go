package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, r Resp) string {
	t.Helper()
	b, err := json.Marshal(r)
	require.NoError(t, err)
	return string(b)
}

func TestDataIsNeverNull(t *testing.T) {
	var rows []string
	var one *struct{ ID string }
	assert.JSONEq(t, `{"code":0,"msg":"OK","data":[]}`, encode(t, OK(rows)))
	assert.JSONEq(t, `{"code":0,"msg":"OK","data":{}}`, encode(t, OK(one)))
	assert.JSONEq(t, `{"code":0,"msg":"OK","data":{}}`, encode(t, OK(nil)))
	assert.JSONEq(t, `{"code":0,"msg":"OK","data":["a"]}`, encode(t, OK([]string{"a"})))
}

func TestErrorMessages(t *testing.T) {
	assert.JSONEq(t, `{"code":409,"msg":"Conflict","data":{}}`, encode(t, Error(CodeConflict, "")))
	assert.JSONEq(t, `{"code":404,"msg":"member not found","data":{}}`, encode(t, Error(CodeNotFound, "member not found")))
}
