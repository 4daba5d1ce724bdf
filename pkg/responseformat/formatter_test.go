package responseformat

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Station string `json:"station"`
	Count   int    `json:"count"`
}

func TestWriteResponse(t *testing.T) {
	f := NewFormatter()

	tests := []struct {
		name        string
		url         string
		contentType string
	}{
		{"default json", "/x", ContentTypeJSON},
		{"unknown format", "/x?format=xml", ContentTypeJSON},
		{"msgpack", "/x?format=msgpack", ContentTypeMsgPack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			require.NoError(t, f.WriteResponse(rec, req, payload{Station: "roof", Count: 3}, map[string]string{"Cache-Control": "no-cache"}))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

			if tt.contentType == ContentTypeJSON {
				assert.JSONEq(t, `{"station":"roof","count":3}`, rec.Body.String())
				return
			}
			var got map[string]interface{}
			require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, "roof", got["station"])
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	require.NoError(t, NewFormatter().WriteError(rec, req, http.StatusNotFound, "station not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"station not found"}`, rec.Body.String())
}
