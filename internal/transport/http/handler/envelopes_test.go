package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/turo-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcReq builds an RPC request wrapping data in the {"data": ...} envelope.
func rpcReq(t *testing.T, name string, data interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"data": data})
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/v1/rpc/"+name, bytes.NewReader(body))
}

type callBody struct {
	Result map[string]interface{} `json:"result"`
	Error  *callError             `json:"error"`
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) callBody {
	t.Helper()
	var b callBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &b))
	return b
}

func TestWriteCallError_CanonicalStatuses(t *testing.T) {
	cases := []struct {
		err        error
		status     string
		httpStatus int
		msg        string
	}{
		{fmt.Errorf("bad email: %w", domain.ErrBadRequest), "INVALID_ARGUMENT", http.StatusBadRequest, "bad email"},
		{fmt.Errorf("login first: %w", domain.ErrUnauthorized), "UNAUTHENTICATED", http.StatusUnauthorized, "login first"},
		{fmt.Errorf("admins only: %w", domain.ErrForbidden), "PERMISSION_DENIED", http.StatusForbidden, "admins only"},
		{fmt.Errorf("no otp: %w", domain.ErrNotFound), "NOT_FOUND", http.StatusNotFound, "no otp"},
		{fmt.Errorf("expired: %w", domain.ErrExpired), "DEADLINE_EXCEEDED", http.StatusGatewayTimeout, "expired"},
		{errors.New("dynamo exploded"), "INTERNAL", http.StatusInternalServerError, "internal error"},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		writeCallError(rr, "test", c.err)

		assert.Equal(t, c.httpStatus, rr.Code)
		b := decodeBody(t, rr)
		require.NotNil(t, b.Error)
		assert.Equal(t, c.status, b.Error.Status)
		assert.Equal(t, c.msg, b.Error.Message)
	}
}

func TestDecodeCall(t *testing.T) {
	var v struct {
		Email string `json:"email"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"data":{"email":"a@b.c"}}`))
	require.NoError(t, decodeCall(r, &v))
	assert.Equal(t, "a@b.c", v.Email)

	v.Email = ""
	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"data":null}`))
	require.NoError(t, decodeCall(r, &v))
	assert.Empty(t, v.Email)

	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`not-json`))
	assert.ErrorIs(t, decodeCall(r, &v), errBadPayload)

	r = httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"data":{"email":42}}`))
	assert.ErrorIs(t, decodeCall(r, &v), errBadPayload)
}
