package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/PAY-abc", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		fmt.Fprintln(w, `{"status":true,"message":"Verification successful",
			"data":{"status":"success","amount":5000000,"currency":"NGN"}}`)
	}))
	defer srv.Close()

	v, err := NewPaystack(srv.URL, "sk_test_123").Verify(context.Background(), "PAY-abc")
	require.NoError(t, err)
	assert.Equal(t, "PAY-abc", v.Reference)
	assert.Equal(t, int64(5000000), v.Amount)
	assert.Equal(t, "NGN", v.Currency)
}

func TestVerifyFailedTransaction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"status":true,"message":"ok","data":{"status":"failed","amount":0,"currency":"NGN"}}`)
	}))
	defer srv.Close()

	_, err := NewPaystack(srv.URL, "sk").Verify(context.Background(), "PAY-abc")
	assert.Error(t, err)
}

func TestVerifyGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewPaystack(srv.URL, "sk").Verify(context.Background(), "PAY-missing")
	assert.Error(t, err)
}

func TestVerifyEscapesReference(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		fmt.Fprintln(w, `{"status":true,"data":{"status":"success","amount":1,"currency":"USD"}}`)
	}))
	defer srv.Close()

	_, err := NewPaystack(srv.URL, "sk").Verify(context.Background(), "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "/transaction/verify/a%2Fb%20c", gotPath)
}
