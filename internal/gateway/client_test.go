package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeSuccess(t *testing.T) {
	var gotAuth, gotSource, gotOrderID, gotAmount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/charges", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotAuth = r.Header.Get("Authorization")
		gotSource = r.PostFormValue("source")
		gotOrderID = r.PostFormValue("metadata[order_id]")
		gotAmount = r.PostFormValue("amount")
		w.Write([]byte(`{"id":"ch_123","balance_transaction":"txn_456"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", "whsec", 5*time.Second)
	result, err := client.Charge(context.Background(), &ChargeRequest{
		AmountMinor: 3250,
		Currency:    "usd",
		Description: "Storefront order #42",
		Metadata:    map[string]string{"order_id": "42"},
		SourceToken: "tok_visa",
	})
	require.NoError(t, err)

	assert.Equal(t, "ch_123", result.ChargeID)
	assert.Equal(t, "txn_456", result.SettlementRef)
	assert.JSONEq(t, `{"id":"ch_123","balance_transaction":"txn_456"}`, string(result.Raw))

	assert.Equal(t, "Bearer sk_test_key", gotAuth)
	assert.Equal(t, "tok_visa", gotSource)
	assert.Equal(t, "42", gotOrderID)
	assert.Equal(t, "3250", gotAmount)
}

func TestChargeStoredCustomer(t *testing.T) {
	var gotCustomer, gotSource string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotCustomer = r.PostFormValue("customer")
		gotSource = r.PostFormValue("source")
		w.Write([]byte(`{"id":"ch_1","balance_transaction":"txn_1"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", "whsec", 5*time.Second)
	_, err := client.Charge(context.Background(), &ChargeRequest{
		AmountMinor: 100,
		Currency:    "usd",
		CustomerRef: "cus_42",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_42", gotCustomer)
	assert.Empty(t, gotSource)
}

func TestChargeDecline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"Your card was declined."}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", "whsec", 5*time.Second)
	_, err := client.Charge(context.Background(), &ChargeRequest{
		AmountMinor: 100, Currency: "usd", SourceToken: "tok_chargeDeclined",
	})

	var chargeErr *ChargeError
	require.ErrorAs(t, err, &chargeErr)
	assert.Equal(t, "Your card was declined.", chargeErr.Message)
}

func TestChargeResponseMissingIdentifiers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"ch_123"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", "whsec", 5*time.Second)
	_, err := client.Charge(context.Background(), &ChargeRequest{
		AmountMinor: 100, Currency: "usd", SourceToken: "tok_visa",
	})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestChargeRequiresExactlyOneSource(t *testing.T) {
	client := NewClient("http://unreachable.invalid", "sk", "whsec", time.Second)

	_, err := client.Charge(context.Background(), &ChargeRequest{AmountMinor: 100, Currency: "usd"})
	require.Error(t, err)

	_, err = client.Charge(context.Background(), &ChargeRequest{
		AmountMinor: 100, Currency: "usd", SourceToken: "tok", CustomerRef: "cus",
	})
	require.Error(t, err)
}

func TestCreateStoredMethod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok_visa", r.PostFormValue("source"))
		assert.Equal(t, "a@example.com", r.PostFormValue("email"))
		w.Write([]byte(`{"id":"cus_42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", "whsec", 5*time.Second)
	ref, err := client.CreateStoredMethod(context.Background(), "tok_visa", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_42", ref)
}

func TestUpdateStoredMethod(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customers/cus_42", r.URL.Path)
		w.Write([]byte(`{"id":"cus_42"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", "whsec", 5*time.Second)
	require.NoError(t, client.UpdateStoredMethod(context.Background(), "cus_42", "tok_mc"))
}

func TestChargeNetworkError(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "sk", "whsec", 500*time.Millisecond)

	_, err := client.Charge(context.Background(), &ChargeRequest{
		AmountMinor: 100, Currency: "usd", SourceToken: "tok_visa",
	})
	require.Error(t, err)
	var chargeErr *ChargeError
	assert.False(t, errors.As(err, &chargeErr))
}
