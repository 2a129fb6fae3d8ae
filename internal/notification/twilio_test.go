package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwilioNotifierSend(t *testing.T) {
	var (
		gotPath string
		gotForm map[string]string
		gotUser string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, _, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{"To": r.PostForm.Get("To"), "From": r.PostForm.Get("From"), "Body": r.PostForm.Get("Body")}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewTwilioNotifier("AC123", "token", "+15550001111", "+91").WithBaseURL(srv.URL)
	err := n.Send(context.Background(), Message{Kind: KindLoginOTP, Destination: "9876543210", Body: "Your code is 1234"})
	require.NoError(t, err)

	assert.Equal(t, "/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "AC123", gotUser)
	assert.Equal(t, "+919876543210", gotForm["To"])
	assert.Equal(t, "+15550001111", gotForm["From"])
	assert.Equal(t, "Your code is 1234", gotForm["Body"])
}

func TestTwilioNotifierReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid To"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTwilioNotifier("AC123", "token", "+15550001111", "91").WithBaseURL(srv.URL)
	err := n.Send(context.Background(), Message{Destination: "+441234567890", Body: "x"})
	require.ErrorContains(t, err, "400")
}
