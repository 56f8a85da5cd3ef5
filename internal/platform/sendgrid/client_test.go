package sendgrid

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/shopfront-backend/internal/platform/logger"
)

func TestSendBuildsMailRequest(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "sg-key", BaseURL: srv.URL, DefaultFromEmail: "shop@example.com", DefaultFromName: "Shop"})
	require.NoError(t, err)

	res, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "buyer@example.com"}},
		Subject: " Order ORD1 ",
		Text:    "thanks",
		HTML:    "<p>thanks</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, "msg-1", res.MessageID)
	assert.Equal(t, "shop@example.com", got.From.Email)
	assert.Equal(t, "Shop", got.From.Name)
	assert.Equal(t, "Order ORD1", got.Subject)
	require.Len(t, got.Content, 2)
	assert.Equal(t, "text/plain", got.Content[0].Type)
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, DefaultFromEmail: "a@b.c", MaxRetries: 2, BaseBackoff: time.Millisecond})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x@y.z"}}, Subject: "s", Text: "t"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()

	c, err := New(logger.Nop(), Config{APIKey: "k", BaseURL: srv.URL, DefaultFromEmail: "a@b.c", MaxRetries: 3, BaseBackoff: time.Millisecond})
	require.NoError(t, err)

	_, err = c.Send(context.Background(), SendEmailRequest{To: []EmailAddress{{Email: "x@y.z"}}, Subject: "s", Text: "t"})
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "sendgrid http 400: bad from", he.Error())
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(logger.Nop(), Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
