package reply

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func backend(t *testing.T, status int, body string) (*httptest.Server, *[]string) {
	t.Helper()
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req request
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		got = append(got, req.Message)

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestCompleteSuccess(t *testing.T) {
	srv, got := backend(t, http.StatusOK, `{"success":true,"response":"ok"}`)
	c := NewClient(srv.URL + "/api/chat")

	out, err := c.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []string{"hi"}, *got)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `oops`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, 500, se.Code)
				assert.Contains(t, err.Error(), "500")
			},
		},
		{
			name:   "server error with message",
			status: http.StatusBadRequest,
			body:   `{"success":false,"error":"message is empty"}`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, "message is empty", se.Message)
			},
		},
		{
			name:   "success false",
			status: http.StatusOK,
			body:   `{"success":false,"error":"model offline"}`,
			check: func(t *testing.T, err error) {
				var be *BackendError
				require.True(t, errors.As(err, &be))
				assert.Equal(t, "model offline", be.Message)
			},
		},
		{
			name:   "success false without error",
			status: http.StatusOK,
			body:   `{"success":false}`,
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "unknown error")
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformed)
			},
		},
		{
			name:   "missing response",
			status: http.StatusOK,
			body:   `{"success":true}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := backend(t, tt.status, tt.body)
			c := NewClient(srv.URL)

			_, err := c.Complete(context.Background(), "hi")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := c.Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrTimeout)

	text, ok := c.Send(context.Background(), "hi")
	assert.False(t, ok)
	assert.Contains(t, text, "timed out")
}

func TestCompleteTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url)
	_, err := c.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api call")
}

func TestCompleteTruncatesAndRewrites(t *testing.T) {
	srv, got := backend(t, http.StatusOK, `{"success":true,"response":"ok"}`)
	c := NewClient(srv.URL, WithRewrite(strings.ToUpper))

	long := strings.Repeat("a", MaxMessageLength+500)
	_, err := c.Complete(context.Background(), long)
	require.NoError(t, err)

	require.Len(t, *got, 1)
	sent := (*got)[0]
	assert.LessOrEqual(t, len([]rune(sent)), MaxMessageLength)
	assert.True(t, strings.HasPrefix(sent, "AAA"))
	assert.True(t, strings.HasSuffix(sent, "...[truncated]"))
}

func TestSend(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv, _ := backend(t, http.StatusOK, `{"success":true,"response":"hello there"}`)
		text, ok := NewClient(srv.URL).Send(context.Background(), "hi")
		assert.True(t, ok)
		assert.Equal(t, "hello there", text)
	})

	t.Run("failure embeds cause", func(t *testing.T) {
		srv, _ := backend(t, http.StatusInternalServerError, `{"success":false,"error":"boom"}`)
		text, ok := NewClient(srv.URL).Send(context.Background(), "hi")
		assert.False(t, ok)
		assert.Contains(t, text, "Sorry")
		assert.Contains(t, text, "api error 500: boom")
	})
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	require.NoError(t, NewClient(srv.URL+"/api/chat").Health(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(down.Close)

	var se *StatusError
	require.ErrorAs(t, NewClient(down.URL).Health(context.Background()), &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
}

func TestDefaultEndpoint(t *testing.T) {
	assert.Equal(t, DefaultEndpoint, NewClient("").Endpoint())
}

func TestCompleteRecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	ok, _ := backend(t, http.StatusOK, `{"success":true,"response":"ok"}`)
	bad, _ := backend(t, http.StatusBadGateway, ``)

	_, err := NewClient(ok.URL, WithTracerProvider(tp)).Complete(context.Background(), "hi")
	require.NoError(t, err)
	_, err = NewClient(bad.URL, WithTracerProvider(tp)).Complete(context.Background(), "hi")
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "reply.complete", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
