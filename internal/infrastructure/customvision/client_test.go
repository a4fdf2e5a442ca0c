package customvision

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"recycle-guide/internal/domain/entity"
)

const recycledBody = `{"predictions":[{"tagName":"recycled","probability":0.85,"boundingBox":{"left":10,"top":10,"width":40,"height":40}}]}`

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	log, _ := test.NewNullLogger()
	return NewClient(Config{
		URL:            url,
		Key:            "secret",
		RetryCount:     3,
		BackoffBase:    time.Millisecond,
		AttemptTimeout: time.Second,
	}, nil, log)
}

func TestClient_SendsPayloadWithHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "secret", r.Header.Get("Prediction-Key"))
		require.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, []byte("jpeg-bytes"), body)

		_, _ = io.WriteString(w, recycledBody)
	}))
	defer srv.Close()

	detections, err := newTestClient(t, srv.URL).Classify(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	require.Len(t, detections, 1)
	require.Equal(t, "recycled", detections[0].Label)
	require.Equal(t, 0.85, detections[0].Confidence)
	require.Equal(t, entity.Rect{X: 10, Y: 10, Width: 40, Height: 40}, *detections[0].Region)
}

func TestClient_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, recycledBody)
	}))
	defer srv.Close()

	detections, err := newTestClient(t, srv.URL).Classify(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Len(t, detections, 1)
	require.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterFourthRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Classify(context.Background(), []byte("x"))
	require.Error(t, err)

	var serverErr *entity.ServerError
	require.True(t, errors.As(err, &serverErr))
	require.True(t, serverErr.IsRateLimited())
	require.Equal(t, int32(4), calls.Load())
}

func TestClient_BackoffDoubles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.cfg.BackoffBase = time.Second

	var delays []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := c.Classify(context.Background(), []byte("x"))
	require.Error(t, err)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, delays)
}

func TestClient_DoesNotRetryOtherStatuses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Classify(context.Background(), []byte("x"))

	var serverErr *entity.ServerError
	require.True(t, errors.As(err, &serverErr))
	require.Equal(t, http.StatusInternalServerError, serverErr.StatusCode)
	require.Equal(t, "boom", serverErr.Body)
	require.Equal(t, int32(1), calls.Load())
}

func TestClient_ParseErrorsAreNotRetried(t *testing.T) {
	bodies := map[string]string{
		"not json":            `<html>`,
		"missing predictions": `{"id":"x"}`,
		"missing tagName":     `{"predictions":[{"probability":0.9,"boundingBox":{"left":0,"top":0,"width":1,"height":1}}]}`,
		"missing probability": `{"predictions":[{"tagName":"recycled","boundingBox":{"left":0,"top":0,"width":1,"height":1}}]}`,
		"incomplete box":      `{"predictions":[{"tagName":"recycled","probability":0.9,"boundingBox":{"left":0,"top":0}}]}`,
		"negative box":        `{"predictions":[{"tagName":"recycled","probability":0.9,"boundingBox":{"left":-1,"top":0,"width":1,"height":1}}]}`,
		"probability range":   `{"predictions":[{"tagName":"recycled","probability":1.5,"boundingBox":{"left":0,"top":0,"width":1,"height":1}}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				_, _ = io.WriteString(w, body)
			}))
			defer srv.Close()

			detections, err := newTestClient(t, srv.URL).Classify(context.Background(), []byte("x"))
			require.ErrorIs(t, err, entity.ErrParse)
			require.Nil(t, detections)
			require.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_PredictionWithoutBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"predictions":[{"tagName":"on-position","probability":0.6}]}`)
	}))
	defer srv.Close()

	detections, err := newTestClient(t, srv.URL).Classify(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Len(t, detections, 1)
	require.Equal(t, entity.LabelOnPosition, detections[0].Label)
	require.InDelta(t, 0.6, detections[0].Confidence, 1e-9)
	require.Nil(t, detections[0].Region)
}

func TestClient_EmptyPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"predictions":[]}`)
	}))
	defer srv.Close()

	detections, err := newTestClient(t, srv.URL).Classify(context.Background(), []byte("x"))
	require.NoError(t, err)
	require.Empty(t, detections)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url).Classify(context.Background(), []byte("x"))
	require.ErrorIs(t, err, entity.ErrNetwork)
}

func TestClient_AttemptTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newTestClient(t, srv.URL)
	c.cfg.AttemptTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := c.Classify(context.Background(), []byte("x"))
	require.ErrorIs(t, err, entity.ErrNetwork)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_BackoffHonoursCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.cfg.BackoffBase = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Classify(ctx, []byte("x"))
	require.ErrorIs(t, err, entity.ErrNetwork)
}
