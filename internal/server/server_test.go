package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/TheRemi120/runcoach/internal/activity"
	"github.com/TheRemi120/runcoach/internal/coach"
	"github.com/TheRemi120/runcoach/internal/pipeline"
	"github.com/TheRemi120/runcoach/internal/review"
	"github.com/TheRemi120/runcoach/pkg/capture"
	"github.com/TheRemi120/runcoach/pkg/provider"
	"github.com/TheRemi120/runcoach/pkg/provider/stt"
	sttmock "github.com/TheRemi120/runcoach/pkg/provider/stt/mock"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestServer(t *testing.T, transcriber stt.Transcriber) (*Server, *activity.MemStore) {
	t.Helper()
	store := activity.NewMemStore()
	if transcriber == nil {
		transcriber = &sttmock.Transcriber{
			TranscribeFunc: func(context.Context, stt.Clip) (string, error) {
				return "Felt strong today. Pace was steady.", nil
			},
		}
	}
	orch := pipeline.New(transcriber, review.NewEngine(nil), store)
	return New(store, orch, coach.New(store), testSecret), store
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t, nil)
	router := s.Router()

	if rec := doJSON(t, router, http.MethodGet, "/api/activities", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	bad := signToken(t, "runner-1") + "tampered"
	if rec := doJSON(t, router, http.MethodGet, "/api/activities", bad, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestHealthOpen(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := doJSON(t, s.Router(), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCreateAndListActivities(t *testing.T) {
	s, _ := newTestServer(t, nil)
	router := s.Router()
	token := signToken(t, "runner-1")

	rec := doJSON(t, router, http.MethodPost, "/api/activities", token,
		createActivityRequest{ElapsedSeconds: 1800, DistanceKm: 5})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", rec.Code, rec.Body)
	}
	var created recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" || created.Reviewed {
		t.Errorf("created = %+v", created)
	}
	if created.Pace != "6:00/km" {
		t.Errorf("Pace = %q, want 6:00/km", created.Pace)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/activities", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list []recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}

	// Records are owner-scoped.
	other := signToken(t, "runner-2")
	rec = doJSON(t, router, http.MethodGet, "/api/activities", other, nil)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("other owner sees %s", body)
	}
}

func TestCreateActivityRejectsBadMeasures(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := doJSON(t, s.Router(), http.MethodPost, "/api/activities", signToken(t, "runner-1"),
		createActivityRequest{ElapsedSeconds: 0, DistanceKm: 5})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func multipartReview(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("audio", "recording.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("opus frames"))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestVoiceReview(t *testing.T) {
	s, _ := newTestServer(t, nil)
	router := s.Router()

	body, contentType := multipartReview(t, map[string]string{
		"distance_km":  "5",
		"duration_min": "20",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "runner-1"))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Reviewed || resp.ReviewText == nil || !strings.HasPrefix(*resp.ReviewText, "- ") {
		t.Errorf("resp = %+v", resp)
	}
	if resp.ElapsedSeconds != 1200 {
		t.Errorf("ElapsedSeconds = %v, want 1200", resp.ElapsedSeconds)
	}
}

func TestVoiceReviewValidation(t *testing.T) {
	s, _ := newTestServer(t, nil)
	router := s.Router()

	body, contentType := multipartReview(t, map[string]string{
		"distance_km":  "not-a-number",
		"duration_min": "20",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "runner-1"))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestVoiceReviewServiceErrorMapsTo502(t *testing.T) {
	failing := &sttmock.Transcriber{
		TranscribeFunc: func(context.Context, stt.Clip) (string, error) {
			return "", &provider.ServiceError{Service: "elevenlabs", Status: 500, Body: "upstream"}
		},
	}
	s, _ := newTestServer(t, failing)
	router := s.Router()

	body, contentType := multipartReview(t, map[string]string{"skip": "true"})
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "runner-1"))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestAttachReview(t *testing.T) {
	s, store := newTestServer(t, nil)
	router := s.Router()
	token := signToken(t, "runner-1")

	created, err := store.Create(context.Background(), activity.NewRecord{
		OwnerID: "runner-1", ElapsedSeconds: 1800, DistanceKm: 5,
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	score := 7
	rec := doJSON(t, router, http.MethodPost, "/api/activities/"+created.ID+"/review", token,
		attachReviewRequest{ReviewText: "- Good session", Score: &score})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp recordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Reviewed || resp.Score == nil || *resp.Score != 7 {
		t.Errorf("resp = %+v", resp)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/activities/missing/review", token,
		attachReviewRequest{ReviewText: "x longer text"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}
}

func TestCoachEndpoint(t *testing.T) {
	s, store := newTestServer(t, nil)
	router := s.Router()
	token := signToken(t, "runner-1")

	text := "- Strong run"
	for _, score := range []int{8, 9, 8} {
		sc := score
		if _, err := store.CreateReviewed(context.Background(), activity.NewRecord{
			OwnerID: "runner-1", ElapsedSeconds: 1500, DistanceKm: 5,
			ReviewText: &text, Score: &sc,
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/api/coach", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp coachResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Category != "high" {
		t.Errorf("Category = %q, want high", resp.Category)
	}
	if !strings.Contains(resp.Message, "6-7") {
		t.Errorf("Message = %q, want lap target 6-7", resp.Message)
	}
	if resp.Refined {
		t.Error("Refined = true without a completer")
	}
}

func TestPipelineBusyMapsTo409(t *testing.T) {
	store := activity.NewMemStore()
	transcriber := &sttmock.Transcriber{
		TranscribeFunc: func(context.Context, stt.Clip) (string, error) {
			return "ok", nil
		},
	}
	orch := pipeline.New(transcriber, review.NewEngine(nil), store)
	s := New(store, orch, coach.New(store), testSecret)
	router := s.Router()

	// Occupy the orchestrator so the HTTP run is rejected.
	if err := orch.Start(context.Background(), "runner-1",
		&capture.BytesSource{Data: []byte("x")}, pipeline.Params{Skip: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	body, contentType := multipartReview(t, map[string]string{"skip": "true"})
	req := httptest.NewRequest(http.MethodPost, "/api/review", body)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "runner-1"))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}
