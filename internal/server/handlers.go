package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TheRemi120/runcoach/internal/activity"
	"github.com/TheRemi120/runcoach/internal/pipeline"
	"github.com/TheRemi120/runcoach/pkg/capture"
)

// maxAudioBytes bounds the multipart audio upload size.
const maxAudioBytes = 32 << 20

type recordResponse struct {
	ID             string    `json:"id"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	DistanceKm     float64   `json:"distance_km"`
	Reviewed       bool      `json:"reviewed"`
	ReviewText     *string   `json:"review_text,omitempty"`
	Score          *int      `json:"score,omitempty"`
	Pace           string    `json:"pace"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toResponse(rec activity.Record) recordResponse {
	return recordResponse{
		ID:             rec.ID,
		ElapsedSeconds: rec.ElapsedSeconds,
		DistanceKm:     rec.DistanceKm,
		Reviewed:       rec.Reviewed,
		ReviewText:     rec.ReviewText,
		Score:          rec.Score,
		Pace:           activity.Pace(rec.ElapsedSeconds, rec.DistanceKm),
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

type createActivityRequest struct {
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	DistanceKm     float64 `json:"distance_km"`
}

// handleCreateActivity logs an unreviewed session. Measures are either
// positive or the skipped sentinel.
func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r.Context())
	if !ok {
		s.writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if !validMeasure(req.ElapsedSeconds) || !validMeasure(req.DistanceKm) {
		s.writeError(w, r, http.StatusUnprocessableEntity, "measures must be positive or the skipped sentinel (-1)")
		return
	}

	rec, err := s.store.Create(r.Context(), activity.NewRecord{
		OwnerID:        owner,
		ElapsedSeconds: req.ElapsedSeconds,
		DistanceKm:     req.DistanceKm,
	})
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toResponse(rec))
}

func validMeasure(v float64) bool {
	return v == activity.Skipped || v > 0
}

// handleListActivities returns the owner's records, newest first.
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r.Context())
	if !ok {
		s.writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, http.StatusUnprocessableEntity, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	recs, err := s.store.ListByOwner(r.Context(), owner, limit)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	out := make([]recordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toResponse(rec))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type attachReviewRequest struct {
	ReviewText string `json:"review_text"`
	Score      *int   `json:"score,omitempty"`
}

// handleAttachReview attaches a typed review to an existing record.
func (s *Server) handleAttachReview(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r.Context())
	if !ok {
		s.writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req attachReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.ReviewText == "" {
		s.writeError(w, r, http.StatusUnprocessableEntity, "review_text is required")
		return
	}
	if req.Score != nil && (*req.Score < 1 || *req.Score > 10) {
		s.writeError(w, r, http.StatusUnprocessableEntity, "score must be in [1,10]")
		return
	}

	rec, err := s.store.AttachReview(r.Context(), owner, chi.URLParam(r, "id"), req.ReviewText, req.Score)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(rec))
}

// handleVoiceReview runs the full pipeline over an uploaded recording. The
// multipart form carries the audio file plus the numeric context fields
// distance_km and duration_min, or skip=true.
func (s *Server) handleVoiceReview(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r.Context())
	if !ok {
		s.writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid multipart form")
		return
	}

	params, err := reviewParams(r)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "read audio upload")
		return
	}

	source := &capture.BytesSource{Data: data, MIME: header.Header.Get("Content-Type")}
	rec, err := s.orchestrator.Run(r.Context(), owner, source, params)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toResponse(*rec))
}

// reviewParams extracts the pre-recording numeric context from the form.
func reviewParams(r *http.Request) (pipeline.Params, error) {
	if r.FormValue("skip") == "true" {
		return pipeline.Params{Skip: true}, nil
	}

	distance, err := strconv.ParseFloat(r.FormValue("distance_km"), 64)
	if err != nil {
		return pipeline.Params{}, &pipeline.ValidationError{Field: "distance_km", Reason: "must be a number"}
	}
	duration, err := strconv.ParseFloat(r.FormValue("duration_min"), 64)
	if err != nil {
		return pipeline.Params{}, &pipeline.ValidationError{Field: "duration_min", Reason: "must be a number"}
	}
	return pipeline.Params{DistanceKm: distance, DurationMin: duration}, nil
}

type coachResponse struct {
	Category        string  `json:"category"`
	AverageScore    float64 `json:"average_score"`
	RecommendedLaps string  `json:"recommended_laps"`
	Reasoning       string  `json:"reasoning"`
	Message         string  `json:"message"`
	Refined         bool    `json:"refined"`
	Audio           []byte  `json:"audio,omitempty"`
	AudioMIMEType   string  `json:"audio_mime_type,omitempty"`
}

// handleCoach returns the coaching recommendation for the owner.
func (s *Server) handleCoach(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(r.Context())
	if !ok {
		s.writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	advice, err := s.coach.Advise(r.Context(), owner)
	if err != nil {
		s.writeMappedError(w, r, err)
		return
	}

	resp := coachResponse{
		Category:        string(advice.Recommendation.Category),
		AverageScore:    advice.Recommendation.AverageScore,
		RecommendedLaps: advice.Recommendation.RecommendedLaps,
		Reasoning:       advice.Recommendation.Reasoning,
		Message:         advice.Message,
		Refined:         advice.Refined,
	}
	if advice.Speech != nil {
		resp.Audio = advice.Speech.Audio
		resp.AudioMIMEType = advice.Speech.MIMEType
	}
	s.writeJSON(w, http.StatusOK, resp)
}
