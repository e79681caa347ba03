package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kozaktomas/photo-analyzer/internal/config"
	"github.com/kozaktomas/photo-analyzer/internal/constants"
	"github.com/kozaktomas/photo-analyzer/internal/facematch"
	"github.com/kozaktomas/photo-analyzer/internal/fingerprint"
	"github.com/kozaktomas/photo-analyzer/internal/jobstatus"
	"github.com/kozaktomas/photo-analyzer/internal/pipeline"
)

// Analyzer runs analysis batches. *pipeline.Analyzer satisfies it.
type Analyzer interface {
	Integration(ctx context.Context, req pipeline.IntegrationRequest, rep pipeline.ProgressReporter) (*pipeline.BatchResult, error)
	Grouping(ctx context.Context, req pipeline.GroupingRequest, rep pipeline.ProgressReporter) (*pipeline.GroupingResult, error)
	DetectBlur(ctx context.Context, images []pipeline.ImageRef, blurThreshold float64) (*pipeline.BlurResult, error)
	ValidateFace(ctx context.Context, url, personName string, minFaceSize int) facematch.Validation
	Defaults() config.AnalysisDefaults
}

// AnalysisHandler serves the batch analysis endpoints.
type AnalysisHandler struct {
	analyzer Analyzer
	tracker  *jobstatus.Tracker
	jobs     *JobManager
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analyzer Analyzer, tracker *jobstatus.Tracker, jobs *JobManager) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer, tracker: tracker, jobs: jobs}
}

// yoloOptions are the object detection settings of a request.
type yoloOptions struct {
	Conf    *float64 `json:"conf"`
	ImgSize *int     `json:"imgsz"`
}

// TagAndDetectRequest is the body of POST /api/tag_and_detect.
type TagAndDetectRequest struct {
	JobID                 string              `json:"job_id"`
	TargetFaces           []pipeline.ImageRef `json:"target_faces"`
	SourceImages          []pipeline.ImageRef `json:"source_images"`
	FaceDistanceThreshold *float64            `json:"face_distance_threshold"`
	YOLO                  yoloOptions         `json:"yolo"`
	BlurThreshold         *float64            `json:"blur_threshold"`
	ReturnTaggedImages    bool                `json:"return_tagged_images"`
	Async                 bool                `json:"async"`
}

// FaceTaggingRequest is the body of POST /api/face_tagging.
type FaceTaggingRequest struct {
	TargetFaces           []pipeline.ImageRef `json:"target_faces"`
	SourceImages          []pipeline.ImageRef `json:"source_images"`
	FaceDistanceThreshold *float64            `json:"face_distance_threshold"`
	ReturnTaggedImages    bool                `json:"return_tagged_images"`
}

// GroupingRequest is the body of POST /api/similar_grouping.
type GroupingRequest struct {
	JobID               string              `json:"job_id"`
	Images              []pipeline.ImageRef `json:"images"`
	SimilarityThreshold *float64            `json:"similarity_threshold"`
	Async               bool                `json:"async"`
}

// BlurRequest is the body of POST /api/blur_detection.
type BlurRequest struct {
	Images        []pipeline.ImageRef `json:"images"`
	BlurThreshold *float64            `json:"blur_threshold"`
}

// FaceValidateRequest is the body of POST /api/face_validate.
type FaceValidateRequest struct {
	ImageURL    string `json:"image_url"`
	PersonName  string `json:"person_name"`
	MinFaceSize *int   `json:"min_face_size"`
}

// JobAccepted is returned for asynchronous requests.
type JobAccepted struct {
	JobID   string           `json:"job_id"`
	JobType jobstatus.Type   `json:"job_type"`
	Status  jobstatus.Status `json:"status"`
}

// TagAndDetect runs identity tagging with object detection and blur screening.
func (h *AnalysisHandler) TagAndDetect(w http.ResponseWriter, r *http.Request) {
	var body TagAndDetectRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.TargetFaces == nil || body.SourceImages == nil {
		respondError(w, http.StatusBadRequest, "target_faces and source_images are required")
		return
	}

	defaults := h.analyzer.Defaults()
	req := pipeline.IntegrationRequest{
		TargetFaces:       body.TargetFaces,
		SourceImages:      body.SourceImages,
		DistanceThreshold: orDefault(body.FaceDistanceThreshold, defaults.FaceDistanceThreshold),
		BlurThreshold:     orDefault(body.BlurThreshold, defaults.BlurThreshold),
		Detection: fingerprint.DetectOptions{
			Conf:    orDefault(body.YOLO.Conf, defaults.Detection.Conf),
			ImgSize: orDefault(body.YOLO.ImgSize, defaults.Detection.ImgSize),
		},
		ReturnTaggedImages: body.ReturnTaggedImages,
	}

	jobID := jobIDOrNew(body.JobID)
	rep := jobstatus.NewReporter(h.tracker, jobID, jobstatus.TypeIntegration)
	slog.Info("handlers: tag and detect", "job_id", sanitizeForLog(jobID),
		"targets", len(req.TargetFaces), "sources", len(req.SourceImages), "async", body.Async)

	if body.Async {
		h.startAsync(w, r, rep, jobstatus.TypeIntegration, len(req.SourceImages), func(ctx context.Context) {
			_, _ = h.analyzer.Integration(ctx, req, rep)
		})
		return
	}

	result, err := h.analyzer.Integration(r.Context(), req, rep)
	if err != nil {
		respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// FaceTagging runs identity tagging only. At least one target face must be
// recognised.
func (h *AnalysisHandler) FaceTagging(w http.ResponseWriter, r *http.Request) {
	var body FaceTaggingRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.TargetFaces == nil || body.SourceImages == nil {
		respondError(w, http.StatusBadRequest, "target_faces and source_images are required")
		return
	}

	req := pipeline.IntegrationRequest{
		TargetFaces:        body.TargetFaces,
		SourceImages:       body.SourceImages,
		DistanceThreshold:  orDefault(body.FaceDistanceThreshold, h.analyzer.Defaults().FaceDistanceThreshold),
		ReturnTaggedImages: body.ReturnTaggedImages,
		FacesOnly:          true,
		RequireReferences:  true,
	}

	result, err := h.analyzer.Integration(r.Context(), req, nil)
	if err != nil {
		respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SimilarGrouping groups near-duplicate images.
func (h *AnalysisHandler) SimilarGrouping(w http.ResponseWriter, r *http.Request) {
	var body GroupingRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Images == nil {
		respondError(w, http.StatusBadRequest, "images are required")
		return
	}

	req := pipeline.GroupingRequest{
		Images:              body.Images,
		SimilarityThreshold: orDefault(body.SimilarityThreshold, h.analyzer.Defaults().SimilarityThreshold),
	}

	jobID := jobIDOrNew(body.JobID)
	rep := jobstatus.NewReporter(h.tracker, jobID, jobstatus.TypeSimilarGrouping)
	slog.Info("handlers: similar grouping", "job_id", sanitizeForLog(jobID), "images", len(req.Images), "async", body.Async)

	if body.Async {
		h.startAsync(w, r, rep, jobstatus.TypeSimilarGrouping, len(req.Images), func(ctx context.Context) {
			_, _ = h.analyzer.Grouping(ctx, req, rep)
		})
		return
	}

	result, err := h.analyzer.Grouping(r.Context(), req, rep)
	if err != nil {
		respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// BlurDetection scores every image for blur.
func (h *AnalysisHandler) BlurDetection(w http.ResponseWriter, r *http.Request) {
	var body BlurRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Images == nil {
		respondError(w, http.StatusBadRequest, "images are required")
		return
	}

	threshold := orDefault(body.BlurThreshold, h.analyzer.Defaults().BlurThreshold)
	result, err := h.analyzer.DetectBlur(r.Context(), body.Images, threshold)
	if err != nil {
		respondAnalysisError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// FaceValidate checks a registration photo.
func (h *AnalysisHandler) FaceValidate(w http.ResponseWriter, r *http.Request) {
	var body FaceValidateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.ImageURL == "" {
		respondError(w, http.StatusBadRequest, "image_url is required")
		return
	}

	name := body.PersonName
	if name == "" {
		name = constants.DefaultValidatePersonName
	}
	minSize := orDefault(body.MinFaceSize, h.analyzer.Defaults().MinFaceSize)

	v := h.analyzer.ValidateFace(r.Context(), body.ImageURL, name, minSize)
	status := http.StatusOK
	if !v.IsValid {
		status = http.StatusUnprocessableEntity
	}
	respondJSON(w, status, v)
}

// startAsync records STARTED so the job is visible before responding, then
// runs fn in the background.
func (h *AnalysisHandler) startAsync(w http.ResponseWriter, r *http.Request, rep *jobstatus.Reporter, jobType jobstatus.Type, total int, fn func(ctx context.Context)) {
	if err := rep.Start(r.Context(), "job accepted", total); err != nil {
		slog.Error("handlers: failed to record job", "job_id", rep.JobID(), "error", err)
		respondError(w, http.StatusServiceUnavailable, "job status store unavailable")
		return
	}

	h.jobs.Go(rep.JobID(), fn)
	respondJSON(w, http.StatusAccepted, JobAccepted{
		JobID:   rep.JobID(),
		JobType: jobType,
		Status:  jobstatus.StatusStarted,
	})
}

// respondAnalysisError maps pipeline errors to HTTP statuses.
func respondAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoReferences):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "error while processing: "+err.Error())
	}
}

func jobIDOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
