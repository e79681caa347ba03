package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/photo-analyzer/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	analysisHandler := handlers.NewAnalysisHandler(s.analyzer, s.tracker, s.jobManager)
	jobsHandler := handlers.NewJobsHandler(s.tracker)
	filesHandler := handlers.NewFilesHandler(s.config.Storage.TaggedDir())

	s.router.Get("/", handlers.Root)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Analysis
		r.Post("/tag_and_detect", analysisHandler.TagAndDetect)
		r.Post("/face_tagging", analysisHandler.FaceTagging)
		r.Post("/similar_grouping", analysisHandler.SimilarGrouping)
		r.Post("/blur_detection", analysisHandler.BlurDetection)
		r.Post("/face_validate", analysisHandler.FaceValidate)

		// Jobs
		r.Get("/jobs", jobsHandler.List)
		r.Get("/jobs/{jobId}", jobsHandler.Get)
		r.Delete("/jobs/{jobId}", jobsHandler.Delete)
		r.Get("/jobs/{jobId}/events", jobsHandler.Events)
	})

	s.router.Get("/uploads/tagged_results/{filename}", filesHandler.Serve)
}
