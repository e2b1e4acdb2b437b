package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/swaggo/swag"

	"github.com/custodia-labs/similarity-core/internal/core/domain"
	"github.com/custodia-labs/similarity-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"Plagiarism report not found"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports the state of each dependency
// @Description Readiness status with per-dependency checks
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// MaterialResponse wraps a material and the ingestion task queued for it
// @Description Registered material
type MaterialResponse struct {
	Success  bool             `json:"success" example:"true"`
	Material *domain.Material `json:"material"`
	TaskID   string           `json:"task_id,omitempty"`
}

// MaterialsResponse wraps a list of materials
// @Description A list of materials
type MaterialsResponse struct {
	Success   bool               `json:"success" example:"true"`
	Materials []*domain.Material `json:"materials"`
	Count     int                `json:"count" example:"2"`
}

// MaterialTextResponse wraps reconstructed material text
// @Description Extracted text of a material
type MaterialTextResponse struct {
	Success bool                 `json:"success" example:"true"`
	Text    *domain.MaterialText `json:"text"`
}

// ReferenceRequest registers an external reference document
// @Description External reference registration
type ReferenceRequest struct {
	Title      string `json:"title" validate:"required,max=500" example:"Wikipedia: Photosynthesis"`
	URL        string `json:"url" validate:"required,url" example:"https://en.wikipedia.org/wiki/Photosynthesis"`
	Text       string `json:"text" validate:"required_without=StorageKey"`
	StorageKey string `json:"storage_key" validate:"max=1024"`
	MimeType   string `json:"mime_type" validate:"max=255"`
}

// ReportResponse wraps a plagiarism report
// @Description Plagiarism report for a submission
type ReportResponse struct {
	Success bool           `json:"success" example:"true"`
	Report  *domain.Report `json:"report"`
}

// TaskAcceptedResponse is returned when work is queued
// @Description Queued task reference
type TaskAcceptedResponse struct {
	Success bool   `json:"success" example:"true"`
	TaskID  string `json:"task_id" example:"01890a5d-ac96-774b-bcce-b302099a8057"`
}

// TaskResponse wraps a task
// @Description Background task state
type TaskResponse struct {
	Success bool         `json:"success" example:"true"`
	Task    *domain.Task `json:"task"`
}

// DeleteResponse lists what a cascade delete removed
// @Description Cascade delete result with storage keys to remove
type DeleteResponse struct {
	Success bool `json:"success" example:"true"`
	driving.DeleteResult
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Checks the database, Redis, object storage, the in-process worker and the embedder. Fails only when a required dependency is down.
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: map[string]string{}}
	status := http.StatusOK

	checks := []readinessCheck{{name: "database", pinger: s.db}, {name: "redis", pinger: s.redisClient}}
	for _, c := range append(checks, s.readiness...) {
		if c.pinger == nil {
			continue
		}
		if err := c.pinger.Ping(ctx); err != nil {
			resp.Checks[c.name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Checks[c.name] = "ok"
		}
	}
	if s.runtimeConfig != nil {
		// A missing embedder degrades checks but does not make the API unready
		if s.runtimeConfig.EmbeddingAvailable() {
			resp.Checks["embedding"] = "ok"
		} else {
			resp.Checks["embedding"] = "unavailable"
		}
	}

	if status != http.StatusOK {
		resp.Status = "not ready"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleSwaggerDoc serves the registered OpenAPI document
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// Material endpoints

// handleRegisterMaterial godoc
// @Summary      Register a material
// @Description  Registers a material from inline text or an existing storage key (JSON), or from an uploaded file (multipart/form-data). Processing is queued; when no queue is configured it runs inline. Only teachers and admins may register non-submission materials.
// @Tags         Materials
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.RegisterMaterialRequest  false  "Material (JSON)"
// @Param        file     formData  file                             false  "Material file (multipart)"
// @Success      201      {object}  MaterialResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Failure      500      {object}  ErrorResponse
// @Router       /materials [post]
func (s *Server) handleRegisterMaterial(maxUpload int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx := GetAuthContext(r.Context())

		var (
			req  driving.RegisterMaterialRequest
			data []byte
		)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			var err error
			req, data, err = readUpload(w, r, maxUpload)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if req.OwnerType != domain.OwnerSubmission && !authCtx.CanManage() {
			writeError(w, http.StatusForbidden, "teacher or admin access required")
			return
		}
		if req.CourseID == "" {
			req.CourseID = authCtx.CourseID
		}

		// Uploads carry their content in the file, not in text or storage_key
		var verr error
		if data != nil {
			verr = s.validate.StructExcept(req, "Text", "StorageKey")
		} else {
			verr = s.validate.Struct(req)
		}
		if verr != nil {
			writeError(w, http.StatusBadRequest, validationMessage(verr))
			return
		}

		var (
			material *domain.Material
			err      error
		)
		if data != nil {
			material, err = s.materialService.Upload(r.Context(), req, data)
		} else {
			material, err = s.materialService.Register(r.Context(), req)
		}
		if err != nil {
			writeServiceError(w, err, "failed to register material")
			return
		}

		resp, err := s.startIngest(r.Context(), material)
		if err != nil {
			writeServiceError(w, err, "failed to process material")
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// readUpload parses a multipart material upload
func readUpload(w http.ResponseWriter, r *http.Request, maxUpload int64) (driving.RegisterMaterialRequest, []byte, error) {
	var req driving.RegisterMaterialRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+1<<20)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return req, nil, fmt.Errorf("invalid multipart form: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return req, nil, errors.New("file is required")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUpload+1))
	if err != nil {
		return req, nil, errors.New("failed to read file")
	}
	if int64(len(data)) > maxUpload {
		return req, nil, errors.New("file too large")
	}

	req = driving.RegisterMaterialRequest{
		Title:        r.FormValue("title"),
		MimeType:     header.Header.Get("Content-Type"),
		OwnerType:    domain.OwnerType(r.FormValue("owner_type")),
		CourseID:     r.FormValue("course_id"),
		AssignmentID: r.FormValue("assignment_id"),
		SubmissionID: r.FormValue("submission_id"),
		SourceURL:    r.FormValue("source_url"),
	}
	if req.Title == "" {
		req.Title = header.Filename
	}
	// Browsers send a generic type for unknown extensions; let the title decide
	if req.MimeType == "application/octet-stream" {
		req.MimeType = ""
	}
	return req, data, nil
}

// startIngest queues processing, or processes inline when no queue is configured
func (s *Server) startIngest(ctx context.Context, m *domain.Material) (*MaterialResponse, error) {
	task, err := s.taskService.EnqueueIngest(ctx, m.CourseID, m.ID)
	if err == nil {
		return &MaterialResponse{Success: true, Material: m, TaskID: task.ID}, nil
	}
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		return nil, err
	}

	processed, err := s.materialService.Process(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return &MaterialResponse{Success: true, Material: processed}, nil
}

// handleGetMaterial godoc
// @Summary      Get a material
// @Description  Returns a material with its processing status
// @Tags         Materials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Material ID"
// @Success      200  {object}  MaterialResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /materials/{id} [get]
func (s *Server) handleGetMaterial(w http.ResponseWriter, r *http.Request) {
	material, err := s.materialService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to get material")
		return
	}
	writeJSON(w, http.StatusOK, MaterialResponse{Success: true, Material: material})
}

// handleGetMaterialText godoc
// @Summary      Get extracted text
// @Description  Reconstructs the extracted text of a processed material from its chunks
// @Tags         Materials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Material ID"
// @Success      200  {object}  MaterialTextResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /materials/{id}/text [get]
func (s *Server) handleGetMaterialText(w http.ResponseWriter, r *http.Request) {
	text, err := s.materialService.GetText(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to get material text")
		return
	}
	writeJSON(w, http.StatusOK, MaterialTextResponse{Success: true, Text: text})
}

// handleProcessMaterial godoc
// @Summary      Process a material
// @Description  Runs extraction, chunking, embedding and indexing now. With force=true the material is re-embedded even if it is up to date (teachers and admins only).
// @Tags         Materials
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Material ID"
// @Param        force  query     bool    false  "Re-embed even if processed"
// @Success      200    {object}  MaterialResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      403    {object}  ErrorResponse
// @Failure      404    {object}  ErrorResponse
// @Failure      409    {object}  ErrorResponse  "Material is being processed"
// @Router       /materials/{id}/process [post]
func (s *Server) handleProcessMaterial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		material *domain.Material
		err      error
	)
	if r.URL.Query().Get("force") == "true" {
		if !GetAuthContext(r.Context()).CanManage() {
			writeError(w, http.StatusForbidden, "teacher or admin access required")
			return
		}
		material, err = s.materialService.Reprocess(r.Context(), id)
	} else {
		material, err = s.materialService.Process(r.Context(), id)
	}
	if err != nil {
		writeServiceError(w, err, "failed to process material")
		return
	}
	writeJSON(w, http.StatusOK, MaterialResponse{Success: true, Material: material})
}

// handleRegisterReference godoc
// @Summary      Register an external reference
// @Description  Adds a document to the external reference corpus (teachers and admins only)
// @Tags         Materials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      ReferenceRequest  true  "Reference"
// @Success      201      {object}  MaterialResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      403      {object}  ErrorResponse
// @Router       /references [post]
func (s *Server) handleRegisterReference(w http.ResponseWriter, r *http.Request) {
	var req ReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	material, err := s.materialService.Register(r.Context(), driving.RegisterMaterialRequest{
		Title:      req.Title,
		MimeType:   req.MimeType,
		OwnerType:  domain.OwnerExternalReference,
		SourceURL:  req.URL,
		StorageKey: req.StorageKey,
		Text:       req.Text,
	})
	if err != nil {
		writeServiceError(w, err, "failed to register reference")
		return
	}

	resp, err := s.startIngest(r.Context(), material)
	if err != nil {
		writeServiceError(w, err, "failed to process reference")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleListReferences godoc
// @Summary      List external references
// @Description  Returns every registered external reference, oldest first
// @Tags         Materials
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MaterialsResponse
// @Router       /references [get]
func (s *Server) handleListReferences(w http.ResponseWriter, r *http.Request) {
	materials, err := s.materialService.ListReferences(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to list references")
		return
	}
	writeJSON(w, http.StatusOK, MaterialsResponse{Success: true, Materials: nonNil(materials), Count: len(materials)})
}

// handleDeleteMaterial godoc
// @Summary      Delete a material
// @Description  Removes a course material, assignment or external reference with its chunks and index entries (teachers and admins only). Submission files are removed with their submission.
// @Tags         Materials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Material ID"
// @Success      200  {object}  DeleteResponse
// @Failure      400  {object}  ErrorResponse  "Material belongs to a submission"
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse  "Material is being processed"
// @Router       /materials/{id} [delete]
func (s *Server) handleDeleteMaterial(w http.ResponseWriter, r *http.Request) {
	result, err := s.materialService.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to delete material")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, DeleteResult: *result})
}

// Course endpoints

// handleListCourseMaterials godoc
// @Summary      List course materials
// @Description  Returns a course's course materials and assignments, oldest first
// @Tags         Courses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  MaterialsResponse
// @Router       /courses/{id}/materials [get]
func (s *Server) handleListCourseMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.materialService.ListByCourse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to list materials")
		return
	}
	writeJSON(w, http.StatusOK, MaterialsResponse{Success: true, Materials: nonNil(materials), Count: len(materials)})
}

// handleDeleteCourse godoc
// @Summary      Delete a course
// @Description  Removes a course's course materials and assignments with their chunks and index entries. Submissions are kept.
// @Tags         Courses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Course ID"
// @Success      200  {object}  DeleteResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse  "No materials found for this course"
// @Router       /courses/{id} [delete]
func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	result, err := s.materialService.DeleteCourse(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No materials found for this course")
			return
		}
		writeServiceError(w, err, "failed to delete course")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, DeleteResult: *result})
}

// handleDeleteAllCourses godoc
// @Summary      Delete all courses
// @Description  Removes every course material and assignment (admins only)
// @Tags         Courses
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DeleteResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /courses [delete]
func (s *Server) handleDeleteAllCourses(w http.ResponseWriter, r *http.Request) {
	result, err := s.materialService.DeleteAllCourses(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to delete courses")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, DeleteResult: *result})
}

func nonNil(materials []*domain.Material) []*domain.Material {
	if materials == nil {
		return []*domain.Material{}
	}
	return materials
}

// Submission endpoints

// handleListSubmissionMaterials godoc
// @Summary      List submission materials
// @Description  Returns every material of a submission, oldest first
// @Tags         Submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  MaterialsResponse
// @Failure      404  {object}  ErrorResponse  "No materials found for this submission"
// @Router       /submissions/{id}/materials [get]
func (s *Server) handleListSubmissionMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.materialService.ListBySubmission(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No materials found for this submission")
			return
		}
		writeServiceError(w, err, "failed to list materials")
		return
	}
	writeJSON(w, http.StatusOK, MaterialsResponse{Success: true, Materials: materials, Count: len(materials)})
}

// handleDeleteSubmission godoc
// @Summary      Delete a submission
// @Description  Removes a submission's materials, chunks and report. Returns the storage keys so the caller can delete the files.
// @Tags         Submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  DeleteResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /submissions/{id} [delete]
func (s *Server) handleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	result, err := s.plagiarismService.DeleteSubmission(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to delete submission")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, DeleteResult: *result})
}

// handleDeleteAllSubmissions godoc
// @Summary      Delete all submissions
// @Description  Removes every submission material, chunk and report (admins only)
// @Tags         Submissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  DeleteResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /submissions [delete]
func (s *Server) handleDeleteAllSubmissions(w http.ResponseWriter, r *http.Request) {
	result, err := s.plagiarismService.DeleteAllSubmissions(r.Context())
	if err != nil {
		writeServiceError(w, err, "failed to delete submissions")
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, DeleteResult: *result})
}

// Plagiarism endpoints

// handleCheckPlagiarism godoc
// @Summary      Check a submission
// @Description  Computes the submission's similarity report, stores it (replacing any previous one) and returns it
// @Tags         Plagiarism
// @Produce      json
// @Security     BearerAuth
// @Param        submissionId  path      string  true  "Submission ID"
// @Success      200           {object}  ReportResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      404           {object}  ErrorResponse  "Submission has no materials"
// @Failure      409           {object}  ErrorResponse  "A check for this submission is already running"
// @Failure      500           {object}  ErrorResponse
// @Router       /plagiarism/check-plagiarism/{submissionId} [get]
func (s *Server) handleCheckPlagiarism(timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		report, err := s.plagiarismService.Check(ctx, r.PathValue("submissionId"))
		if err != nil {
			writeServiceError(w, err, "check failed, try again")
			return
		}
		writeJSON(w, http.StatusOK, ReportResponse{Success: true, Report: report})
	}
}

// handleCheckPlagiarismAsync godoc
// @Summary      Queue a submission check
// @Description  Queues a plagiarism check; poll the task, then fetch the report
// @Tags         Plagiarism
// @Produce      json
// @Security     BearerAuth
// @Param        submissionId  path      string  true   "Submission ID"
// @Param        course_id     query     string  false  "Course ID (defaults to the caller's course)"
// @Success      202           {object}  TaskAcceptedResponse
// @Failure      400           {object}  ErrorResponse
// @Failure      503           {object}  ErrorResponse  "No task queue configured"
// @Router       /plagiarism/check-plagiarism/{submissionId}/async [post]
func (s *Server) handleCheckPlagiarismAsync(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("course_id")
	if courseID == "" {
		courseID = GetAuthContext(r.Context()).CourseID
	}

	task, err := s.taskService.EnqueueCheck(r.Context(), courseID, r.PathValue("submissionId"))
	if err != nil {
		writeServiceError(w, err, "failed to queue check")
		return
	}
	writeJSON(w, http.StatusAccepted, TaskAcceptedResponse{Success: true, TaskID: task.ID})
}

// handleGetPlagiarismReport godoc
// @Summary      Get a submission's report
// @Description  Returns the stored report without recomputing it
// @Tags         Plagiarism
// @Produce      json
// @Security     BearerAuth
// @Param        submissionId  path      string  true  "Submission ID"
// @Success      200           {object}  ReportResponse
// @Failure      404           {object}  ErrorResponse  "Plagiarism report not found"
// @Router       /plagiarism/get-plagiarism-report/{submissionId} [get]
func (s *Server) handleGetPlagiarismReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.plagiarismService.GetReport(r.Context(), r.PathValue("submissionId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Plagiarism report not found")
			return
		}
		writeServiceError(w, err, "failed to get report")
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{Success: true, Report: report})
}

// Task endpoints

// handleGetTask godoc
// @Summary      Get a task
// @Description  Returns the state of a background task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  TaskResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.taskService.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "failed to get task")
		return
	}
	writeJSON(w, http.StatusOK, TaskResponse{Success: true, Task: task})
}

// Helpers

// writeServiceError maps domain errors to status codes. Unexpected errors
// get the fallback message so internals are not leaked.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, userMessage(err))
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "operation already in progress, try again later")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrServiceUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable):
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// userMessage returns the message of the innermost error that wraps
// ErrInvalidInput, without the sentinel text. Stage context is dropped.
func userMessage(err error) string {
	inner := err
	for e := err; e != nil && e != domain.ErrInvalidInput; e = errors.Unwrap(e) {
		if errors.Is(e, domain.ErrInvalidInput) {
			inner = e
		}
	}

	sentinel := domain.ErrInvalidInput.Error()
	msg := inner.Error()
	msg = strings.TrimPrefix(msg, sentinel+": ")
	msg = strings.TrimSuffix(msg, ": "+sentinel)
	return msg
}

// validationMessage describes the first failed field
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return fmt.Sprintf("invalid %s: failed %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return "invalid request"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}
