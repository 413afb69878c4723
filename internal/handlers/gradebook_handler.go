package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"gradewatch/internal/models"
	"gradewatch/internal/risk"
	"gradewatch/internal/service"
)

// maxBackupBytes caps the size of an uploaded snapshot
const maxBackupBytes = 32 << 20

// GradebookHandler serves the JSON gradebook API
type GradebookHandler struct {
	gradebook *service.GradebookService
	alerts    *service.AlertService
	backups   *service.BackupService
}

// NewGradebookHandler creates a new gradebook handler. backups must be bound
// to gradebook so imports reload the live state.
func NewGradebookHandler(gradebook *service.GradebookService, alerts *service.AlertService, backups *service.BackupService) *GradebookHandler {
	return &GradebookHandler{gradebook: gradebook, alerts: alerts, backups: backups}
}

type addColumnRequest struct {
	Kind      string      `json:"kind" validate:"required,oneof=quiz activity"`
	MaxPoints interface{} `json:"maxPoints"`
	Date      string      `json:"date" validate:"omitempty,isodate"`
}

type updateColumnRequest struct {
	MaxPoints interface{} `json:"maxPoints"`
	Date      *string     `json:"date" validate:"omitempty,isodate"`
}

type termConfigRequest struct {
	RecitationMax interface{} `json:"recitationMax"`
	ExamMax       interface{} `json:"examMax"`
}

type classDateRequest struct {
	Date string `json:"date" validate:"required,isodate"`
}

type scoresRequest struct {
	Scores map[string]interface{} `json:"scores" validate:"required,min=1"`
}

type attendanceRequest struct {
	Date   string `json:"date" validate:"required,isodate"`
	Status string `json:"status"`
}

type studentRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Section string `json:"section" validate:"required,max=64"`
	Email   string `json:"email" validate:"omitempty,email"`
}

type alertRequest struct {
	To string `json:"to" validate:"required,email"`
}

type columnChangeResponse struct {
	Changed bool               `json:"changed"`
	Columns models.TermColumns `json:"columns"`
}

// Health reports that the server is up
func (h *GradebookHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListColumns returns a term's active and removed columns
func (h *GradebookHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	term, ok := pathTerm(w, r)
	if !ok {
		return
	}
	cols, err := h.gradebook.Columns(term)
	if err != nil {
		respondWithServiceError(w, "Error listing columns", err)
		return
	}
	respondJSON(w, http.StatusOK, cols)
}

// AddColumn creates a quiz or activity column
func (h *GradebookHandler) AddColumn(w http.ResponseWriter, r *http.Request) {
	term, ok := pathTerm(w, r)
	if !ok {
		return
	}
	var req addColumnRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	col, err := h.gradebook.AddColumn(r.Context(), term, models.Kind(req.Kind), req.MaxPoints, req.Date)
	if err != nil {
		respondWithServiceError(w, "Error adding column", err)
		return
	}
	respondJSON(w, http.StatusCreated, col)
}

// RemoveColumn soft-deletes a column. Unknown ids answer changed=false.
func (h *GradebookHandler) RemoveColumn(w http.ResponseWriter, r *http.Request) {
	h.changeColumn(w, r, "Error removing column", h.gradebook.RemoveColumn)
}

// RestoreColumn reactivates a removed column. Unknown ids answer changed=false.
func (h *GradebookHandler) RestoreColumn(w http.ResponseWriter, r *http.Request) {
	h.changeColumn(w, r, "Error restoring column", h.gradebook.RestoreColumn)
}

func (h *GradebookHandler) changeColumn(w http.ResponseWriter, r *http.Request, logMsg string,
	fn func(ctx context.Context, term models.Term, kind models.Kind, id string) (bool, error)) {
	term, kind, ok := pathTermKind(w, r)
	if !ok {
		return
	}

	changed, err := fn(r.Context(), term, kind, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, logMsg, err)
		return
	}
	h.respondColumns(w, term, changed)
}

// UpdateColumn edits a column's maximum points and/or date
func (h *GradebookHandler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	term, kind, ok := pathTermKind(w, r)
	if !ok {
		return
	}
	var req updateColumnRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	id := r.PathValue("id")

	var changed bool
	if req.MaxPoints != nil {
		c, err := h.gradebook.SetMaxPoints(r.Context(), term, kind, id, req.MaxPoints)
		if err != nil {
			respondWithServiceError(w, "Error updating column", err)
			return
		}
		changed = changed || c
	}
	if req.Date != nil {
		c, err := h.gradebook.SetColumnDate(r.Context(), term, kind, id, *req.Date)
		if err != nil {
			respondWithServiceError(w, "Error updating column", err)
			return
		}
		changed = changed || c
	}
	h.respondColumns(w, term, changed)
}

func (h *GradebookHandler) respondColumns(w http.ResponseWriter, term models.Term, changed bool) {
	cols, err := h.gradebook.Columns(term)
	if err != nil {
		respondWithServiceError(w, "Error listing columns", err)
		return
	}
	respondJSON(w, http.StatusOK, columnChangeResponse{Changed: changed, Columns: cols})
}

// GetTermConfig returns a term's recitation and exam maximums
func (h *GradebookHandler) GetTermConfig(w http.ResponseWriter, r *http.Request) {
	term, ok := pathTerm(w, r)
	if !ok {
		return
	}
	cfg, err := h.gradebook.TermConfig(term)
	if err != nil {
		respondWithServiceError(w, "Error reading term config", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// UpdateTermConfig replaces a term's recitation and exam maximums
func (h *GradebookHandler) UpdateTermConfig(w http.ResponseWriter, r *http.Request) {
	term, ok := pathTerm(w, r)
	if !ok {
		return
	}
	var req termConfigRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	cfg, err := h.gradebook.SetTermConfig(r.Context(), term, req.RecitationMax, req.ExamMax)
	if err != nil {
		respondWithServiceError(w, "Error saving term config", err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// ListClassDates returns a term's class meetings
func (h *GradebookHandler) ListClassDates(w http.ResponseWriter, r *http.Request) {
	term, ok := pathTerm(w, r)
	if !ok {
		return
	}
	dates, err := h.gradebook.ClassDates(term)
	if err != nil {
		respondWithServiceError(w, "Error listing class dates", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

// AddClassDate adds a class meeting
func (h *GradebookHandler) AddClassDate(w http.ResponseWriter, r *http.Request) {
	term, ok := pathTerm(w, r)
	if !ok {
		return
	}
	var req classDateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if _, err := h.gradebook.AddClassDate(r.Context(), term, req.Date); err != nil {
		respondWithServiceError(w, "Error adding class date", err)
		return
	}
	h.ListClassDates(w, r)
}

// RemoveClassDate drops a class meeting
func (h *GradebookHandler) RemoveClassDate(w http.ResponseWriter, r *http.Request) {
	term, ok := pathTerm(w, r)
	if !ok {
		return
	}
	if _, err := h.gradebook.RemoveClassDate(r.Context(), term, r.PathValue("date")); err != nil {
		respondWithServiceError(w, "Error removing class date", err)
		return
	}
	h.ListClassDates(w, r)
}

// RecordScores stores raw scores keyed by their assessment key ("r1_mid", "<id>_fin", ...).
// Null or blank values clear a score.
func (h *GradebookHandler) RecordScores(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("id")
	var req scoresRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entries := make(map[models.AssessmentKey]interface{}, len(req.Scores))
	fields := make(map[string]string)
	for raw, value := range req.Scores {
		key, err := models.ParseAssessmentKey(raw)
		if err != nil {
			fields["scores."+raw] = err.Error()
			continue
		}
		entries[key] = value
	}
	if len(fields) > 0 {
		respondWithFieldErrors(w, fields)
		return
	}

	if _, err := h.gradebook.RecordScores(r.Context(), studentID, entries); err != nil {
		respondWithServiceError(w, "Error recording scores", err)
		return
	}
	h.StudentReport(w, r)
}

// RecordAttendance stores one attendance mark; an empty status clears it
func (h *GradebookHandler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	status, err := models.ParseAttendanceStatus(req.Status)
	if err != nil {
		respondWithFieldErrors(w, map[string]string{"status": err.Error()})
		return
	}

	if err := h.gradebook.RecordAttendance(r.Context(), r.PathValue("id"), req.Date, status); err != nil {
		respondWithServiceError(w, "Error recording attendance", err)
		return
	}
	h.StudentReport(w, r)
}

// StudentReport returns a student's grades, attendance and risk
func (h *GradebookHandler) StudentReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.gradebook.StudentReport(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error building report", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// ListStudents returns the roster
func (h *GradebookHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.gradebook.ListStudents(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error listing students", err)
		return
	}
	if students == nil {
		students = []models.Student{}
	}
	respondJSON(w, http.StatusOK, students)
}

// UpsertStudent creates or updates a roster entry
func (h *GradebookHandler) UpsertStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	student := models.Student{
		ID:      r.PathValue("id"),
		Name:    strings.TrimSpace(req.Name),
		Section: strings.TrimSpace(req.Section),
		Email:   strings.TrimSpace(req.Email),
	}
	if err := h.gradebook.UpsertStudent(r.Context(), student); err != nil {
		respondWithServiceError(w, "Error saving student", err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// ListSections returns every section's risk summary, most at-risk first
func (h *GradebookHandler) ListSections(w http.ResponseWriter, r *http.Request) {
	overview, err := h.gradebook.SectionOverview(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error building section overview", err)
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// SectionRoster returns the reports of a section; ?atRisk=true keeps only flagged students
func (h *GradebookHandler) SectionRoster(w http.ResponseWriter, r *http.Request) {
	atRiskOnly := r.URL.Query().Get("atRisk") == "true"
	reports, err := h.gradebook.SectionRoster(r.Context(), r.PathValue("section"), atRiskOnly)
	if err != nil {
		respondWithServiceError(w, "Error building roster", err)
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// SendSectionAlert e-mails the section's at-risk digest
func (h *GradebookHandler) SendSectionAlert(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil || !h.alerts.IsEnabled() {
		respondWithServiceError(w, "", service.ErrEmailDisabled)
		return
	}
	var req alertRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	section := r.PathValue("section")
	reports, err := h.gradebook.SectionRoster(r.Context(), section, false)
	if err != nil {
		respondWithServiceError(w, "Error building roster", err)
		return
	}

	rows := make([]risk.StudentRisk, 0, len(reports))
	for _, rep := range reports {
		rows = append(rows, rep.StudentRisk())
	}
	summaries := risk.Summarize(rows)
	if len(summaries) == 0 {
		respondWithError(w, http.StatusNotFound, ErrSectionNotFound, "", nil)
		return
	}

	if claims := InstructorFromContext(r.Context()); claims != nil {
		log.Printf("Risk digest for %s requested by %s", section, claims.Subject)
	}
	if err := h.alerts.SendRiskDigest(r.Context(), req.To, summaries[0], reports); err != nil {
		respondWithServiceError(w, "Error sending risk digest", err)
		return
	}
	respondJSON(w, http.StatusAccepted, summaries[0])
}

// ExportBackup streams a JSON snapshot of the whole gradebook
func (h *GradebookHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	backup, err := h.backups.Snapshot(r.Context())
	if err != nil {
		respondWithServiceError(w, "Error exporting backup", err)
		return
	}
	filename := fmt.Sprintf("gradebook_%s.json", backup.ExportedAt.Format("20060102_150405"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	respondJSON(w, http.StatusOK, backup)
}

// ImportBackup restores an uploaded snapshot into the running gradebook.
// ?replace=true clears existing records and students first.
func (h *GradebookHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	replace := r.URL.Query().Get("replace") == "true"
	body := http.MaxBytesReader(w, r.Body, maxBackupBytes)

	if err := h.backups.Import(r.Context(), body, replace); err != nil {
		if errors.Is(err, service.ErrInvalidBackup) {
			respondWithError(w, http.StatusBadRequest, ErrInvalidBackup, "", nil)
			return
		}
		respondWithServiceError(w, "Error importing backup", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"imported": true, "replaced": replace})
}

// pathTerm parses the {term} path value, answering 404 when unknown
func pathTerm(w http.ResponseWriter, r *http.Request) (models.Term, bool) {
	term, err := models.ParseTerm(r.PathValue("term"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrUnknownTerm, "", nil)
		return "", false
	}
	return term, true
}

func pathTermKind(w http.ResponseWriter, r *http.Request) (models.Term, models.Kind, bool) {
	term, ok := pathTerm(w, r)
	if !ok {
		return "", "", false
	}
	kind, err := models.ParseKind(r.PathValue("kind"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, ErrUnknownKind, "", nil)
		return "", "", false
	}
	return term, kind, true
}
