package handlers

import "net/http"

// RegisterRoutes wires the gradebook API onto mux. Every /api route requires
// an instructor token; writes are also rate limited.
func RegisterRoutes(mux *http.ServeMux, h *GradebookHandler, m *Middleware) {
	read := func(fn http.HandlerFunc) http.HandlerFunc {
		return m.RequireInstructor(fn)
	}
	write := func(fn http.HandlerFunc) http.HandlerFunc {
		return m.RateLimit(m.RequireInstructor(fn))
	}

	mux.HandleFunc("GET /healthz", h.Health)

	// Columns
	mux.HandleFunc("GET /api/terms/{term}/columns", read(h.ListColumns))
	mux.HandleFunc("POST /api/terms/{term}/columns", write(h.AddColumn))
	mux.HandleFunc("PUT /api/terms/{term}/columns/{kind}/{id}", write(h.UpdateColumn))
	mux.HandleFunc("POST /api/terms/{term}/columns/{kind}/{id}/remove", write(h.RemoveColumn))
	mux.HandleFunc("POST /api/terms/{term}/columns/{kind}/{id}/restore", write(h.RestoreColumn))

	// Term settings
	mux.HandleFunc("GET /api/terms/{term}/config", read(h.GetTermConfig))
	mux.HandleFunc("PUT /api/terms/{term}/config", write(h.UpdateTermConfig))
	mux.HandleFunc("GET /api/terms/{term}/dates", read(h.ListClassDates))
	mux.HandleFunc("POST /api/terms/{term}/dates", write(h.AddClassDate))
	mux.HandleFunc("DELETE /api/terms/{term}/dates/{date}", write(h.RemoveClassDate))

	// Students
	mux.HandleFunc("GET /api/students", read(h.ListStudents))
	mux.HandleFunc("PUT /api/students/{id}", write(h.UpsertStudent))
	mux.HandleFunc("PUT /api/students/{id}/scores", write(h.RecordScores))
	mux.HandleFunc("PUT /api/students/{id}/attendance", write(h.RecordAttendance))
	mux.HandleFunc("GET /api/students/{id}/report", read(h.StudentReport))

	// Backups
	mux.HandleFunc("GET /api/backup", m.RequireInstructor(m.RequireAdmin(h.ExportBackup)))
	mux.HandleFunc("POST /api/backup", m.RateLimit(m.RequireInstructor(m.RequireAdmin(h.ImportBackup))))

	// Sections
	mux.HandleFunc("GET /api/sections", read(h.ListSections))
	mux.HandleFunc("GET /api/sections/{section}/roster", read(h.SectionRoster))
	mux.HandleFunc("POST /api/sections/{section}/alerts", write(h.SendSectionAlert))
}
