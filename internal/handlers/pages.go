package handlers

import (
	"log"
	"net/http"

	"github.com/Yusuf-Babagana/smahi/internal/money"
	"github.com/Yusuf-Babagana/smahi/internal/services"
)

// LandingHandler renders the public home page with the running applicant
// count and the fee.
type LandingHandler struct {
	Applicants *services.ApplicantService
}

func (h *LandingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	total, err := h.Applicants.Count()
	if err != nil {
		log.Printf("landing: applicant count: %v", err)
	}
	renderTemplate(w, r, "landing", map[string]any{
		"TotalApplicants": total,
		"Fee":             money.Fee,
		"Flash":           popFlash(w, r),
	})
}
