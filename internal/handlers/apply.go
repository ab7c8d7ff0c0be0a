package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Yusuf-Babagana/smahi/internal/access"
	"github.com/Yusuf-Babagana/smahi/internal/httpx"
	"github.com/Yusuf-Babagana/smahi/internal/models"
	"github.com/Yusuf-Babagana/smahi/internal/money"
	"github.com/Yusuf-Babagana/smahi/internal/services"
	"github.com/Yusuf-Babagana/smahi/internal/upload"
	"github.com/Yusuf-Babagana/smahi/internal/validation"
)

// multipartMemory is the in-memory parse budget; larger parts spill to disk.
const multipartMemory = 10 << 20

// ApplyHandler is the gated application form: render, validate, store the
// uploads, stamp the payment snapshot from the session, and spend the grant.
type ApplyHandler struct {
	Engine     *access.Engine
	Applicants *services.ApplicantService
	Mailer     services.Mailer
	MediaDir   string
}

func NewApplyHandler(engine *access.Engine, applicants *services.ApplicantService, mailer services.Mailer, mediaDir string) *ApplyHandler {
	return &ApplyHandler{Engine: engine, Applicants: applicants, Mailer: mailer, MediaDir: mediaDir}
}

func (h *ApplyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.form(w, r, nil)
	case http.MethodPost:
		h.submit(w, r)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	}
}

func (h *ApplyHandler) form(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["States"] = models.StateChoices
	data["Positions"] = models.PositionChoices
	for _, k := range []string{"FullName", "Email", "Phone", "Address", "State"} {
		if _, ok := data[k]; !ok {
			data[k] = ""
		}
	}
	if data["Email"] == "" {
		data["Email"] = h.Engine.Sessions.Get(r).Email
	}
	renderTemplate(w, r, "apply", data)
}

func (h *ApplyHandler) submit(w http.ResponseWriter, r *http.Request) {
	// The router already gates this route, but the submission handler asks
	// the same engine again so the two verdicts cannot drift apart within
	// one request lifecycle.
	if !h.Engine.HasAccess(w, r) {
		http.Redirect(w, r, "/payment", http.StatusSeeOther)
		return
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.form(w, r, map[string]any{"Error": "Could not read the submitted form. Please try again."})
		return
	}

	fullName := strings.TrimSpace(r.FormValue("full_name"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	phone := strings.TrimSpace(r.FormValue("phone"))
	address := strings.TrimSpace(r.FormValue("address"))
	state := r.FormValue("state")
	position := r.FormValue("position_applied")
	if position == "" {
		position = "agent"
	}

	fieldData := map[string]any{
		"FullName": fullName, "Email": email, "Phone": phone,
		"Address": address, "State": state,
	}
	fail := func(msg string) {
		fieldData["Error"] = msg
		h.form(w, r, fieldData)
	}

	v := validation.Violations{}
	validation.Required("full_name", fullName, v)
	validation.Required("phone", phone, v)
	validation.Required("address", address, v)
	validation.Email("email", email, v)
	validation.MaxLen("full_name", fullName, 200, v)
	validation.MaxLen("phone", phone, 20, v)
	validation.Choice("state", state, models.ChoiceValues(models.StateChoices), v)
	validation.Choice("position_applied", position, models.ChoiceValues(models.PositionChoices), v)
	if !v.Empty() {
		fail(violationMessage(v))
		return
	}

	cvs := r.MultipartForm.File["cv"]
	if len(cvs) == 0 {
		fail("Please upload your CV/Resume.")
		return
	}
	cvPath, err := upload.Save(cvs[0], h.MediaDir, "cv", upload.CVExtensions)
	if err != nil {
		fail(uploadErrorMessage("CV", err))
		return
	}

	var receiptPath string
	if receipts := r.MultipartForm.File["receipt"]; len(receipts) > 0 {
		receiptPath, err = upload.Save(receipts[0], h.MediaDir, "receipts", upload.ReceiptExtensions)
		if err != nil {
			fail(uploadErrorMessage("receipt", err))
			return
		}
	}

	// Snapshot the payment identifiers now; the applicant record never
	// re-joins the ledger.
	sess := h.Engine.Sessions.Get(r)
	applicant := models.Applicant{
		FullName:        fullName,
		Email:           email,
		Phone:           phone,
		Address:         address,
		State:           state,
		PositionApplied: position,
		CVPath:          cvPath,
		ReceiptPath:     receiptPath,
	}
	if sess.Email != "" && sess.Reference != "" {
		applicant.PaymentEmail = sess.Email
		applicant.PaymentReference = sess.Reference
		applicant.PaymentAmount = money.Fee
	}
	if err := h.Applicants.Create(&applicant); err != nil {
		log.Printf("apply: create applicant: %v", err)
		fail("We could not save your application. Please try again.")
		return
	}

	if err := h.Mailer.SendConfirmation(&applicant); err != nil {
		// Best-effort: the submission stands even when mail delivery fails.
		log.Printf("apply: confirmation email for applicant %d: %v", applicant.ID, err)
	}

	// One payment, one submission: spend the grant and the session cache.
	h.Engine.Consume(w, r)
	http.Redirect(w, r, "/applications/success?id="+strconv.FormatUint(uint64(applicant.ID), 10), http.StatusSeeOther)
}

// violationMessage folds field violations into the single banner the form
// template shows; required fields first, then shape problems.
func violationMessage(v validation.Violations) string {
	switch {
	case v["full_name"] == "required" || v["phone"] == "required" || v["address"] == "required":
		return "Please fill in all required fields."
	case v.Has("email"):
		return "Please provide a valid email address."
	case v.Has("state"):
		return "Please select your state of residence."
	case v.Has("position_applied"):
		return "Unknown position."
	default:
		return "Please correct the submitted fields."
	}
}

func uploadErrorMessage(field string, err error) string {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		return "The " + field + " file must be smaller than 5MB."
	case errors.Is(err, upload.ErrBadExtension):
		return "The " + field + " file type is not allowed."
	default:
		return "We could not store your " + field + " upload. Please try again."
	}
}

// SuccessHandler renders the post-submission confirmation page.
type SuccessHandler struct {
	Applicants *services.ApplicantService
}

func (h *SuccessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	applicant, err := h.Applicants.Get(uint(id))
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "application_success", map[string]any{"Applicant": applicant})
}
