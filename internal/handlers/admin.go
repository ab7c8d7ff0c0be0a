package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Yusuf-Babagana/smahi/internal/auth"
	"github.com/Yusuf-Babagana/smahi/internal/httpx"
	"github.com/Yusuf-Babagana/smahi/internal/models"
)

// AdminHandler serves the back-office: login plus read-only list views over
// applicants, transactions, and access grants.
type AdminHandler struct{ DB *gorm.DB }

func NewAdminHandler(db *gorm.DB) *AdminHandler { return &AdminHandler{DB: db} }

func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/admin/login", h.login)
	mux.HandleFunc("/admin/logout", h.logout)
	mux.Handle("/admin/applicants", auth.Middleware(auth.RequireAdmin(http.HandlerFunc(h.applicants))))
	mux.Handle("/admin/transactions", auth.Middleware(auth.RequireAdmin(http.HandlerFunc(h.transactions))))
	mux.Handle("/admin/access", auth.Middleware(auth.RequireAdmin(http.HandlerFunc(h.accessGrants))))
	mux.Handle("/admin", auth.Middleware(auth.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/applicants", http.StatusSeeOther)
	}))))
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if uid, ok := auth.ParseSession(r); ok && uid != 0 {
			http.Redirect(w, r, "/admin/applicants", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "admin_login", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	if err := r.ParseForm(); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form")
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	pass := r.FormValue("password")
	if email == "" || pass == "" {
		renderTemplate(w, r, "admin_login", map[string]any{"Error": "email and password required"})
		return
	}
	var user models.User
	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		renderTemplate(w, r, "admin_login", map[string]any{"Error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(pass)) != nil {
		renderTemplate(w, r, "admin_login", map[string]any{"Error": "invalid credentials"})
		return
	}
	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/admin/applicants", http.StatusSeeOther)
}

func (h *AdminHandler) logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	auth.ClearSession(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func (h *AdminHandler) applicants(w http.ResponseWriter, r *http.Request) {
	var apps []models.Applicant
	h.DB.Order("created_at desc").Find(&apps)
	renderTemplate(w, r, "admin_applicants", map[string]any{"Applicants": apps})
}

func (h *AdminHandler) transactions(w http.ResponseWriter, r *http.Request) {
	var txs []models.PaymentTransaction
	h.DB.Order("created_at desc").Find(&txs)
	renderTemplate(w, r, "admin_transactions", map[string]any{"Transactions": txs})
}

func (h *AdminHandler) accessGrants(w http.ResponseWriter, r *http.Request) {
	var grants []models.FormAccess
	h.DB.Order("updated_at desc").Find(&grants)
	renderTemplate(w, r, "admin_access", map[string]any{"Grants": grants})
}
