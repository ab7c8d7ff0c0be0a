package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/Yusuf-Babagana/smahi/internal/access"
	"github.com/Yusuf-Babagana/smahi/internal/auth"
	"github.com/Yusuf-Babagana/smahi/internal/config"
	"github.com/Yusuf-Babagana/smahi/internal/handlers"
	"github.com/Yusuf-Babagana/smahi/internal/httpx"
	"github.com/Yusuf-Babagana/smahi/internal/ledger"
	"github.com/Yusuf-Babagana/smahi/internal/models"
	"github.com/Yusuf-Babagana/smahi/internal/paystack"
	"github.com/Yusuf-Babagana/smahi/internal/services"
	"github.com/Yusuf-Babagana/smahi/internal/session"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	// RequireAdmin double-checks that the session's user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	led := ledger.New(db)
	sessions := session.NewStore(cfg.SessionSecret)
	engine := access.NewEngine(sessions, led)
	gateway := paystack.New(cfg.PaystackBaseURL, cfg.PaystackSecretKey)
	applicants := services.NewApplicantService(db)
	mailer := services.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)

	// --- Health endpoints ---
	//revive:disable:unused-parameter simple handlers intentionally ignore *http.Request
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// Lightweight DB check (SELECT 1) – no detail in the body
		if err := db.Exec("SELECT 1").Error; err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, werr := w.Write([]byte(`{"status":"degraded"}`)); werr != nil {
				_ = werr
			}
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	//revive:enable:unused-parameter

	// Payment flow: gateway page, browser-return verification, webhook.
	paymentHandler := handlers.NewPaymentHandler(led, gateway, sessions, cfg.BaseURL)
	paymentHandler.Register(mux)
	webhookHandler := handlers.NewWebhookHandler(led, cfg.PaystackSecretKey)
	webhookHandler.Register(mux)

	// The application form sits behind the access gate.
	applyHandler := handlers.NewApplyHandler(engine, applicants, mailer, cfg.MediaDir)
	mux.Handle("/apply", access.Required(engine, applyHandler))
	mux.Handle("/applications/success", &handlers.SuccessHandler{Applicants: applicants})

	// Back-office.
	adminHandler := handlers.NewAdminHandler(db)
	adminHandler.Register(mux)

	// Stored uploads, admin review only.
	mux.Handle("/media/", auth.Middleware(auth.RequireAdmin(
		http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaDir))))))

	// Static assets.
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	// Landing page.
	mux.Handle("/", &handlers.LandingHandler{Applicants: applicants})

	return withRecover(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
