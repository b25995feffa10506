package http

import (
	"net/http"

	"doctor-appointment-service/internal/delivery/http/handler"
	"doctor-appointment-service/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router             *mux.Router
	appointmentHandler *handler.AppointmentHandler
	paymentHandler     *handler.PaymentHandler
	doctorHandler      *handler.DoctorHandler
	auditLogHandler    *handler.AuditLogHandler
	authMiddleware     *middleware.AuthMiddleware
	corsMiddleware     *middleware.CORSMiddleware
}

func NewRouter(
	appointmentHandler *handler.AppointmentHandler,
	paymentHandler *handler.PaymentHandler,
	doctorHandler *handler.DoctorHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:             mux.NewRouter(),
		appointmentHandler: appointmentHandler,
		paymentHandler:     paymentHandler,
		doctorHandler:      doctorHandler,
		auditLogHandler:    auditLogHandler,
		authMiddleware:     authMiddleware,
		corsMiddleware:     corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Doctor directory (public)
	api.HandleFunc("/doctors", r.doctorHandler.ListDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}/slots", r.doctorHandler.GetBookedSlots).Methods(http.MethodGet)

	// Patient routes (protected)
	patient := api.PathPrefix("/appointments").Subrouter()
	patient.Use(r.authMiddleware.Authenticate)
	patient.Handle("", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.Book))).Methods(http.MethodPost)
	patient.Handle("", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.ListMine))).Methods(http.MethodGet)
	patient.HandleFunc("/{id}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPost)
	patient.Handle("/{id}/complete", middleware.RequireAdminOrDoctor(http.HandlerFunc(r.appointmentHandler.Complete))).Methods(http.MethodPost)

	// Payment routes (protected)
	payments := api.PathPrefix("/payments").Subrouter()
	payments.Use(r.authMiddleware.Authenticate)
	payments.HandleFunc("/intent", r.paymentHandler.CreateIntent).Methods(http.MethodPost)
	payments.HandleFunc("/verify", r.paymentHandler.VerifyPayment).Methods(http.MethodPost)

	// Doctor routes (protected - doctor or admin)
	doctor := api.PathPrefix("/doctor").Subrouter()
	doctor.Use(r.authMiddleware.Authenticate)
	doctor.Handle("/appointments", middleware.RequireDoctor(http.HandlerFunc(r.appointmentHandler.ListForDoctor))).Methods(http.MethodGet)
	doctor.Handle("/{id}/availability", middleware.RequireAdminOrDoctor(http.HandlerFunc(r.doctorHandler.ChangeAvailability))).Methods(http.MethodPatch)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/appointments", r.appointmentHandler.ListAll).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
