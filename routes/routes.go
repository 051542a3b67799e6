package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/roofline/handlers"
	"p9e.in/roofline/middleware"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")
	r.HandleFunc("/token", handlers.GetCurrentUser).Methods("GET")
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))),
	)

	// Homeowner intake form posts without an account.
	intake := handlers.NewIntakeHandler()
	r.HandleFunc("/api/v1/intake", intake.SubmitIntake).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)

	// User profile endpoint
	api.HandleFunc("/profile", handlers.GetCurrentUser).Methods("GET")

	registerLeadRoutes(api)
	registerCatalogRoutes(api)
	registerMeasurementRoutes(api)
	registerEstimateRoutes(api)
	registerJobRoutes(api)
	registerBillingRoutes(api)
	registerCrewRoutes(api)
	registerPortalRoutes(api)
	registerReportRoutes(api)
	registerNotificationRoutes(api)

	return r
}

func perm(permission string, h http.HandlerFunc) http.Handler {
	return middleware.RequirePermission(permission)(h)
}

func registerLeadRoutes(api *mux.Router) {
	h := handlers.NewLeadHandler()
	api.Handle("/leads", perm("lead:read", h.ListLeads)).Methods("GET")
	api.Handle("/leads/{id}", perm("lead:read", h.GetLead)).Methods("GET")
	api.Handle("/leads/{id}", perm("lead:update", h.UpdateLead)).Methods("PUT")
	api.Handle("/leads/{id}/assign", perm("lead:assign", h.AssignLead)).Methods("POST")
}

func registerCatalogRoutes(api *mux.Router) {
	h := handlers.NewCatalogHandler()
	api.Handle("/catalog/items", perm("catalog:read", h.ListLineItems)).Methods("GET")
	api.Handle("/catalog/items", perm("catalog:manage", h.CreateLineItem)).Methods("POST")
	api.Handle("/catalog/items/{id}", perm("catalog:manage", h.UpdateLineItem)).Methods("PUT")
	api.Handle("/catalog/items/{id}", perm("catalog:manage", h.DeleteLineItem)).Methods("DELETE")

	api.Handle("/catalog/macros", perm("catalog:read", h.ListMacros)).Methods("GET")
	api.Handle("/catalog/macros", perm("catalog:manage", h.CreateMacro)).Methods("POST")
	api.Handle("/catalog/macros/{id}", perm("catalog:read", h.GetMacro)).Methods("GET")
	api.Handle("/catalog/macros/{id}", perm("catalog:manage", h.DeleteMacro)).Methods("DELETE")

	api.Handle("/catalog/geo-pricing", perm("catalog:read", h.ListGeographicPricing)).Methods("GET")
	api.Handle("/catalog/geo-pricing", perm("catalog:manage", h.CreateGeographicPricing)).Methods("POST")

	api.Handle("/catalog/billing-templates", perm("catalog:read", h.ListBillingTemplates)).Methods("GET")
	api.Handle("/catalog/billing-templates", perm("catalog:manage", h.CreateBillingTemplate)).Methods("POST")
}

func registerMeasurementRoutes(api *mux.Router) {
	h := handlers.NewMeasurementHandler()
	api.Handle("/leads/{lead_id}/photos", perm("measurement:create", h.UploadPhoto)).Methods("POST")
	api.Handle("/leads/{lead_id}/measurements", perm("measurement:create", h.SubmitMeasurements)).Methods("POST")
	api.Handle("/leads/{lead_id}/measurements/manual", perm("measurement:create", h.SubmitManualMeasurement)).Methods("POST")
	api.Handle("/leads/{lead_id}/measurements", perm("measurement:read", h.ListMeasurements)).Methods("GET")
	api.Handle("/measurements/{id}", perm("measurement:read", h.GetMeasurement)).Methods("GET")
}

func registerEstimateRoutes(api *mux.Router) {
	h := handlers.NewEstimateHandler()
	api.Handle("/leads/{lead_id}/estimates", perm("estimate:create", h.CreateEstimate)).Methods("POST")
	api.Handle("/leads/{lead_id}/estimates", perm("estimate:read", h.ListEstimates)).Methods("GET")
	api.Handle("/estimates/{id}", perm("estimate:read", h.GetEstimate)).Methods("GET")
	api.Handle("/estimates/{id}/respond", perm("estimate:respond", h.RespondEstimate)).Methods("POST")
	api.Handle("/estimates/{id}/export", perm("estimate:export", h.ExportEstimate)).Methods("GET")
}

func registerJobRoutes(api *mux.Router) {
	h := handlers.NewJobHandler()
	api.Handle("/jobs", perm("job:create", h.CreateJob)).Methods("POST")
	api.Handle("/jobs", perm("job:read", h.ListJobs)).Methods("GET")
	api.Handle("/jobs/{id}", perm("job:read", h.GetJob)).Methods("GET")
	api.Handle("/jobs/{id}/transition", perm("job:update", h.TransitionJob)).Methods("POST")
	api.Handle("/jobs/{id}/contract", perm("job:update", h.UpdateContract)).Methods("PUT")
	api.Handle("/jobs/{id}/crew", perm("job:update", h.AssignCrew)).Methods("PUT")
}

func registerBillingRoutes(api *mux.Router) {
	h := handlers.NewBillingHandler()
	api.Handle("/jobs/{job_id}/billing", perm("billing:read", h.GetJobSchedule)).Methods("GET")
	api.Handle("/jobs/{job_id}/billing/apply-template", perm("billing:manage", h.ApplyTemplate)).Methods("POST")
	api.Handle("/invoices", perm("billing:read", h.ListInvoices)).Methods("GET")
	api.Handle("/invoices/{id}", perm("billing:read", h.GetInvoice)).Methods("GET")
	api.Handle("/invoices/{id}/status", perm("billing:manage", h.UpdateInvoiceStatus)).Methods("PUT")
}

func registerCrewRoutes(api *mux.Router) {
	h := handlers.NewCrewHandler()
	api.Handle("/crews", perm("crew:read", h.ListCrews)).Methods("GET")
	api.Handle("/crews", perm("crew:manage", h.CreateCrew)).Methods("POST")
	api.Handle("/crews/{id}", perm("crew:read", h.GetCrew)).Methods("GET")
	api.Handle("/crews/{id}/members", perm("crew:manage", h.AddMember)).Methods("POST")
	api.Handle("/crews/{id}/members/{user_id}", perm("crew:manage", h.RemoveMember)).Methods("DELETE")
}

func registerPortalRoutes(api *mux.Router) {
	h := handlers.NewPortalHandler()
	api.Handle("/portal/projects", perm("portal:read", h.GetMyProjects)).Methods("GET")
	api.Handle("/portal/estimates", perm("portal:read", h.GetMyEstimates)).Methods("GET")
	api.Handle("/portal/invoices", perm("portal:read", h.GetMyInvoices)).Methods("GET")
}

func registerReportRoutes(api *mux.Router) {
	h := handlers.NewReportHandler()
	api.Handle("/reports/pipeline", perm("report:read", h.GetPipelineReport)).Methods("GET")
	api.Handle("/reports/pipeline/export", perm("report:read", h.ExportPipelineReport)).Methods("GET")
}

func registerNotificationRoutes(api *mux.Router) {
	h := handlers.NewNotificationHandler()
	api.Handle("/notifications", perm("billing:read", h.ListNotifications)).Methods("GET")
	api.Handle("/notifications/{id}/sent", perm("billing:manage", h.MarkSent)).Methods("POST")
}
