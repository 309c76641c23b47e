/*-------------------------------------------------------------------------
 *
 * router.go
 *    HTTP route wiring for the access review API
 *
 * Copyright (c) 2024-2026, IPAMC, Inc. <engineering@ipamc.io>
 *
 * IDENTIFICATION
 *    accessreview/internal/api/router.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ipamc/accessreview/internal/metrics"
)

/* NewRouter builds the full route table. health is consulted by the
 * /health endpoint; nil means always healthy. */
func NewRouter(handlers *Handlers, health func(r *http.Request) error) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware)
	router.Use(CORSMiddleware)
	router.Use(LoggingMiddleware)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	/* Directory */
	apiRouter.HandleFunc("/users", handlers.CreateUser).Methods("POST")
	apiRouter.HandleFunc("/users", handlers.ListUsers).Methods("GET")
	apiRouter.HandleFunc("/users/{id}", handlers.GetUser).Methods("GET")
	apiRouter.HandleFunc("/users/{id}/roles", handlers.ListUserRoles).Methods("GET")
	apiRouter.HandleFunc("/roles", handlers.CreateRole).Methods("POST")
	apiRouter.HandleFunc("/roles", handlers.ListRoles).Methods("GET")
	apiRouter.HandleFunc("/user-roles", handlers.AssignRole).Methods("POST")
	apiRouter.HandleFunc("/applications", handlers.CreateApplication).Methods("POST")
	apiRouter.HandleFunc("/applications", handlers.ListApplications).Methods("GET")
	apiRouter.HandleFunc("/access", handlers.CreateAccess).Methods("POST")
	apiRouter.HandleFunc("/access", handlers.ListAccess).Methods("GET")
	apiRouter.HandleFunc("/access/{id}", handlers.GetAccess).Methods("GET")

	/* Approver mappings */
	apiRouter.HandleFunc("/mappings/reporting", handlers.CreateReportingMap).Methods("POST")
	apiRouter.HandleFunc("/mappings/reporting", handlers.ListReportingMaps).Methods("GET")
	apiRouter.HandleFunc("/mappings/reporting-apps", handlers.CreateReportingAppMap).Methods("POST")
	apiRouter.HandleFunc("/mappings/reporting-apps", handlers.ListReportingAppMaps).Methods("GET")
	apiRouter.HandleFunc("/mappings/app-managers", handlers.CreateAppManagerMap).Methods("POST")
	apiRouter.HandleFunc("/mappings/app-managers", handlers.ListAppManagerMaps).Methods("GET")
	apiRouter.HandleFunc("/mappings/app-owners", handlers.CreateAppOwnerMap).Methods("POST")
	apiRouter.HandleFunc("/mappings/app-owners", handlers.ListAppOwnerMaps).Methods("GET")
	apiRouter.HandleFunc("/mappings/business-owners", handlers.CreateBusinessOwnerMap).Methods("POST")
	apiRouter.HandleFunc("/mappings/business-owners", handlers.ListBusinessOwnerMaps).Methods("GET")

	/* Auth */
	apiRouter.HandleFunc("/auth/login", handlers.Login).Methods("POST")

	/* Review workflow */
	apiRouter.HandleFunc("/review/start-cycle", handlers.StartCycle).Methods("POST")
	apiRouter.HandleFunc("/review/cycles", handlers.ListCycles).Methods("GET")
	apiRouter.HandleFunc("/review/items", handlers.ListReviewItems).Methods("GET")
	apiRouter.HandleFunc("/review/items/{id}/trail", handlers.GetItemTrail).Methods("GET")
	apiRouter.HandleFunc("/review/{stage}/items", handlers.ListStageItems).Methods("GET")
	apiRouter.HandleFunc("/review/{stage}/action", handlers.SubmitStageAction).Methods("POST")

	/* Health check */
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	/* Metrics endpoint */
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	return router
}
