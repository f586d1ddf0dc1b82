// AngelaMos | 2026
// main_test.go

package main

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksdeva/predictor-admin/internal/admin"
	"github.com/ksdeva/predictor-admin/internal/auth"
	"github.com/ksdeva/predictor-admin/internal/automation"
	"github.com/ksdeva/predictor-admin/internal/config"
	"github.com/ksdeva/predictor-admin/internal/health"
	"github.com/ksdeva/predictor-admin/internal/request"
)

// Registration must not invoke any service, so nil services are fine
// here. What this guards against is chi's panic when two handlers try
// to mount the same subrouter pattern.
func testRouteDeps() routeDeps {
	passthrough := func(next http.Handler) http.Handler { return next }

	return routeDeps{
		health: health.NewHandler(),
		jwks: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
		auth:          auth.NewHandler(nil),
		requests:      request.NewHandler(nil, config.LifecycleConfig{}),
		automation:    automation.NewHandler(nil, nil, config.LifecycleConfig{}),
		system:        admin.NewHandler(admin.HandlerConfig{}),
		authenticator: passthrough,
		adminOnly:     passthrough,
	}
}

func TestRegisterRoutesDoesNotPanic(t *testing.T) {
	router := chi.NewRouter()

	require.NotPanics(t, func() {
		registerRoutes(router, testRouteDeps())
	})
}

func TestRegisterRoutesMountsAllEndpoints(t *testing.T) {
	router := chi.NewRouter()
	registerRoutes(router, testRouteDeps())

	registered := make(map[string]bool)
	err := chi.Walk(
		router,
		func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			registered[method+" "+route] = true
			return nil
		},
	)
	require.NoError(t, err)

	expected := []string{
		"GET /healthz",
		"GET /readyz",
		"GET /.well-known/jwks.json",

		"POST /api/company/request",
		"POST /api/company/activity/{accountID}",

		"POST /api/admin/login",
		"POST /api/admin/refresh",
		"GET /api/admin/me",
		"POST /api/admin/logout",
		"POST /api/admin/logout-all",
		"POST /api/admin/change-password",

		"GET /api/admin/requests",
		"GET /api/admin/requests/{requestID}",
		"POST /api/admin/approve/{requestID}",
		"POST /api/admin/reject/{requestID}",
		"DELETE /api/admin/force-delete/{requestID}",
		"GET /api/admin/companies",
		"GET /api/admin/stats",

		"GET /api/admin/automation/settings",
		"POST /api/admin/automation/settings",
		"POST /api/admin/automation/run",
		"GET /api/admin/inactive-accounts",
		"GET /api/admin/low-accuracy-accounts",
		"POST /api/admin/manual/warn-inactive/{accountID}",
		"POST /api/admin/manual/warn-low-accuracy/{accountID}",
		"POST /api/admin/manual/delete-account/{accountID}",

		"GET /api/admin/system/",
		"GET /api/admin/system/db",
		"GET /api/admin/system/redis",
		"GET /api/admin/system/runtime",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
}
