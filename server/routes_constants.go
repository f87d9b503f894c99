package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteIndex = "/"

	// Guest routes
	RouteLogin          = "/login"
	RouteSignup         = "/signup"
	RouteLegacyLogin    = "/auth/login"
	RouteLegacySignup   = "/auth/signup"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"

	// Protected routes
	RouteDashboard = "/dashboard"
	RouteLogout    = "/logout"

	// API Routes
	RouteAPIValidatePassword = "/api/validate-password"

	// Operational routes
	RouteMetrics = "/metrics"
	RouteHealthz = "/healthz"
)

// Query and form parameter names
const (
	ParamFrom    = "from"
	ParamError   = "error"
	ParamMessage = "message"
	ParamToken   = "token"
)
