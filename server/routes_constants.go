package server

// Route paths
const (
	RouteAuthRegister = "/auth/register"
	RouteAuthLogin    = "/auth/login"
	RouteAuthRefresh  = "/auth/refresh"
	RouteAuthLogout   = "/auth/logout"
	RouteAuthMe       = "/auth/me"
	RoutePINSetup     = "/pin/setup"
	RoutePINVerify    = "/pin/verify"
	RouteHealthz      = "/healthz"
	RouteMetrics      = "/metrics"
)

// Policy is the route-level authorization tag, attached to each route at
// registration time and read once per request by the authorizer. It is the
// only thing deciding whether a request may proceed unauthenticated, with an
// access token, or with a refresh token.
type Policy string

const (
	// PolicyPublic routes proceed without any token check.
	PolicyPublic Policy = "public"

	// PolicyAccess routes require a valid bearer access token. The default.
	PolicyAccess Policy = "access_required"

	// PolicyRefresh routes require a valid refresh token that is also the
	// subject's live session token. Used only by the refresh endpoint.
	PolicyRefresh Policy = "refresh_required"

	// PolicyPINSetupExempt routes require an access token but are exempt
	// from any configured-PIN requirement, so a principal can reach PIN
	// setup before having a PIN.
	PolicyPINSetupExempt Policy = "pin_setup_exempt"
)
