package server

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRoute("POST "+RouteAuthRegister, PolicyPublic, s.RegisterHandler())
	s.RegisterRoute("POST "+RouteAuthLogin, PolicyPublic, s.LoginHandler())
	s.RegisterRoute("POST "+RouteAuthRefresh, PolicyRefresh, s.RefreshHandler())
	s.RegisterRoute("POST "+RouteAuthLogout, PolicyAccess, s.LogoutHandler())
	s.RegisterRoute("GET "+RouteAuthMe, PolicyAccess, s.MeHandler())

	// PIN
	s.RegisterRoute("POST "+RoutePINSetup, PolicyPINSetupExempt, s.PINSetupHandler())
	s.RegisterRoute("POST "+RoutePINVerify, PolicyAccess, s.PINVerifyHandler())

	// OPS
	s.RegisterRoute("GET "+RouteHealthz, PolicyPublic, s.HealthzHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, s.MetricsHandler())
}
