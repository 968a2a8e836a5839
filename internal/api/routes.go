package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	analysis := s.router.Group("/analysis")
	{
		analysis.POST("", s.analysisHandler.Analyze)
		analysis.GET("/modes", s.analysisHandler.GetModes)
		analysis.GET("/media/:name", s.analysisHandler.GetMedia)
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
		system.GET("/debug", s.systemHandler.GetDebugInfo)
	}
}
