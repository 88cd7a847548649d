package server

// Server runs the reference remote's API listener and, when configured, its
// metrics listener.
type Server interface {
	// RunServer serves until SIGINT, SIGTERM or SIGQUIT, then drains every
	// listener.
	RunServer()

	// Shutdown stops every listener and ends open live channels.
	Shutdown()
}
