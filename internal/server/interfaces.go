package server

// Server is the lifecycle contract for transport servers owned by this
// package. RunServer blocks until the server stops; Shutdown asks it to stop
// draining in-flight requests first.
type Server interface {
	RunServer()
	Shutdown()
}
