package transmit

type Option func(s *Service)

// WithCleanupUnsent deletes the stored image even when the controller was
// never reached.
func WithCleanupUnsent() Option {
	return func(s *Service) {
		s.cleanupUnsent = true
	}
}
