package repository

import (
	"github.com/deppfellow/inquiry-intake/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Inquiry *InquiryRepository
}

// NewRepositories constructs the repositories on top of the server's pool.
// Without a database the container is empty.
func NewRepositories(s *server.Server) *Repositories {
	if s.DB == nil {
		return &Repositories{}
	}
	return &Repositories{
		Inquiry: NewInquiryRepository(s.DB.Pool, s.Config.Inquiry.TableName),
	}
}
