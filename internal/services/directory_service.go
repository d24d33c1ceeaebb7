package services

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/teamdesk/taskflow-api/internal/repository"
)

// UserInfo is the directory view of a user, used only for rendering
// human-readable labels and notifications.
type UserInfo struct {
	DisplayName string
	Email       string
}

// DirectoryService resolves user ids to display data. Lookup failures
// degrade to showing the raw id; display paths never fail on a directory
// outage.
type DirectoryService struct {
	userRepo repository.UserRepository
	log      *logrus.Logger
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(userRepo repository.UserRepository, log *logrus.Logger) *DirectoryService {
	return &DirectoryService{
		userRepo: userRepo,
		log:      log,
	}
}

// ResolveUser returns display data for a user id.
func (s *DirectoryService) ResolveUser(userID uint64) UserInfo {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		s.log.WithField("user_id", userID).WithError(err).
			Debug("user directory lookup failed, falling back to raw id")
		return UserInfo{DisplayName: fmt.Sprintf("user %d", userID)}
	}

	name := user.DisplayName
	if name == "" {
		name = user.Username
	}
	return UserInfo{DisplayName: name, Email: user.Email}
}

// DisplayName implements notifier.Resolver.
func (s *DirectoryService) DisplayName(userID uint64) string {
	return s.ResolveUser(userID).DisplayName
}
