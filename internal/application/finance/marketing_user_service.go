package finance

import (
	"context"

	"github.com/trainhub/backend/internal/domain/identity"
)

// MarketingUserService lists users that can be credited with a commission
type MarketingUserService struct {
	userRepo identity.UserRepository
}

// NewMarketingUserService creates a new MarketingUserService
func NewMarketingUserService(userRepo identity.UserRepository) *MarketingUserService {
	return &MarketingUserService{userRepo: userRepo}
}

// List returns active users with marketing as primary or additional role
func (s *MarketingUserService) List(ctx context.Context) ([]MarketingUserResponse, error) {
	users, err := s.userRepo.FindByRole(ctx, identity.RoleMarketing)
	if err != nil {
		return nil, err
	}
	resp := make([]MarketingUserResponse, len(users))
	for i, u := range users {
		resp[i] = MarketingUserResponse{
			ID:       u.ID,
			FullName: u.FullName,
			Email:    u.Email,
			Role:     string(u.Role),
		}
	}
	return resp, nil
}
