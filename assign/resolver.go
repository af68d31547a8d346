package assign

import (
	"strings"

	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"go.uber.org/zap"
)

// Resolver selects one handler for a set of required skills using a
// tiered fallback search: skill-matching moderator, any moderator,
// any admin. A nil result means the ticket stays unassigned; that is
// a warning, not an error.
type Resolver struct {
	users persistence.UserDao
}

func NewResolver(users persistence.UserDao) *Resolver {
	return &Resolver{users: users}
}

func (r *Resolver) Resolve(requiredSkills []string) (*model.User, error) {
	if len(requiredSkills) > 0 {
		moderators, err := r.users.ListByRole(model.ROLE_MODERATOR)
		if err != nil {
			return nil, err
		}
		for i := range moderators {
			if skillsMatch(moderators[i].Skills, requiredSkills) {
				return &moderators[i], nil
			}
		}
	}
	user, err := r.firstByRole(model.ROLE_MODERATOR)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user, err = r.firstByRole(model.ROLE_ADMIN)
		if err != nil {
			return nil, err
		}
	}
	if user == nil {
		logger.Warn("no handler found to assign", zap.Strings("requiredSkills", requiredSkills))
	}
	return user, nil
}

func (r *Resolver) firstByRole(role model.UserRole) (*model.User, error) {
	users, err := r.users.ListByRole(role)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

// skillsMatch is a case-insensitive substring match in either
// direction, so "react" matches "React" and "reactjs".
func skillsMatch(userSkills []string, requiredSkills []string) bool {
	for _, us := range userSkills {
		lowerUs := strings.ToLower(us)
		for _, rs := range requiredSkills {
			lowerRs := strings.ToLower(rs)
			if strings.Contains(lowerUs, lowerRs) || strings.Contains(lowerRs, lowerUs) {
				return true
			}
		}
	}
	return false
}
