package service

import (
	"errors"

	"github.com/noah-isme/evalia-go-api/internal/models"
)

// ErrUnauthenticated indicates the submission carried no authenticated identity.
var ErrUnauthenticated = errors.New("evaluator is not authenticated")

// ErrForbidden indicates the evaluator's role may not evaluate the target.
var ErrForbidden = errors.New("evaluator may not evaluate this target")

// Identity is the authenticated member acting in a request. It is passed
// explicitly rather than read from ambient session state so the policy is
// deterministic under test.
type Identity struct {
	ID         uint
	Role       string
	Department string
}

// TargetRef describes the entity being evaluated, resolved from storage
// before authorization.
type TargetRef struct {
	Type string
	ID   uint
	// OwnerID is the evaluated person for faculty/dean targets, and zero
	// for subjects (a subject is not a person, so self-evaluation does not
	// apply to it).
	OwnerID    uint
	Department string
}

// AuthorizeEvaluation applies the fixed evaluation policy:
//
//	student → subject (enrollment is enforced by the caller)
//	faculty → faculty or dean in the same department
//	dean    → faculty in the same department
//	acaf    → dean in any department
//
// Self-evaluation is always denied. Admins administer; they do not evaluate.
func AuthorizeEvaluation(evaluator Identity, target TargetRef) error {
	if evaluator.ID == 0 {
		return ErrUnauthenticated
	}

	if target.OwnerID != 0 && target.OwnerID == evaluator.ID {
		return ErrForbidden
	}

	switch evaluator.Role {
	case models.RoleStudent:
		if target.Type != models.TargetSubject {
			return ErrForbidden
		}
	case models.RoleFaculty:
		if target.Type != models.TargetFaculty && target.Type != models.TargetDean {
			return ErrForbidden
		}
		if target.Department != evaluator.Department {
			return ErrForbidden
		}
	case models.RoleDean:
		if target.Type != models.TargetFaculty {
			return ErrForbidden
		}
		if target.Department != evaluator.Department {
			return ErrForbidden
		}
	case models.RoleACAF:
		if target.Type != models.TargetDean {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}

	return nil
}
