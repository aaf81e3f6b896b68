package users

import (
	"strings"
	"time"

	"github.com/medimeet/platform/internal/identity"
)

// VerificationStatus tracks the admin review state of a doctor profile.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// User is a platform account. Identity (external id, email) is owned by the
// auth provider; the platform owns role, credits and the doctor profile.
type User struct {
	ID                 string             `json:"id"`
	ExternalID         string             `json:"external_id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Role               identity.Role      `json:"role"`
	Credits            int                `json:"credits"`
	Specialty          string             `json:"specialty,omitempty"`
	ExperienceYears    int                `json:"experience_years,omitempty"`
	CredentialURL      string             `json:"credential_url,omitempty"`
	Description        string             `json:"description,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// IsVerifiedDoctor reports whether the user can accept bookings.
func (u *User) IsVerifiedDoctor() bool {
	return u.Role == identity.RoleDoctor && u.VerificationStatus == VerificationVerified
}

// AssignRoleRequest is the onboarding payload choosing patient or doctor.
type AssignRoleRequest struct {
	UserID          string `json:"-"`
	Role            string `json:"role"`
	Specialty       string `json:"specialty"`
	ExperienceYears int    `json:"experience_years"`
	CredentialURL   string `json:"credential_url"`
	Description     string `json:"description"`
}

// Validate checks the role choice and, for doctors, the profile fields.
func (r *AssignRoleRequest) Validate() error {
	switch identity.Role(r.Role) {
	case identity.RolePatient:
		return nil
	case identity.RoleDoctor:
		if strings.TrimSpace(r.Specialty) == "" ||
			r.ExperienceYears <= 0 ||
			strings.TrimSpace(r.CredentialURL) == "" ||
			strings.TrimSpace(r.Description) == "" {
			return ErrIncompleteDoctorProfile
		}
		return nil
	default:
		return ErrInvalidRole
	}
}
