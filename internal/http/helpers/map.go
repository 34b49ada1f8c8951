package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Mojtabakargaran/identity-service/internal/auth"
	"github.com/Mojtabakargaran/identity-service/internal/institution"
	"github.com/Mojtabakargaran/identity-service/internal/profile"
	"github.com/Mojtabakargaran/identity-service/internal/tenant"
)

// FromDomain traduce errores de dominio al sobre HTTP. Los códigos son
// contrato de API: los clientes hacen switch sobre ellos.
func FromDomain(err error) *HTTPError {
	var locked *auth.LockedError
	var limited *auth.RateLimitedError
	var policy *auth.PolicyError
	var tenantPolicy *tenant.PolicyError

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &HTTPError{Code: "INVALID_CREDENTIALS", Message: "Email or password is incorrect", Status: http.StatusUnauthorized}
	case errors.As(err, &locked):
		return &HTTPError{
			Code:    "ACCOUNT_LOCKED",
			Message: "Account temporarily locked due to repeated failed logins",
			Detail:  fmt.Sprintf("locked until %s", locked.Until.UTC().Format(time.RFC3339)),
			Status:  http.StatusLocked,
		}
	case errors.As(err, &limited):
		return &HTTPError{
			Code:    "RATE_LIMIT_EXCEEDED",
			Message: "Too many requests, try again later",
			Detail:  fmt.Sprintf("retry after %s", limited.RetryAfter.Round(time.Second)),
			Status:  http.StatusTooManyRequests,
		}
	case errors.As(err, &policy):
		return &HTTPError{
			Code:    "PASSWORD_POLICY_VIOLATION",
			Message: "Password does not meet the policy",
			Detail:  strings.Join(policy.Reasons, ", "),
			Status:  http.StatusBadRequest,
		}
	case errors.As(err, &tenantPolicy):
		return &HTTPError{
			Code:    "PASSWORD_POLICY_VIOLATION",
			Message: "Password does not meet the policy",
			Detail:  strings.Join(tenantPolicy.Reasons, ", "),
			Status:  http.StatusBadRequest,
		}

	case errors.Is(err, auth.ErrEmailNotVerified):
		return &HTTPError{Code: "EMAIL_NOT_VERIFIED", Message: "Email address has not been verified", Status: http.StatusUnauthorized}
	case errors.Is(err, auth.ErrAccountSuspended):
		return &HTTPError{Code: "ACCOUNT_SUSPENDED", Message: "Account is suspended", Status: http.StatusLocked}
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, profile.ErrUserNotFound):
		return &HTTPError{Code: "USER_NOT_FOUND", Message: "No account found for that email", Status: http.StatusNotFound}

	case errors.Is(err, auth.ErrTokenNotFound):
		return &HTTPError{Code: "TOKEN_NOT_FOUND", Message: "Token not found", Status: http.StatusNotFound}
	case errors.Is(err, auth.ErrTokenUsed):
		return &HTTPError{Code: "TOKEN_ALREADY_USED", Message: "Token has already been used", Status: http.StatusGone}
	case errors.Is(err, auth.ErrTokenExpired):
		return &HTTPError{Code: "TOKEN_EXPIRED", Message: "Token has expired", Status: http.StatusGone}
	case errors.Is(err, auth.ErrAlreadyVerified):
		return &HTTPError{Code: "EMAIL_ALREADY_VERIFIED", Message: "Email is already verified", Status: http.StatusConflict}
	case errors.Is(err, auth.ErrVerificationFailed):
		return &HTTPError{Code: "VERIFICATION_FAILED", Message: "Email could not be verified, use the same link to retry", Status: http.StatusInternalServerError}

	case errors.Is(err, auth.ErrPasswordMismatch), errors.Is(err, tenant.ErrPasswordMismatch):
		return &HTTPError{Code: "PASSWORD_MISMATCH", Message: "Password confirmation does not match", Status: http.StatusBadRequest}
	case errors.Is(err, auth.ErrSameAsCurrent):
		return &HTTPError{Code: "SAME_AS_CURRENT", Message: "New password must differ from the current one", Status: http.StatusBadRequest}
	case errors.Is(err, auth.ErrUpdateFailed):
		return &HTTPError{Code: "PASSWORD_UPDATE_FAILED", Message: "Password could not be updated", Status: http.StatusInternalServerError}
	case errors.Is(err, auth.ErrEmailDelivery):
		return &HTTPError{Code: "EMAIL_DELIVERY_FAILED", Message: "Email could not be delivered", Status: http.StatusBadGateway}

	case errors.Is(err, tenant.ErrEmailExists):
		return &HTTPError{Code: "EMAIL_EXISTS", Message: "Email is already registered", Status: http.StatusConflict}
	case errors.Is(err, tenant.ErrHospitalNameExists):
		return &HTTPError{Code: "HOSPITAL_NAME_EXISTS", Message: "Hospital name is already registered", Status: http.StatusConflict}

	case errors.Is(err, profile.ErrAlreadyComplete):
		return &HTTPError{Code: "PROFILE_ALREADY_COMPLETE", Message: "Profile has already been completed", Status: http.StatusConflict}
	case errors.Is(err, profile.ErrFutureDateOfBirth):
		return &HTTPError{Code: "FUTURE_DATE_OF_BIRTH", Message: "Date of birth cannot be in the future", Status: http.StatusBadRequest}
	case errors.Is(err, profile.ErrInvalidAge):
		return &HTTPError{Code: "INVALID_AGE", Message: "Age is outside the accepted range", Status: http.StatusBadRequest}

	case errors.Is(err, institution.ErrNotFound):
		return &HTTPError{Code: "NOT_FOUND", Message: "Not configured yet", Status: http.StatusNotFound}
	case errors.Is(err, institution.ErrInvalidInput), errors.Is(err, institution.ErrUnknownDept):
		return ErrBadRequest.WithDetail(err.Error())
	}
	return ErrInternalServerError
}
