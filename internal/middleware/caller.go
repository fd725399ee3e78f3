package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/marketplace-core/internal/ledger"
	"github.com/shinyyama/marketplace-core/internal/service"
	"github.com/shinyyama/marketplace-core/internal/verification"
)

const callerKey = "caller"

// LoadCaller resolves the authenticated uid into a Caller with its current
// tier. Must run after an Authenticator.
func LoadCaller(accounts service.AccountService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, _ := c.Get("uid").(string)
			caller, err := accounts.Resolve(c.Request().Context(), uid)
			if err != nil {
				if errors.Is(err, ledger.ErrUnauthorized) {
					return c.JSON(http.StatusUnauthorized, errorBody("unauthorized", "missing uid"))
				}
				return c.JSON(http.StatusServiceUnavailable, errorBody("storage_failure", "failed to load account"))
			}
			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// CallerFrom returns the caller stored by LoadCaller.
func CallerFrom(c echo.Context) (verification.Caller, bool) {
	caller, ok := c.Get(callerKey).(verification.Caller)
	return caller, ok
}
