package reqtx

import (
	"github.com/labstack/echo/v4"
)

// Transaction returns the transaction-start middleware: it opens a
// transaction before the rest of the chain runs, installs the response
// interceptor, and closes the transaction from the chain's outcome unless
// something downstream already did.
func (b *Bridge) Transaction() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := b.ensureScope(c, true)
			if s.Transactional() && !s.began {
				if err := s.begin(s.ctx()); err != nil {
					return err
				}
			}
			if err := next(c); err != nil {
				return s.settle(err)
			}
			return s.settle(nil)
		}
	}
}

// RollbackOnError returns the error-channel middleware: any error flowing out
// of the chain rolls the transaction back (a no-op if a close already won)
// and is forwarded unchanged. safe to install when no transaction exists.
func (b *Bridge) RollbackOnError() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}
			s := From(c)
			if !s.Transactional() {
				return err
			}
			return s.settle(err)
		}
	}
}
