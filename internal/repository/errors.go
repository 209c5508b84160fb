// Package repository holds the MySQL data access code.  The sentinel
// errors below let handlers distinguish failure scenarios with errors.Is
// and map them to HTTP statuses.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller is not an active member (or not
// an admin, where required) of the band that owns a resource.  Handlers
// translate it into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update or delete would break an
// invariant, such as removing the last admin of a band.  Handlers
// translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

var (
	ErrEmailExists     = errors.New("email already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrBandNotFound    = errors.New("band not found")
	ErrMemberNotFound  = errors.New("band member not found")
	ErrShowNotFound    = errors.New("show not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrTokenInvalid    = errors.New("refresh token invalid or expired")

	ErrSongNotFound        = errors.New("song not found")
	ErrSetlistNotFound     = errors.New("setlist not found")
	ErrSetlistSongNotFound = errors.New("song not in setlist")
)

// ErrBandMismatch is returned when a song is placed on a setlist of
// another band.  Handlers translate it into an HTTP 400 response.
var ErrBandMismatch = errors.New("song and setlist belong to different bands")

// isDuplicate reports a MySQL unique key violation (error 1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// isMissingParent reports a MySQL foreign key violation on insert (error
// 1452), raised when the referenced row does not exist.
func isMissingParent(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1452
}
