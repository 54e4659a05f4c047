/*
Package errs defines the application error codes and the CustomError type returned
by services and rendered by the HTTP layer.

Codes are grouped by range so a client can tell the failing area from the number alone.
*/
package errs

// 1xxx: request handling
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates an unexpected Content-Type.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates a request body that is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrFormParseFailed indicates a multipart or URL-encoded body that could not be parsed.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the caller's IP exhausted its request budget.
	ErrRateLimitExceeded = 1007
)

// 2xxx: accounts and sessions
const (
	// ErrInvalidInput indicates missing or malformed account fields. The message is field specific.
	ErrInvalidInput = 2001

	// ErrDuplicateUsername indicates that the username is already registered.
	ErrDuplicateUsername = 2002

	// ErrDuplicateEmail indicates that the email is already registered.
	ErrDuplicateEmail = 2003

	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = 2004

	// ErrUnauthorized indicates a missing, malformed, forged or expired bearer token.
	ErrUnauthorized = 2005

	// ErrNotFound indicates that the account named by a valid token no longer resolves.
	ErrNotFound = 2006
)

// 3xxx: profile photos
const (
	// ErrPhotoMissing indicates an upload request without a usable "photo" file part.
	ErrPhotoMissing = 3001

	// ErrPhotoTypeInvalid indicates a file extension outside the allowed image set.
	ErrPhotoTypeInvalid = 3002

	// ErrPhotoStorageFailed indicates that the photo could not be written to storage.
	ErrPhotoStorageFailed = 3003
)

// 4xxx: weather pass-through
const (
	// ErrWeatherLocationRequired indicates that neither city nor lat/lon was given.
	ErrWeatherLocationRequired = 4001

	// ErrWeatherCityNotFound mirrors an upstream 404.
	ErrWeatherCityNotFound = 4002

	// ErrWeatherAPIKeyInvalid mirrors an upstream 401.
	ErrWeatherAPIKeyInvalid = 4003

	// ErrWeatherUpstream covers any other non-200 upstream reply or an unreadable body.
	ErrWeatherUpstream = 4004

	// ErrWeatherTimeout indicates that the upstream did not answer in time.
	ErrWeatherTimeout = 4005

	// ErrWeatherUnavailable indicates the circuit breaker is open.
	ErrWeatherUnavailable = 4006
)

// 5xxx: internal
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates that the relational store could not serve the request.
	ErrStoreUnavailable = 5001
)
