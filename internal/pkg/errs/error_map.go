package errs

import "net/http"

// errorMap holds the default message and HTTP status for every known code.
var errorMap = map[int]CustomError{
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Request body must be a JSON object.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusRequestEntityTooLarge},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrInvalidInput:       {Code: ErrInvalidInput, Message: "%s", Status: http.StatusBadRequest},
	ErrDuplicateUsername:  {Code: ErrDuplicateUsername, Message: "Username already exists", Status: http.StatusBadRequest},
	ErrDuplicateEmail:     {Code: ErrDuplicateEmail, Message: "Email already exists", Status: http.StatusBadRequest},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Invalid credentials", Status: http.StatusUnauthorized},
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Missing or invalid access token", Status: http.StatusUnauthorized},
	ErrNotFound:           {Code: ErrNotFound, Message: "User not found", Status: http.StatusBadRequest},

	ErrPhotoMissing:       {Code: ErrPhotoMissing, Message: "No photo file provided", Status: http.StatusBadRequest},
	ErrPhotoTypeInvalid:   {Code: ErrPhotoTypeInvalid, Message: "Invalid file type. Allowed: PNG, JPG, JPEG, GIF, WEBP", Status: http.StatusBadRequest},
	ErrPhotoStorageFailed: {Code: ErrPhotoStorageFailed, Message: "Failed to upload photo", Status: http.StatusInternalServerError},

	ErrWeatherLocationRequired: {Code: ErrWeatherLocationRequired, Message: "City parameter or lat/lon coordinates are required", Status: http.StatusNotFound},
	ErrWeatherCityNotFound:     {Code: ErrWeatherCityNotFound, Message: "City not found", Status: http.StatusNotFound},
	ErrWeatherAPIKeyInvalid:    {Code: ErrWeatherAPIKeyInvalid, Message: "Invalid API key", Status: http.StatusInternalServerError},
	ErrWeatherUpstream:         {Code: ErrWeatherUpstream, Message: "Weather API error", Status: http.StatusInternalServerError},
	ErrWeatherTimeout:          {Code: ErrWeatherTimeout, Message: "Weather API timeout", Status: http.StatusInternalServerError},
	ErrWeatherUnavailable:      {Code: ErrWeatherUnavailable, Message: "Weather service temporarily unavailable", Status: http.StatusServiceUnavailable},

	ErrUnknown:          {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreUnavailable: {Code: ErrStoreUnavailable, Message: "Database not available", Status: http.StatusInternalServerError},
}
