// Package http implements the HTTP handlers of the license key service.
// Handlers stay thin: they bind and validate input, delegate to the service
// layer and format the response.
//
// # Endpoints
//
//	GET  /api/license/generate   issue a key from query parameters
//	POST /api/license/validate   verify a key, returning its data when valid
//	POST /api/license/extract    decode a key without checking its signature
//	GET  /generate-license       legacy alias of /api/license/generate
//	POST /validate-license       legacy alias of /api/license/validate
//	GET  /api/health[/live|/ready]
//	GET  /api/version
//
// # Error Handling
//
// Failures are converted to RFC 7807 problem details by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/license/generate"
//	}
//
// Missing signing or verification keys are server faults and answer 500.
// A malformed key passed to extract answers 422.
package http
