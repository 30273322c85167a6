package domain

// Endpoint names shared by the transport and the HTTP API.
const (
	EndpointCheck             = "check"
	EndpointSendVerification  = "send_verification"
	EndpointCheckVerification = "check_verification"
	EndpointCheckPassword     = "check_password"
	EndpointSetPassword       = "set_password"
	EndpointSchedule          = "schedule"
)

// Endpoints lists every endpoint in the order the API registers them.
var Endpoints = []string{
	EndpointSchedule,
	EndpointCheck,
	EndpointSendVerification,
	EndpointCheckVerification,
	EndpointSetPassword,
	EndpointCheckPassword,
}

// FieldError is one entry of a form's error set.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
