package types

type SuccessEnvelope struct {
	StatusCode int `json:"statusCode"`
	Data       any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Error      APIError `json:"error"`
}
