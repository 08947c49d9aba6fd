package dto

// ErrorResponse resposta de erro padronizada da API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
