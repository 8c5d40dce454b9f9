package api

import "reqlog/pkg/models"

type ErrorResponse struct {
	Error string `json:"error"`
}

type DeleteResponse struct {
	Message string      `json:"message"`
	Book    models.Book `json:"book"`
}
