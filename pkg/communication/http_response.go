package communication

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/tapas-app/tapas-backend/pkg/logger"
)

// ResponseManager handles errors that have to be returned to the user
type ResponseManager struct {
	Logger logger.Interface
}

// Pagination describes a page of a list response
type Pagination struct {
	ResultCount int `json:"resultCount"`
	PageSize    int `json:"pageSize"`
	PageIndex   int `json:"pageIndex"`
	Pages       int `json:"pages"`
}

// NewPagination computes the page count for a list response
func NewPagination(count int, page int, pageSize int) Pagination {
	pages := 0
	if pageSize > 0 {
		pages = int(math.Ceil(float64(count) / float64(pageSize)))
	}

	return Pagination{
		ResultCount: count,
		PageSize:    pageSize,
		PageIndex:   page,
		Pages:       pages,
	}
}

// RespondWithError takes several arguments to return an error to the user and logs the error as well
func (r *ResponseManager) RespondWithError(writer http.ResponseWriter, status int, message string, err error) {
	if status >= 500 {
		r.Logger.Error(message, err)
	}

	writer.WriteHeader(status)
	var response = map[string]interface{}{
		"status": status,
		"error": map[string]interface{}{
			"message": message,
		},
	}

	if err != nil {
		response["err"] = err.Error()
	}

	binary, err := json.Marshal(response)
	if err != nil {
		r.Logger.Error("Problem while marshalling error response", err)
		return
	}

	_, err = writer.Write(binary)
	if err != nil {
		r.Logger.Warning("Problem writing error response", err)
	}
}

// Respond takes an object and turns it into json and responds with it and a 200 HTTP status
func (r *ResponseManager) Respond(writer http.ResponseWriter, i interface{}) {
	r.RespondWithStatus(writer, i, http.StatusOK)
}

// RespondWithStatus responds with a specific status code
func (r *ResponseManager) RespondWithStatus(writer http.ResponseWriter, i interface{}, status int) {
	binary, err := json.Marshal(i)
	if err != nil {
		r.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while marshalling response into json", err)
		return
	}

	writer.WriteHeader(status)
	_, err = writer.Write(binary)
	if err != nil {
		r.Logger.Warning("Problem writing response", err)
	}
}

// RespondWithPage responds with a list of results and its pagination
func (r *ResponseManager) RespondWithPage(writer http.ResponseWriter, results interface{}, count int, page int, pageSize int) {
	r.Respond(writer, map[string]interface{}{
		"results":    results,
		"pagination": NewPagination(count, page, pageSize),
	})
}

// RespondWithNoContent sends a no content status code
func (r *ResponseManager) RespondWithNoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}
