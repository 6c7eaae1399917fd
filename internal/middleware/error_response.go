package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/personality/internal/model"
	"github.com/hitoshi/personality/internal/validation"
)

// ErrorResponseBody はAPIエラーのJSON表現。
// issuesは入力検証エラーのときだけ出力される。
type ErrorResponseBody struct {
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Category string             `json:"category"`
	Action   string             `json:"action"`
	Issues   []validation.Issue `json:"issues,omitempty"`
}

func newErrorResponseBody(apiErr *model.APIError, issues validation.Issues) ErrorResponseBody {
	return ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Issues:   issues,
	}
}

// WriteErrorResponse はapiErrを指定ステータスで書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeErrorBody(w, statusCode, newErrorResponseBody(apiErr, nil))
}

// WriteValidationErrorResponse はVALIDATION_FAILEDを422で書き込む。issuesの順序は保たれる。
func WriteValidationErrorResponse(w http.ResponseWriter, issues validation.Issues) {
	writeErrorBody(w, http.StatusUnprocessableEntity, newErrorResponseBody(model.NewValidationFailedError(), issues))
}

// WriteInternalServerError は原因を伏せたINTERNAL_ERRORを500で書き込む。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body ErrorResponseBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
