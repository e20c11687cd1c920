package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/hanbitmall/hanbit-backend/pkg/errors"
	"github.com/hanbitmall/hanbit-backend/pkg/logger"
	"github.com/hanbitmall/hanbit-backend/pkg/pagination"
	"github.com/hanbitmall/hanbit-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteList wraps the page of items with its pagination metadata.
func WriteList(w http.ResponseWriter, items any, count int, total int64, params pagination.Params) {
	writeJSON(w, http.StatusOK, types.SuccessEnvelope{Data: types.ListEnvelope{
		Items:      items,
		Count:      count,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: int(pagination.TotalPages(total, params.Limit)),
	}})
}

// WriteConflict emits a 409 carrying the already-persisted resource so a
// retrying client can resume instead of failing.
func WriteConflict(w http.ResponseWriter, message string, existing any) {
	if message == "" {
		message = pkgerrors.MetadataFor(pkgerrors.CodeConflict).PublicMessage
	}
	writeJSON(w, http.StatusConflict, types.ConflictEnvelope{
		Error: types.APIError{
			Code:    string(pkgerrors.CodeConflict),
			Message: message,
		},
		Data: existing,
	})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeForbidden,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConflict:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		ctx = logg.WithFields(ctx, map[string]any{
			"error":         dump.TopMessage,
			"error_code":    dump.Code,
			"error_chain":   dump.Chain,
			"pg_code":       dump.PGCode,
			"pg_detail":     dump.PGDetail,
			"pg_message":    dump.PGMessage,
			"pg_table":      dump.PGTable,
			"pg_column":     dump.PGColumn,
			"pg_constraint": dump.PGConstraint,
		})
		logg.Error(ctx, "request.error", err)
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
