// Package controller holds the HTTP handlers of the AutoBuzz API.
package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

// notFoundDetails maps NotFoundError.Resource to the message shown to clients.
var notFoundDetails = map[string]string{
	"post":            "投稿が見つかりません",
	"genre":           "ジャンルが見つかりません",
	"schedule":        "スケジュールが見つかりません",
	"sns account":     "アカウントが見つかりません",
	"affiliate offer": "案件が見つかりません",
	"link":            "リンクが見つかりません",
	"user":            "ユーザーが見つかりません",
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"detail": ...}. Internal failures are logged and
// masked.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	status := appErrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
	}
	writeJSON(w, status, errorResponse{Detail: detailFor(err, status)})
}

func detailFor(err error, status int) string {
	var (
		notFound   *appErrors.NotFoundError
		validation *appErrors.ValidationError
		auth       *appErrors.AuthError
		collab     *appErrors.CollaboratorFailure
	)
	switch {
	case errors.As(err, &notFound):
		if msg, ok := notFoundDetails[notFound.Resource]; ok {
			return msg
		}
		return "見つかりません"
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &auth):
		return auth.Error()
	case errors.Is(err, appErrors.ErrEmailTaken), errors.Is(err, appErrors.ErrInvalidCredentials):
		return err.Error()
	case errors.Is(err, appErrors.ErrRunInProgress):
		return "自動投稿を実行中です。完了までお待ちください"
	case errors.As(err, &collab):
		return fmt.Sprintf("外部サービスとの通信に失敗しました（%s）", collab.Collaborator)
	}
	if status >= http.StatusInternalServerError {
		return "サーバーエラーが発生しました"
	}
	return err.Error()
}

// decodeJSON reads and validates a request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return appErrors.NewValidation("", "リクエストの形式が正しくありません")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return appErrors.NewValidation(verrs[0].Field(), validationMessage(verrs[0]))
		}
		return appErrors.NewValidation("", err.Error())
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " は必須です"
	case "email":
		return "メールアドレスの形式が正しくありません"
	case "min":
		return fmt.Sprintf("%s は%s文字以上で入力してください", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s は%s文字以内で入力してください", field, fe.Param())
	case "url", "http_url":
		return "URLの形式が正しくありません"
	case "oneof":
		return fmt.Sprintf("%s は %s のいずれかです", field, fe.Param())
	default:
		return field + " が正しくありません"
	}
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
